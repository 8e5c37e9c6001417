package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacksonlee411/taskgrid/pkg/commands"
	"github.com/jacksonlee411/taskgrid/pkg/configuration"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "taskgrid",
		Short:         "taskgrid operations tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	load := func() (*configuration.Configuration, error) {
		return configuration.Load([]string{".env", ".env.local"})
	}
	cmd.AddCommand(commands.NewUtilityCommands(load)...)
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
