package commands

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/jacksonlee411/taskgrid/pkg/configuration"
)

// ConfigLoader returns the configuration a command runs against.
type ConfigLoader func() (*configuration.Configuration, error)

// NewUtilityCommands creates the operational commands (migrate, token, authz, scope, smoke).
func NewUtilityCommands(load ConfigLoader) []*cobra.Command {
	return []*cobra.Command{
		newMigrateCmd(load),
		newTokenCmd(load),
		newAuthzCmd(load),
		newScopeCmd(),
		newSmokeCmd(),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
