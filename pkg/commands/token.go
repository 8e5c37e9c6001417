package commands

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jacksonlee411/taskgrid/pkg/authn"
)

func newTokenCmd(load ConfigLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Bearer token utilities",
	}

	var userID, orgID string
	mint := &cobra.Command{
		Use:   "mint",
		Short: "Mint a bearer token for an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := load()
			if err != nil {
				return err
			}
			if conf.JWT.Secret == "" {
				return errors.New("token: JWT_SECRET must be set to mint tokens the server accepts")
			}
			user, err := uuid.Parse(userID)
			if err != nil {
				return errors.New("token: --user must be a uuid")
			}
			org, err := uuid.Parse(orgID)
			if err != nil {
				return errors.New("token: --org must be a uuid")
			}
			issuer, err := authn.NewIssuer(conf.JWT.Secret, conf.JWT.Issuer, conf.JWT.TTL)
			if err != nil {
				return err
			}
			token, expires, err := issuer.Mint(user, org)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]string{
				"token":      token,
				"expires_at": expires.Format(time.RFC3339),
			})
		},
	}
	mint.Flags().StringVar(&userID, "user", "", "user id")
	mint.Flags().StringVar(&orgID, "org", "", "organization id")
	_ = mint.MarkFlagRequired("user")
	_ = mint.MarkFlagRequired("org")

	cmd.AddCommand(mint)
	return cmd
}
