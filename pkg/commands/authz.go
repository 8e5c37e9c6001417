package commands

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jacksonlee411/taskgrid/pkg/authz"
)

func newAuthzCmd(load ConfigLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authz",
		Short: "Inspect the capability policy",
	}

	var (
		role, object, action, org string
		trace                     bool
	)
	check := &cobra.Command{
		Use:   "check",
		Short: "Report whether a role may perform an action",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := load()
			if err != nil {
				return err
			}
			svc, err := authz.NewService(authz.ConfigFrom(conf))
			if err != nil {
				return err
			}
			domain := authz.DomainFromOrganization(uuid.Nil)
			if org != "" {
				id, err := uuid.Parse(org)
				if err != nil {
					return err
				}
				domain = authz.DomainFromOrganization(id)
			}
			req := authz.NewRequest(authz.SubjectForRole(role), domain, object, action)
			out := map[string]any{
				"subject": req.Subject,
				"domain":  req.Domain,
				"object":  req.Object,
				"action":  req.Action,
				"mode":    svc.Mode(),
			}
			if trace {
				res, err := svc.Inspect(cmd.Context(), req)
				if err != nil {
					return err
				}
				out["allowed"] = res.Allowed
				out["trace"] = res.Trace
				return writeJSON(cmd.OutOrStdout(), out)
			}
			allowed, err := svc.Check(cmd.Context(), req)
			if err != nil {
				return err
			}
			out["allowed"] = allowed
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	check.Flags().StringVar(&role, "role", "", "role name, e.g. manager")
	check.Flags().StringVar(&object, "object", "", "object, e.g. workspace.tasks")
	check.Flags().StringVar(&action, "action", "", "action, e.g. create")
	check.Flags().StringVar(&org, "org", "", "organization id (optional)")
	check.Flags().BoolVar(&trace, "trace", false, "include the matched policy line")
	_ = check.MarkFlagRequired("role")
	_ = check.MarkFlagRequired("object")
	_ = check.MarkFlagRequired("action")

	cmd.AddCommand(check, newAuthzVerifyCmd(load))
	return cmd
}

type fixtureCase struct {
	Role    string `yaml:"role"`
	Object  string `yaml:"object"`
	Action  string `yaml:"action"`
	Allowed bool   `yaml:"allowed"`
	Note    string `yaml:"note,omitempty"`
}

type mismatch struct {
	Role     string `json:"role"`
	Object   string `json:"object"`
	Action   string `json:"action"`
	Expected bool   `json:"expected"`
	Actual   bool   `json:"actual"`
	Note     string `json:"note,omitempty"`
}

func newAuthzVerifyCmd(load ConfigLoader) *cobra.Command {
	var fixturesPath string
	cmd := &cobra.Command{
		Use:   "verify --fixtures <file.yaml>",
		Short: "Check the policy against a file of expected decisions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := load()
			if err != nil {
				return err
			}
			svc, err := authz.NewService(authz.ConfigFrom(conf))
			if err != nil {
				return err
			}
			data, err := os.ReadFile(fixturesPath)
			if err != nil {
				return err
			}
			var fixtures []fixtureCase
			if err := yaml.Unmarshal(data, &fixtures); err != nil {
				return fmt.Errorf("parse fixtures: %w", err)
			}

			domain := authz.DomainFromOrganization(uuid.Nil)
			mismatches := make([]mismatch, 0)
			for _, fx := range fixtures {
				req := authz.NewRequest(authz.SubjectForRole(fx.Role), domain, fx.Object, fx.Action)
				allowed, err := svc.Check(cmd.Context(), req)
				if err != nil {
					return err
				}
				if allowed != fx.Allowed {
					mismatches = append(mismatches, mismatch{
						Role:     fx.Role,
						Object:   fx.Object,
						Action:   fx.Action,
						Expected: fx.Allowed,
						Actual:   allowed,
						Note:     fx.Note,
					})
				}
			}
			if err := writeJSON(cmd.OutOrStdout(), map[string]any{
				"checked":    len(fixtures),
				"mismatches": mismatches,
			}); err != nil {
				return err
			}
			if len(mismatches) > 0 {
				return fmt.Errorf("authz verify: %d of %d fixtures disagree with the policy", len(mismatches), len(fixtures))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fixturesPath, "fixtures", "config/access/fixtures.yaml", "YAML list of expected decisions")
	return cmd
}
