package main

import (
	"fmt"

	"github.com/spf13/cobra"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
)

func newDecideCmd(root *rootOptions) *cobra.Command {
	var (
		role  string
		path  string
		fresh bool
	)

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Evaluate the redirect table",
		Long: `Evaluate the configured redirect table for a role and path.

Examples:
  patinhas-session decide --role personal --path /entrar --fresh
  patinhas-session decide --role company --path /ongs --fresh`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}

			parsed, ok := auth.ParseRole(role)
			if !ok && role != string(auth.RoleUnknown) {
				return fmt.Errorf("%w: %q", auth.ErrInvalidRole, role)
			}

			table := auth.NewRedirectTable(cfg.Auth.GetRedirectRules()...)
			target, ok := table.Decide(parsed, path, fresh)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "none")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "role of the principal (personal, company, ngo)")
	cmd.Flags().StringVar(&path, "path", "/", "current path")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "treat the transition as a fresh sign in")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}
