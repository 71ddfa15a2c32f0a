package main

import (
	"fmt"

	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
)

type flagsView struct {
	Active auth.Role `json:"active"`
	auth.RoleFlagSet
}

func newFlagsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Inspect or change the persisted role flags",
		Long: `Inspect or change the persisted role flags in the configured store.

Commands:
  show              Print the flags
  clear             Unset every flag
  activate <role>   Set the flag of role and unset the others`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFlagStore(cmd, root, func(flags auth.RoleFlags) error {
				set, err := flags.Get(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), print.MaybePrettyJSON(flagsView{
					Active:      set.Active(),
					RoleFlagSet: set,
				}))
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Unset every flag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFlagStore(cmd, root, func(flags auth.RoleFlags) error {
				return flags.Clear(cmd.Context())
			})
		},
	}

	activateCmd := &cobra.Command{
		Use:   "activate <role>",
		Short: "Set the flag of role and unset the others",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, ok := auth.ParseRole(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", auth.ErrInvalidRole, args[0])
			}
			return withFlagStore(cmd, root, func(flags auth.RoleFlags) error {
				return flags.Activate(cmd.Context(), role)
			})
		},
	}

	cmd.AddCommand(showCmd, clearCmd, activateCmd)
	return cmd
}

func withFlagStore(cmd *cobra.Command, root *rootOptions, fn func(auth.RoleFlags) error) error {
	cfg, err := loadConfig(root.configPath)
	if err != nil {
		return err
	}

	flags, closeStore, err := openFlagStore(cmd.Context(), cfg.FlagStore)
	if err != nil {
		return err
	}
	defer closeStore()

	return fn(flags)
}
