package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sdr-juridico/backend/internal/permission"
	"sdr-juridico/backend/internal/policy/engine"
)

func newRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List core roles with their labels and grant counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := newTable(cmd.OutOrStdout(), "Role", "Label", "Permissions", "Description")
			for _, r := range permission.Roles() {
				if err := t.Append([]string{
					string(r), r.Label(), strconv.Itoa(len(permission.PermissionsForRole(r))), r.Description(),
				}); err != nil {
					return err
				}
			}
			return t.Render()
		},
	}
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [role]",
		Short: "Print the permission catalog, optionally for one role",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roles := permission.Roles()
			if len(args) == 1 {
				r, err := permission.ParseRole(args[0])
				if err != nil {
					return err
				}
				roles = []permission.Role{r}
			}
			t := newTable(cmd.OutOrStdout(), "Role", "Resource", "Action")
			for _, r := range roles {
				for _, p := range permission.PermissionsForRole(r) {
					if err := t.Append([]string{string(r), string(p.Resource), string(p.Action)}); err != nil {
						return err
					}
				}
			}
			return t.Render()
		},
	}
}

func newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Print the catalog compiled for the OPA or Cedar engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := cmd.Flags().GetString("engine")
			if err != nil {
				return err
			}
			switch name {
			case engine.NameOPA:
				module, err := engine.RegoModule()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), module)
				return err
			case engine.NameCedar:
				_, err := fmt.Fprint(cmd.OutOrStdout(), engine.CedarPolicies())
				return err
			}
			return fmt.Errorf("--engine must be %s or %s, got %q", engine.NameOPA, engine.NameCedar, name)
		},
	}
	cmd.Flags().String("engine", engine.NameOPA, "Policy language: opa or cedar")
	return cmd
}
