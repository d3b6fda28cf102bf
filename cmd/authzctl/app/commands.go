// Package app provides the commands of the authzctl CLI.
package app

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sdr-juridico/backend/internal/logging"
)

// NewRootCmd creates the authzctl root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "authzctl",
		DisableAutoGenTag: true,
		Short:             "Inspect roles, policies and permission decisions",
		Long: `authzctl inspects the authorization core. The roles, catalog and policy commands work
offline; scope, check and token read DATABASE_URL and the JWT settings from the environment.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logrus.WithError(err).Error("bind debug flag")
	}

	rootCmd.AddCommand(newRolesCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newPolicyCmd())
	rootCmd.AddCommand(newScopeCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newTokenCmd())

	return rootCmd
}

func newLogger(cmd *cobra.Command) *logrus.Logger {
	level := "warn"
	if viper.GetBool("debug") {
		level = "debug"
	}
	return logging.NewWithWriter(cmd.ErrOrStderr(), level, "text")
}

func newTable(w io.Writer, header ...any) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.Header(header...)
	return t
}
