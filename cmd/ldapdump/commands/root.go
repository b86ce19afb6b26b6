// Package commands implements the ldapdump CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "ldapdump",
	Short:         "Dial an LDAP server or decode a captured LBER stream",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.AddCommand(dialCmd)
	rootCmd.AddCommand(decodeCmd)
}
