package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sporefield/mycelium/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize mycelium configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure mycelium and generates a .mycelium.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
