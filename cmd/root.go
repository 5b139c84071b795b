package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mycelium",
	Short: "A growth engine for AI conversations",
	Long: `Mycelium watches a conversation and, after every message, grows five
distinct paths forward: clarify, expand, create, connect, challenge or
crystallize. Each path is routed to the model tier that suits it, so
deep work gets a reasoning model and quick turns stay fast.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".mycelium.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
