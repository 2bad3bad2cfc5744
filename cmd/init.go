package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ziadkadry99/csvstats/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize csvstats configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the csvstats server and writes the config file (csvstats.yml unless --config says otherwise).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
