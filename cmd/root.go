package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "csvstats",
	Short: "Upload CSV files and explore their statistics and calendar",
	Long: `csvstats serves the statistics and calendar web app: a built
single-page frontend plus a JSON API that parses uploaded CSV files,
keeps each browser session's filters and derives the filtered data the
views render. The stats command gives the same summary in the terminal.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "csvstats.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
