// Package commands implements the CLI commands for propscan.
package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mlibrea/propscan/internal/config"
	"github.com/mlibrea/propscan/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "propscan",
	Short: "Property listing scraper and per-sqm analyzer for PH portals",
	Long: `Propscan scrapes property listings, normalizes their free-text titles
with an LLM, and ranks units by price per square meter.

Examples:
  # Scrape a Carousell search, normalize titles, write CSV
  propscan scrape -u "https://www.carousell.ph/search/..." \
      --location "Makati" -o listings.csv

  # Same, with a local Ollama model and an inline report
  propscan scrape -u "https://www.carousell.ph/search/..." \
      --location "Makati" -p ollama -m mistral --report

  # Static portals with an aggregate summary
  propscan portals --site all --max-pages 3 --summary

  # Re-rank a saved run
  propscan analyze listings.csv --top 5`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.propscan.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON instead of text")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	config.InitViper(viper.GetString("config"))
}

// initLogger installs the package logger from the merged global flags.
// Each command calls it first so config file and env settings apply.
func initLogger() {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
