package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mlibrea/propscan/internal/analysis"
	"github.com/mlibrea/propscan/internal/logger"
	"github.com/mlibrea/propscan/internal/output"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <records.csv>",
	Short: "Rank a saved run by price per square meter",
	Long: `Recompute the per-sqm ranking from a CSV written by scrape.

Building names are canonicalized with the built-in alias table, prices
and sizes are parsed from their raw text, and the cheapest units per
building are printed as a table.

Example:
  propscan analyze listings.csv --top 5`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Int("top", analysis.DefaultTop, "units kept per building")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	initLogger()

	records, err := output.ReadCSV(args[0])
	if err != nil {
		logger.Error("failed to read records", "path", args[0], "error", err)
		return err
	}

	top, _ := cmd.Flags().GetInt("top")
	units := analysis.TopPerBuilding(analysis.Rank(records, analysis.DefaultAliases()), top)
	if len(units) == 0 {
		logger.Warn("no units with a parseable price and size", "records", len(records))
	}

	return analysis.WriteReport(os.Stdout, units)
}
