package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mlibrea/propscan/internal/config"
	"github.com/mlibrea/propscan/internal/logger"
	"github.com/mlibrea/propscan/internal/portals"
)

var portalsCmd = &cobra.Command{
	Use:   "portals",
	Short: "Scrape the static rental portals",
	Long: `Scrape paginated rental listings from the static HTML portals
(Lamudi, Property24) without a browser.

Examples:
  # Both portals, three pages each, CSV to a file
  propscan portals --site all --max-pages 3 -o rentals.csv

  # One portal, summary only
  propscan portals --site lamudi`,
	RunE: runPortals,
}

func init() {
	rootCmd.AddCommand(portalsCmd)

	flags := portalsCmd.Flags()
	flags.String("site", "all", "portal to scrape: lamudi, property24, all")
	flags.Int("max-pages", 0, "pages per portal")
	flags.StringP("output", "o", "", "CSV output file")
	flags.Bool("summary", true, "print the aggregate summary as JSON (use --summary=false to disable)")

	_ = viper.BindPFlag("portals.max_pages", flags.Lookup("max-pages"))
}

func runPortals(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	scraper := portals.New(portals.Config{
		PageDelay: cfg.Portals.PageDelay,
		MaxPages:  cfg.Portals.MaxPages,
	})

	site, _ := cmd.Flags().GetString("site")
	var listings []portals.Listing
	switch site {
	case "lamudi":
		listings = scraper.Lamudi(ctx, cfg.Portals.MaxPages)
	case "property24":
		listings = scraper.Property24(ctx, cfg.Portals.MaxPages)
	case "all", "":
		listings = scraper.All(ctx, cfg.Portals.MaxPages)
	default:
		return fmt.Errorf("unknown site %q (use lamudi, property24, or all)", site)
	}

	logger.Info("portals scrape complete", "site", site, "listings", len(listings))

	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		if err := portals.WriteCSV(outPath, listings); err != nil {
			logger.Error("failed to write CSV", "path", outPath, "error", err)
			return err
		}
		logger.Info("listings saved", "path", outPath)
	}

	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		out, err := json.MarshalIndent(portals.Aggregate(listings), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}

	return nil
}
