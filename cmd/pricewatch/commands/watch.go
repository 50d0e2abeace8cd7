package commands

import (
	"strings"

	"github.com/koizuka/pricewatch"
	"github.com/spf13/cobra"
)

var useHTTP *bool

func init() {
	useHTTP = rootCmd.PersistentFlags().Bool("http", false, "fetch listings over plain HTTP instead of the browser")
	rootCmd.AddCommand(dailyPriceCmd)
	rootCmd.AddCommand(backInStockCmd)
}

// listing runs fn with the source for site and term. The browser is only started
// when the source needs one.
func listing(config pricewatch.Config, site pricewatch.ListingSite, term string, log pricewatch.Logger, fn func(source pricewatch.ListingSource) error) error {
	if *useHTTP {
		session, err := pricewatch.OpenSession(config, site.Name, log)
		if err != nil {
			return err
		}
		return fn(&pricewatch.HTTPListing{Session: session, Site: site, Term: term})
	}
	return withBrowser(config, log, func(agent *pricewatch.ChromeAgent) error {
		return fn(&pricewatch.BrowserListing{Agent: agent, Site: site, Term: term, Log: log})
	})
}

var dailyPriceCmd = &cobra.Command{
	Use:   "daily-price",
	Short: "Waits for the tracked product, records today's price and the lowest price so far.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		log := pricewatch.ConsoleLogger{}
		tracking := config.PriceTracking
		return listing(config, tracking.Site, tracking.SearchTerm, log, func(source pricewatch.ListingSource) error {
			_, err := pricewatch.DailyPrice(cmd.Context(), config, source, pricewatch.PriceTrackingStore(config), log)
			return err
		})
	},
}

var backInStockCmd = &cobra.Command{
	Use:   "back-in-stock [keyword...]",
	Short: "Polls a listing until a product matching every keyword is offered.",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		if len(args) > 0 {
			config.BackInStock.Keywords = args
		}
		log := pricewatch.ConsoleLogger{}
		term := strings.Join(config.BackInStock.Keywords, " ")
		return listing(config, config.BackInStock.Site, term, log, func(source pricewatch.ListingSource) error {
			_, err := pricewatch.BackInStock(cmd.Context(), config, source, log)
			return err
		})
	},
}
