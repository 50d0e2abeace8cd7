package commands

import (
	"github.com/koizuka/pricewatch"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(stockCheckCmd)
}

var stockCheckCmd = &cobra.Command{
	Use:   "stock-check",
	Short: "Writes the stock and resealed price of every product URL in the stock workbook.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		log := pricewatch.ConsoleLogger{}
		return withBrowser(config, log, func(agent *pricewatch.ChromeAgent) error {
			return pricewatch.StockCheck(cmd.Context(), config, agent, log)
		})
	},
}
