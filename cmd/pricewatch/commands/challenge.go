package commands

import (
	"github.com/koizuka/pricewatch"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(challengeCmd)
}

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Downloads the challenge spreadsheet and submits every row through the web form.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		log := pricewatch.ConsoleLogger{}
		session, err := pricewatch.OpenSession(config, "challenge", log)
		if err != nil {
			return err
		}
		return withBrowser(config, log, func(agent *pricewatch.ChromeAgent) error {
			return pricewatch.NewChallenge(config, agent, session, log).Run(cmd.Context())
		})
	},
}
