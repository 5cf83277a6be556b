package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/derricw/sigbot/bot"
	"github.com/derricw/sigbot/signal"
)

func init() {
	rootCmd.AddCommand(groupsCmd)
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "list groups for the configured user",
	Long: `example:
	$ sigbot groups`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := getConfig()
		ctx := context.Background()

		client := signal.NewClient(cfg.SignalService, cfg.UserNumber)
		directory := bot.NewDirectory(client)
		if err := directory.Refresh(ctx); err != nil {
			log.Fatal(err)
		}
		for _, g := range directory.Groups() {
			fmt.Printf("%s\t%d members\t%s\n", g.Name, len(g.Members), g.ID)
		}
	},
}
