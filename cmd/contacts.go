package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/derricw/sigbot/signal"
)

func init() {
	rootCmd.AddCommand(contactsCmd)
}

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "list contacts for the configured user",
	Long: `example:
	$ sigbot contacts`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := getConfig()
		ctx := context.Background()

		client := signal.NewClient(cfg.SignalService, cfg.UserNumber)
		contacts, err := client.ListContacts(ctx)
		if err != nil {
			log.Fatal(err)
		}
		for _, c := range contacts {
			name := c.Name
			if name == "" {
				name = c.ProfileName
			}
			fmt.Printf("%s\t%s\t%s\n", name, c.Number, c.UUID)
		}
	},
}
