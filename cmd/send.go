package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/derricw/sigbot/bot"
	"github.com/derricw/sigbot/signal"
)

func init() {
	rootCmd.AddCommand(sendCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "send a single message",
	Long: `the receiver may be a phone number, uuid, username, group id, or group name:
	$sigbot send +1234567890 "hello good sir"
	$sigbot send "Book Club" "meeting at 7"`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := getConfig()
		ctx := context.Background()

		client := signal.NewClient(cfg.SignalService, cfg.UserNumber)
		b := bot.New(client, cfg)
		// group names and internal ids need the directory
		if err := b.Directory().Refresh(ctx); err != nil {
			log.Warnf("could not list groups: %v", err)
		}

		ID, err := b.Send(ctx, args[0], args[1])
		if err != nil {
			log.Fatal(err)
		}
		log.Infof("message sent with ID: %d", ID)
	},
}
