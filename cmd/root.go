package cmd

import (
	"context"
	"os"
	ossig "os/signal"
	"path/filepath"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/derricw/sigbot/bot"
	"github.com/derricw/sigbot/signal"
)

var (
	mock       string
	debug      bool
	configPath string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&mock, "mock", "m", "", "mock mode (uses example wire data)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default "+bot.ConfigPath()+")")
}

func initLogging(cfg *bot.Config) {
	if cfg.LogFilePath == "" {
		cfg.LogFilePath = bot.LogPath()
	}

	dir := filepath.Dir(cfg.LogFilePath)
	err := os.MkdirAll(dir, os.ModePerm)
	if err != nil {
		log.Fatalf("failed to create folder: %s", dir)
	}

	logFile, err := os.Create(cfg.LogFilePath)
	if err != nil {
		log.Fatalf("error creating log file: %v %v", cfg.LogFilePath, err)
	}
	if debug {
		log.SetLevel(log.DebugLevel)
	}
	log.SetOutput(logFile)
}

func setupMock(mockFileName string) *signal.Mock {
	b, err := os.ReadFile(mockFileName)
	if err != nil {
		log.Fatalf("couldn't open mock data: %v %v", mockFileName, err)
	}
	var wire [][]byte
	for _, line := range strings.Split(string(b), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			wire = append(wire, []byte(line))
		}
	}
	m := signal.NewMock(wire)
	m.BlockAfterWire = true
	return m
}

func getConfig() *bot.Config {
	path := configPath
	var cfg *bot.Config
	var err error
	if path != "" {
		cfg, err = bot.LoadConfig(path)
	} else {
		path = bot.ConfigPath()
		cfg, err = bot.GetConfig()
	}
	if err != nil {
		log.Fatalf("failed to read config @ %s", path)
	}
	if cfg.UserNumber == "" {
		log.Fatalf("no user phone number configured @ %s", path)
	}
	if !strings.HasPrefix(cfg.UserNumber, "+") {
		cfg.UserNumber = "+" + cfg.UserNumber
	}
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "sigbot",
	Short: "sigbot is a signal bot framework for signal-cli-rest-api",
	Long:  ``,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := getConfig()
		initLogging(cfg)

		var signalAPI bot.SignalAPI = signal.NewClient(cfg.SignalService, cfg.UserNumber)
		if mock != "" {
			signalAPI = setupMock(mock)
		}

		b := bot.New(signalAPI, cfg)

		// built-in liveness check: answer "ping" in any chat
		b.Register("ping", bot.HandlerFunc(pong), bot.AllowAll(), bot.AllowAll(),
			func(m *signal.Message) bool { return strings.TrimSpace(m.Text()) == "ping" })

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		ossig.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigChan
			log.Infof("caught signal: %s", s)
			cancel()
		}()

		if err := b.Start(ctx); err != nil && err != context.Canceled {
			log.Fatal(err)
		}
	},
}

func pong(ctx context.Context, c *bot.Context) error {
	_, err := c.Reply(ctx, "pong")
	return err
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
