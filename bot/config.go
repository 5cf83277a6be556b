package bot

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

var (
	configFilename   string = "config.yml"
	configFolderName string = "sigbot"
	dataFolderName   string = "sigbot"
)

// FindConfigFolder returns $XDG_CONFIG_HOME/sigbot/ if it exists, otherwise returns $HOME/.config/sigbot/
func FindConfigFolder() string {
	XDGConfig := os.Getenv("XDG_CONFIG_HOME")
	if XDGConfig != "" {
		return filepath.Join(XDGConfig, configFolderName)
	}
	d, _ := os.UserHomeDir()
	return filepath.Join(d, ".config", configFolderName)
}

// ConfigPath returns the config file path
func ConfigPath() string {
	return filepath.Join(FindConfigFolder(), configFilename)
}

// FindDataFolder returns $XDG_DATA_HOME/sigbot if it exists, otherwise returns $HOME/.local/share/sigbot/
func FindDataFolder() string {
	XDGData := os.Getenv("XDG_DATA_HOME")
	if XDGData != "" {
		return filepath.Join(XDGData, dataFolderName)
	}
	d, _ := os.UserHomeDir()
	return filepath.Join(d, ".local", "share", dataFolderName)
}

// LogPath returns the log file path
func LogPath() string {
	return filepath.Join(FindDataFolder(), "sigbot.log")
}

func DefaultConfig() *Config {
	return &Config{
		SignalService: "127.0.0.1:8080",
		Consumers:     3,
		QueueSize:     DefaultQueueSize,
	}
}

// Config for the bot process.
type Config struct {
	// SignalService is the host:port of the signal-cli-rest-api backend.
	SignalService string `yaml:"signal_service"`
	UserNumber    string `yaml:"user_number"`
	// Consumers is the worker pool size.
	Consumers int `yaml:"consumers"`
	// QueueSize bounds the dispatch queue; the producer blocks when full.
	QueueSize int `yaml:"queue_size"`

	// No rotation provided, use at your own risk!
	LogFilePath string `yaml:"log_file"`
}

// SaveAs writes the config to `path`
func (c *Config) SaveAs(path string) error {
	d, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.Write(d)
	return err
}

// Save saves the config to the default location
func (c *Config) Save() error {
	return c.SaveAs(ConfigPath())
}

// Print pretty-prints the configuration
func (c *Config) Print() {
	b, _ := yaml.Marshal(c)
	fmt.Printf("%s", string(b))
}

// LoadConfig loads the config located @ `path`
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// NewConfigFile makes a new config file at `path` and returns the default config.
func NewConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	dir := filepath.Dir(path)
	err := os.MkdirAll(dir, os.ModePerm)
	if err != nil {
		return nil, err
	}
	err = cfg.SaveAs(path)
	if err != nil {
		log.Printf("failed to save config @ %s", path)
	}
	log.Printf("default config saved @ %s", path)
	return cfg, nil
}

// GetConfig returns the current configuration from the
// default config location, creates a new one if it isn't there
func GetConfig() (*Config, error) {
	path := ConfigPath()
	if _, err := os.Stat(path); err != nil {
		// config doesn't exist so lets save default
		return NewConfigFile(path)
	}
	return LoadConfig(path)
}
