package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derricw/sigbot/bot"
)

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"mock", "debug", "config"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestGetConfigOverride(t *testing.T) {
	cfg := bot.DefaultConfig()
	cfg.UserNumber = "+49123456789"
	path := filepath.Join(os.TempDir(), "sigbot-override.yaml")
	require.NoError(t, cfg.SaveAs(path))

	configPath = path
	defer func() { configPath = "" }()

	loaded := getConfig()
	assert.Equal(t, "+49123456789", loaded.UserNumber)
}
