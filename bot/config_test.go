package bot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UserNumber = "+49123456789"
	dir := os.TempDir()
	path := filepath.Join(dir, "tempconfig.yaml")
	err := cfg.SaveAs(path)
	if err != nil {
		t.Fatalf("failed to save test config @ %s - %s\n", path, err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load test config @ %s - %s\n", path, err)
	}

	assert.Equal(t, loaded, cfg)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 3, cfg.Consumers)
	assert.Equal(t, DefaultQueueSize, cfg.QueueSize)
	assert.Equal(t, "127.0.0.1:8080", cfg.SignalService)
}
