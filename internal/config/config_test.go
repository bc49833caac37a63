package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	path := writeConfig(t, `
auth:
  jwt_secret: s3cret
monitor:
  interval: 30s
tokens:
  - symbol: ETH
    address: "0x0000000000000000000000000000000000000000"
    decimals: 9
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "9090", cfg.HTTPServer.Port)
	assert.Equal(t, "50051", cfg.GRPCServer.Port)
	assert.Equal(t, 30*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, 24*time.Hour, cfg.Monitor.LockedThreshold)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaService.Brokers())
	require.Len(t, cfg.Tokens, 1)
	assert.Equal(t, int32(9), cfg.Tokens[0].Decimals)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"missing secret":   "storage:\n  driver: memory\n",
		"postgres no dsn":  "auth:\n  jwt_secret: x\nstorage:\n  driver: postgres\n",
		"unknown driver":   "auth:\n  jwt_secret: x\nstorage:\n  driver: sqlite\n",
		"negative monitor": "auth:\n  jwt_secret: x\nmonitor:\n  interval: -1s\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to find config file")
}
