package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseJson_Overlay(t *testing.T) {
	path := writeFile(t, `{"server_endpoint_addr":"json:9","request_timeout":"2s"}`)

	cfg := Config{ServerEndpointAddr: "h:1", TokenFile: "tok", RequestTimeout: time.Second}
	parseJson(&cfg, []string{"-c", path})

	assert.Equal(t, "json:9", cfg.ServerEndpointAddr)
	assert.Equal(t, "tok", cfg.TokenFile, "absent keys are kept")
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
}

func TestLoadConfigFromArgs_FlagsOverrideJson(t *testing.T) {
	path := writeFile(t, `{"server_endpoint_addr":"json:9"}`)

	cfg := LoadConfigFromArgs([]string{"-config", path, "-a", "flag:7"})
	assert.Equal(t, "flag:7", cfg.ServerEndpointAddr)
}

func TestParseJson_Panics(t *testing.T) {
	bad := writeFile(t, `{not json`)
	assert.Panics(t, func() { parseJson(&Config{}, []string{"-c", bad}) })
	assert.Panics(t, func() { parseJson(&Config{}, []string{"-c", filepath.Join(t.TempDir(), "missing.json")}) })
}
