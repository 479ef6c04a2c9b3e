package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-m", ":9999", "-d", "db", "-sd", "sharedb", "-s", "secret",
				"-i", "30m", "-k", "s3", "-root", "/srv/data",
				"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
				"-w", "1m", "-o", "2h", "-l", "debug", "-f", "json",
			},
			expected: &Config{
				EndpointAddrGRPC:   "127.0.0.1:9090",
				MetricsAddr:        ":9999",
				DatabaseDSN:        "db",
				ShareDatabaseDSN:   "sharedb",
				SecretKey:          "secret",
				SessionIdleTimeout: 30 * time.Minute,
				ContentBackend:     "s3",
				StorageRoot:        "/srv/data",
				S3RootUser:         "user",
				S3RootPassword:     "password",
				S3Bucket:           "bucket",
				S3Region:           "us-west-1",
				S3BaseEndpoint:     "http://endpoint",
				SweepInterval:      time.Minute,
				OrphanGracePeriod:  2 * time.Hour,
				LogLevel:           "debug",
				LogFormat:          "json",
			},
		},
		{
			name:     "config file flag and unknown flags ignored",
			args:     []string{"-c", "cfg.json", "-x", "1", "-a", ":1"},
			expected: &Config{EndpointAddrGRPC: ":1"},
		},
		{
			name:        "bad duration panics",
			args:        []string{"-i", "forever"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
