package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the cloudrive CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - TokenFile: where the bearer token is kept between runs; empty keeps
//     it in memory only.
//   - RequestTimeout: deadline applied to each unary call.
type Config struct {
	ServerEndpointAddr string
	TokenFile          string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.TokenFile = defaultTokenFile()
	c.RequestTimeout = 15 * time.Second
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cloudrive", "token")
}

// LoadConfig builds a Config from os.Args.
func LoadConfig() *Config {
	return LoadConfigFromArgs(os.Args[1:])
}

// LoadConfigFromArgs applies defaults, then JSON (if -c is given), then
// flags. Later sources take precedence over earlier ones.
func LoadConfigFromArgs(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
