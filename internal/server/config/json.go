package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/cloudrive/internal/flagx"
	"github.com/dmitrijs2005/cloudrive/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// either "90s"-style strings or integer nanoseconds. Absent keys leave the
// current value untouched.
type JsonConfig struct {
	EndpointAddrGRPC   *string         `json:"endpoint_addr_grpc"`
	MetricsAddr        *string         `json:"metrics_addr"`
	DatabaseDSN        *string         `json:"database_dsn"`
	ShareDatabaseDSN   *string         `json:"share_database_dsn"`
	SecretKey          *string         `json:"secret_key"`
	SessionIdleTimeout *timex.Duration `json:"session_idle_timeout"`
	ContentBackend     *string         `json:"content_backend"`
	StorageRoot        *string         `json:"storage_root"`
	S3RootUser         *string         `json:"s3_root_user"`
	S3RootPassword     *string         `json:"s3_root_password"`
	S3Bucket           *string         `json:"s3_bucket"`
	S3Region           *string         `json:"s3_region"`
	S3BaseEndpoint     *string         `json:"s3_base_endpoint"`
	SweepInterval      *timex.Duration `json:"sweep_interval"`
	OrphanGracePeriod  *timex.Duration `json:"orphan_grace_period"`
	LogLevel           *string         `json:"log_level"`
	LogFormat          *string         `json:"log_format"`
}

// parseJson overlays values from the file named by -c / -config. Without
// the flag nothing is loaded. An unreadable file or invalid JSON panics.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.MetricsAddr, c.MetricsAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.ShareDatabaseDSN, c.ShareDatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.ContentBackend, c.ContentBackend)
	setString(&config.StorageRoot, c.StorageRoot)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	if c.SessionIdleTimeout != nil {
		config.SessionIdleTimeout = c.SessionIdleTimeout.Duration
	}
	if c.SweepInterval != nil {
		config.SweepInterval = c.SweepInterval.Duration
	}
	if c.OrphanGracePeriod != nil {
		config.OrphanGracePeriod = c.OrphanGracePeriod.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
