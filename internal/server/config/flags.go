package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/cloudrive/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     gRPC bind address (e.g. ":50051")
//	-m string     metrics bind address, empty disables
//	-d string     PostgreSQL DSN for users and nodes, or "memory"
//	-sd string    DSN for shares (defaults to -d)
//	-s string     session token HMAC secret
//	-i duration   session idle timeout (0 disables)
//	-k string     content backend: fs, s3 or memory
//	-root string  storage root for the fs backend
//	-u -p -b -g -e  S3 user, password, bucket, region, endpoint
//	-w duration   sweep interval (0 disables)
//	-o duration   orphan grace period
//	-l string     log level
//	-f string     log format (text or json)
//
// Arguments are filtered with flagx.FilterArgs first, so -c/-config and
// unknown flags never reach this flag set.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{
		"-a", "-m", "-d", "-sd", "-s", "-i", "-k", "-root",
		"-u", "-p", "-b", "-g", "-e", "-w", "-o", "-l", "-f",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port of the metrics endpoint")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.ShareDatabaseDSN, "sd", config.ShareDatabaseDSN, "share database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.SessionIdleTimeout, "i", config.SessionIdleTimeout, "session idle timeout")

	fs.StringVar(&config.ContentBackend, "k", config.ContentBackend, "content backend (fs, s3, memory)")
	fs.StringVar(&config.StorageRoot, "root", config.StorageRoot, "storage root directory")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.DurationVar(&config.SweepInterval, "w", config.SweepInterval, "sweep interval")
	fs.DurationVar(&config.OrphanGracePeriod, "o", config.OrphanGracePeriod, "orphan grace period")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
