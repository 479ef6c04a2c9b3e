// Package config loads runtime configuration for the cloudrive CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string     address:port of the backend gRPC endpoint
//	-t string     token file path
//	-r duration   per-request timeout
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "token_file": "/home/me/.config/cloudrive/token",
//	  "request_timeout": "15s"
//	}
package config
