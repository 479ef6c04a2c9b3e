// Package client is the cloudrive gRPC client used by the CLI.
//
// GRPCClient wraps rpc.DriveClient: it attaches the bearer token to every
// call, streams uploads and downloads in chunks, and maps status codes back
// to the sentinel errors of package common.
package client
