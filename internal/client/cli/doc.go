// Package cli provides the interactive cloudrive command-line client.
//
// The REPL keeps a current directory and accepts:
//
//	register, login, logout
//	ls [id], cd <id|/|..>, mkdir <name>, stat <id>
//	put <local path> [name], get <id> <local path> [share token]
//	rm <id>, mv <id> <parent id|/>, rename <id> <name>
//	share <id> [ttl], unshare <token>
//	help, exit
//
// The bearer token survives restarts in the configured token file.
package cli
