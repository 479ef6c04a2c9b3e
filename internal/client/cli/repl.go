package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Cd(ctx context.Context, args []string) error
	Mkdir(ctx context.Context, args []string) error
	Stat(ctx context.Context, args []string) error
	Put(ctx context.Context, args []string) error
	Get(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Move(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error
	Share(ctx context.Context, args []string) error
	Unshare(ctx context.Context, args []string) error
}

const (
	helpAnonymous = "Available commands: register, login, get <id> <local path> <share token>, help, exit"
	helpLoggedIn  = "Available commands: ls [id], cd <id|/|..>, mkdir <name>, stat <id>, " +
		"put <local path> [name], get <id> <local path> [share token], rm <id>, " +
		"mv <id> <parent id|/>, rename <id> <name>, share <id> [ttl], unshare <token>, logout, help, exit"
)

// runREPL reads one command per line from reader and dispatches it to a.
// The first word is the command, the rest are its arguments. Command
// errors are printed and the loop continues. The loop exits on EOF or
// when the user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("cd> %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpAnonymous)
			}
		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "ls", "l":
			cmdErr = a.List(ctx, args)
		case "cd":
			cmdErr = a.Cd(ctx, args)
		case "mkdir":
			cmdErr = a.Mkdir(ctx, args)
		case "stat":
			cmdErr = a.Stat(ctx, args)
		case "put":
			cmdErr = a.Put(ctx, args)
		case "get":
			cmdErr = a.Get(ctx, args)
		case "rm":
			cmdErr = a.Remove(ctx, args)
		case "mv":
			cmdErr = a.Move(ctx, args)
		case "rename":
			cmdErr = a.Rename(ctx, args)
		case "share":
			cmdErr = a.Share(ctx, args)
		case "unshare":
			cmdErr = a.Unshare(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if err != nil {
			return
		}
	}
}
