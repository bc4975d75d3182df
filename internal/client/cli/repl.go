package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/webkech/internal/client/services"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// Prompts and messages go through emit and the prompt shows statusFn().
// The loop ends on EOF, on "exit" or "quit", or when ctx is cancelled.
//
//	Not logged in:  help, register, login, status, exit
//	Logged in:      help, whoami, status, logout, exit
//
// Handler errors are printed as user-facing messages and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, emit func(args ...any)) {
	for ctx.Err() == nil {
		emit(fmt.Sprintf("webkech (%s)> ", statusFn()))

		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				emit("Available commands: whoami, status, logout, exit")
			} else {
				emit("Available commands: register, login, status, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "whoami":
			cmdErr = a.Whoami(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "exit", "quit":
			emit("Bye!")
			return

		default:
			emit("Unknown command:", cmd)
		}

		if cmdErr != nil {
			emit(services.UserMessage(cmdErr))
		}
	}
}

// Run starts the REPL on the app's input and blocks until it ends.
func (a *App) Run(ctx context.Context) {
	a.println("Welcome to WebKech (type 'help' for commands)")
	runREPL(ctx, a, a.statusLine, a.reader, a.println)
}
