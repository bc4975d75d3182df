package cli

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dmitrijs2005/webkech/internal/client/models"
	"github.com/dmitrijs2005/webkech/internal/client/services"
	"github.com/dmitrijs2005/webkech/internal/logging"
)

// App binds a session store to a terminal.
type App struct {
	store  services.SessionStore
	logger logging.Logger
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(store services.SessionStore, logger logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		store:  store,
		logger: logger,
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (a *App) isLoggedIn() bool {
	return a.store.State() == models.SessionAuthenticated
}

// statusLine is the signed-in email, or the session state otherwise.
func (a *App) statusLine() string {
	if acc, ok := a.store.Current(); ok {
		return acc.Email
	}
	return a.store.State().String()
}

func (a *App) say(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
