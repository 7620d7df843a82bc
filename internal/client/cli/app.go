package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/contactkeeper/internal/client/client"
	"github.com/dmitrijs2005/contactkeeper/internal/client/config"
)

type App struct {
	config *config.Config
	api    client.Client
	reader *bufio.Reader
	out    io.Writer
	email  string
}

func NewApp(c *config.Config) (*App, error) {
	if c.ServerBaseURL == "" {
		return nil, errors.New("server base URL is not set")
	}

	api := client.NewHTTPClient(c.ServerBaseURL, c.RequestTimeout)

	return &App{config: c, api: api, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) isLoggedIn() bool {
	return a.api.LoggedIn()
}

func (a *App) getStatus() string {
	if a.email == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", a.email)
}

// Run prints a greeting, checks the server is reachable and blocks in the
// REPL until the user exits. An open session is closed on the way out.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to ContactKeeper CLI (type 'help' for commands)")

	if err := a.api.Ping(ctx); err != nil {
		printlnFn("Warning:", describe(err))
	}

	runREPL(ctx, a, a.getStatus, a.reader)

	if a.isLoggedIn() {
		_ = a.Logout(ctx)
	}
}
