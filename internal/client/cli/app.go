package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/gopfolio/internal/client/client"
	"github.com/dmitrijs2005/gopfolio/internal/client/config"
)

// historyPageSize is how many transactions one "history" call prints.
const historyPageSize = 10

type apiClient interface {
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	LoggedIn() bool
	Totals(ctx context.Context) (*client.Totals, error)
	History(ctx context.Context, kind string, page, pageSize int) (*client.HistoryPage, error)
	Clear(ctx context.Context) error
	Close() error
}

type App struct {
	config   *config.Config
	api      apiClient
	userName string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	rpc, err := client.NewPortfolioClientService(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	return &App{
		config: c,
		api:    rpc,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.api.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.api.LoggedIn()
}

func (a *App) getStatus() string {
	if !a.isLoggedIn() {
		return "(logged out)"
	}
	return "(" + a.userName + ")"
}

// Root logs in once and then hands stdin to the REPL until exit or EOF.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to gopfolio CLI (type 'help' for commands)")

	if err := a.Login(ctx); err != nil {
		printlnFn("Login failed:", err)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}
