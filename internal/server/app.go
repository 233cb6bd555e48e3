// Package server wires configuration, storage, services and both listeners
// (HTTP for the browser, gRPC for the CLI) and runs them until a shutdown
// signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gopfolio/internal/dbx"
	"github.com/dmitrijs2005/gopfolio/internal/logging"
	"github.com/dmitrijs2005/gopfolio/internal/server/auth"
	"github.com/dmitrijs2005/gopfolio/internal/server/config"
	"github.com/dmitrijs2005/gopfolio/internal/server/httpapi"
	"github.com/dmitrijs2005/gopfolio/internal/server/photos"
	"github.com/dmitrijs2005/gopfolio/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gopfolio/internal/server/services"

	gs "github.com/dmitrijs2005/gopfolio/internal/server/grpc"
)

// openDB is a test seam for dbx.OpenPostgres.
var openDB = dbx.OpenPostgres

type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config           *config.Config
	logger           logging.Logger
	db               *sql.DB
	authService      *services.AuthService
	portfolioService *services.PortfolioService
	catalogService   *services.CatalogService
}

// NewApp opens the database, applies migrations, seeds the principal and
// builds the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSON(os.Stdout, level)
	return newApp(ctx, c, logger, repomanager.NewPostgresRepositoryManager())
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, rm repomanager.RepositoryManager) (*App, error) {
	verifier, err := auth.NewVerifier(c.CredentialScheme)
	if err != nil {
		return nil, fmt.Errorf("credential verifier: %w", err)
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	store := photos.NewS3Store(photos.Options{
		Region:      c.S3Region,
		User:        c.S3RootUser,
		Password:    c.S3RootPassword,
		Bucket:      c.S3Bucket,
		Endpoint:    c.S3BaseEndpoint,
		URLValidity: c.PhotoURLValidity,
	})

	as := services.NewAuthService(db, rm, c, verifier, store, logger)
	if err := as.SeedPrincipal(ctx, c.SeedCredential); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed principal: %w", err)
	}

	return &App{
		config:           c,
		logger:           logger,
		db:               db,
		authService:      as,
		portfolioService: services.NewPortfolioService(db, rm, logger),
		catalogService:   services.NewCatalogService(db, rm, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) servers() []runner {
	h := httpapi.NewHandler(app.authService, app.portfolioService, app.catalogService, app.logger)
	router := httpapi.NewRouter(h, []byte(app.config.SecretKey), app.config.CORSAllowedOrigins)

	return []runner{
		httpapi.NewServer(app.config.EndpointAddrHTTP, router, app.logger),
		gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService, app.portfolioService, app.config.SecretKey),
	}
}

// serve runs every listener; the first failure stops the others.
func (app *App) serve(ctx context.Context, cancelFunc context.CancelFunc, servers []runner) {
	var wg sync.WaitGroup

	for _, s := range servers {
		wg.Add(1)
		go func(s runner) {
			defer wg.Done()
			if err := s.Run(ctx); err != nil {
				app.logger.Error(ctx, err.Error())
				cancelFunc()
			}
		}(s)
	}

	wg.Wait()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	app.serve(ctx, cancelFunc, app.servers())

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing db", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
