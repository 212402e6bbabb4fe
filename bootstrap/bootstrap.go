// Package bootstrap wires all dependencies and starts the application:
// logger, configuration, view registry, resource store, renderer, parser,
// and the HTTP server.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/apiview/adapters/idgen"
	"github.com/artpar/apiview/adapters/memory"
	"github.com/artpar/apiview/adapters/metrics"
	"github.com/artpar/apiview/adapters/sqlite"
	"github.com/artpar/apiview/config"
	"github.com/artpar/apiview/core/link"
	"github.com/artpar/apiview/core/params"
	"github.com/artpar/apiview/core/render"
	"github.com/artpar/apiview/core/view"
	"github.com/artpar/apiview/ports"
	"github.com/artpar/apiview/web"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	Views      *view.Registry
	Renderer   *render.Renderer
	Parser     *params.Parser
	Store      ports.ResourceStore
	Metrics    *metrics.Collector
	HTTPServer *http.Server

	db *sqlite.DB
}

// New creates and initializes the application from a loaded configuration.
// View schema problems are configuration bugs and fail startup.
func New(cfg *config.Config) (*App, error) {
	logger := SetupLogger(cfg.Logging)

	logger.Info().Msg("initializing apiview")

	a := &App{
		Logger: logger,
		Config: cfg,
	}

	a.Views = view.NewRegistry()
	if err := view.LoadDir(cfg.Views.Dir, a.Views); err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}
	logger.Info().Int("views", len(a.Views.List())).Str("dir", cfg.Views.Dir).Msg("views registered")

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	if err := a.initStore(); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	links := &link.Builder{
		Scheme:    cfg.Render.Scheme,
		Host:      cfg.Render.Host,
		Port:      cfg.Render.Port,
		Namespace: cfg.Render.Namespace,
	}
	style := cfg.Style()

	a.Renderer = render.New(render.Config{
		Views:    a.Views,
		Links:    links,
		Style:    style,
		Logger:   logger,
		Observer: observerOrNil(a.Metrics),
	})
	a.Parser = params.New(params.Config{
		Style:    style,
		Logger:   logger,
		Observer: parseObserverOrNil(a.Metrics),
	})

	a.initHTTPServer()

	return a, nil
}

// observerOrNil avoids handing the renderer a typed-nil observer.
func observerOrNil(m *metrics.Collector) render.Observer {
	if m == nil {
		return nil
	}
	return m
}

func parseObserverOrNil(m *metrics.Collector) params.Observer {
	if m == nil {
		return nil
	}
	return m
}

func (a *App) initStore() error {
	gen := idgen.UUID{}

	switch a.Config.Database.Driver {
	case "sqlite":
		db, err := sqlite.Open(a.Config.Database.DSN)
		if err != nil {
			return err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return err
		}
		a.db = db
		a.Store = sqlite.NewResourceStore(db, gen)
		a.Logger.Info().Str("dsn", a.Config.Database.DSN).Msg("sqlite store ready")
	default:
		a.Store = memory.NewResourceStore(gen)
		a.Logger.Info().Msg("in-memory store ready")
	}

	return nil
}

func (a *App) initHTTPServer() {
	handler := web.New(web.Config{
		Views:    a.Views,
		Renderer: a.Renderer,
		Parser:   a.Parser,
		Store:    a.Store,
		Style:    a.Config.Style(),
		Logger:   a.Logger,
		Metrics:  a.Metrics,
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	if a.Metrics != nil {
		r.Handle(a.Config.Metrics.Path, promhttp.Handler())
	}

	mount := "/"
	if ns := a.Config.Render.Namespace; ns != "" {
		mount = "/" + ns
	}
	r.Mount(mount, handler.Routes())

	addr := a.Config.Server.Host + ":" + strconv.Itoa(a.Config.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM, then shuts
// down gracefully.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("http server listening")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return a.Close()
}

// Close releases held resources.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// SetupLogger builds the process logger from logging config.
func SetupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().Timestamp().Logger()
}
