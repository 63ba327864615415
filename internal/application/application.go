package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/duanxinyuan/json-utils/internal/api"
	"github.com/duanxinyuan/json-utils/internal/config"
	"github.com/duanxinyuan/json-utils/internal/formats"
	"github.com/duanxinyuan/json-utils/internal/jsonutil"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	codec   *formats.Codec
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// NewCodec builds the format codec described by cfg.
func NewCodec(cfg config.Config, logger *zap.Logger) (*formats.Codec, error) {
	engine, err := jsonutil.EngineByName(cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("failed to select json engine: %w", err)
	}
	return formats.New(
		formats.WithEngine(engine),
		formats.WithIndent(cfg.Indent),
		formats.WithCSVSeparator(cfg.CSVSeparator),
		formats.WithLogger(logger),
	), nil
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	codec, err := NewCodec(cfg, logger)
	if err != nil {
		return nil, err
	}

	handler := api.NewHandler(codec,
		api.WithMaxBodyBytes(cfg.MaxBodyBytes),
		api.WithHandlerLogger(logger),
	)
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		codec:   codec,
		handler: handler,
		router:  router,
		logger:  logger,
		server:  NewServer(cfg, router),
	}, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.String("engine", a.codec.JSON().Engine().Name()),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Codec returns the codec shared by every request.
func (a *App) Codec() *formats.Codec {
	return a.codec
}
