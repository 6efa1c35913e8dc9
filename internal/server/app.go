// Package server wires the bookshelf services together and runs the HTTP API
// until the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/bookshelf/internal/common"
	"github.com/dmitrijs2005/bookshelf/internal/logging"
	"github.com/dmitrijs2005/bookshelf/internal/server/auth"
	"github.com/dmitrijs2005/bookshelf/internal/server/config"
	"github.com/dmitrijs2005/bookshelf/internal/server/httpapi"
	"github.com/dmitrijs2005/bookshelf/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bookshelf/internal/server/services"
	"github.com/dmitrijs2005/bookshelf/internal/server/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// secretSize is the number of random bytes used when no secret is configured.
const secretSize = 32

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	limiter httpapi.RateLimiter
	server  *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, "bookshelf", c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	um := repomanager.NewPostgresRepositoryManager()
	if err := um.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	secret := c.SecretKey
	if secret == "" {
		secret, err = common.MakeRandHexString(secretSize)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("secret generation error: %w", err)
		}
		logger.Warn(ctx, "No secret key configured, using a random one; tokens will not survive a restart")
	}

	tokens, err := auth.NewTokenService([]byte(secret), c.TokenValidityDuration)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("token service error: %w", err)
	}

	limiter, err := newLimiter(ctx, c, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	var links services.ContentLinker
	if c.S3Bucket != "" {
		p, err := storage.NewPresigner(ctx, storage.Options{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			TTL:          c.ContentLinkTTL,
		})
		if err != nil {
			limiter.Close()
			_ = db.Close()
			return nil, fmt.Errorf("object storage error: %w", err)
		}
		links = p
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := httpapi.NewServer(httpapi.Options{
		Address:            c.EndpointAddrHTTP,
		AllowedOrigins:     c.AllowedOrigins,
		RateLimitPerMinute: c.RateLimitPerMinute,
		TrustedProxies:     c.TrustedProxies,
		ShutdownTimeout:    c.ShutdownTimeout,
	}, httpapi.Deps{
		Users:     services.NewUserService(db, um, tokens, c.BcryptCost),
		Cart:      services.NewCartService(db, um),
		Checkout:  services.NewCheckoutService(db, um, logger),
		Purchases: services.NewPurchaseService(db, um, links, logger),
		Tokens:    tokens,
		Limiter:   limiter,
		Registry:  registry,
		DBHealth:  db.PingContext,
	}, logger)

	return &App{config: c, logger: logger, db: db, limiter: limiter, server: srv}, nil
}

func newLimiter(ctx context.Context, c *config.Config, logger logging.Logger) (httpapi.RateLimiter, error) {
	if c.RedisAddr == "" {
		return httpapi.NewMemoryRateLimiter(), nil
	}
	logger.Info(ctx, "Using redis rate limiter", "address", c.RedisAddr)
	return httpapi.NewRedisRateLimiter(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB, logger.With("module", "rate_limiter"))
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.limiter.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
