package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/padelhub/storefront/internal/api"
	"github.com/padelhub/storefront/internal/backend"
	"github.com/padelhub/storefront/internal/export"
	"github.com/padelhub/storefront/internal/metrics"
	"github.com/padelhub/storefront/internal/pricing"
	"github.com/padelhub/storefront/internal/publisher"
	"github.com/padelhub/storefront/internal/rate"
	internalsecrets "github.com/padelhub/storefront/internal/secrets"
	"github.com/padelhub/storefront/internal/session"
	"github.com/padelhub/storefront/internal/storefront"
	"github.com/padelhub/storefront/pkg/cache"
	"github.com/padelhub/storefront/pkg/config"
	"github.com/padelhub/storefront/pkg/logger"
	"github.com/padelhub/storefront/pkg/secrets"
	"github.com/padelhub/storefront/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.InitWithFile(cfg.ServiceName, cfg.Env, cfg.LogLevel, logger.FileSink{Path: cfg.LogFile})
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [storefront]...")

	if err := cfg.Validate(); err != nil {
		logg.Fatalw("invalid configuration", "error", err)
	}

	// --- Secrets overlay ---
	if cfg.SecretsProvider == "aws" {
		awsProvider, err := secrets.NewAWSProvider(ctx, cfg.AWSRegion)
		if err != nil {
			logg.Fatalw("failed to create AWS Secrets Manager provider", "error", err)
		}
		resolver := internalsecrets.NewResolver(
			logg.Desugar(),
			cfg.Env,
			awsProvider,
			cache.New[internalsecrets.BackendSettings](cfg.SecretsCacheTTL),
		)
		settings, err := resolver.Resolve(ctx, cfg.BackendSecretName, internalsecrets.ParseBackendSettings)
		if err != nil {
			logg.Fatalw("failed to resolve backend settings", "error", err)
		}
		cfg.BackendBaseURL = settings.BaseURL
		if settings.RedisPassword != "" {
			cfg.RedisPass = settings.RedisPassword
		}
	}
	logg.Info("catalog backend: ", utils.MaskDSN(cfg.BackendBaseURL))

	// --- Session store ---
	var store session.Store
	switch cfg.SessionStore {
	case "redis":
		rs, err := session.NewRedisStore(session.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		}, logg.Desugar())
		if err != nil {
			logg.Fatalw("failed to init session store", "error", err)
		}
		store = rs
	default:
		store = session.NewMemoryStore(cfg.SessionTTL, cfg.SessionSweep)
	}
	sessions := session.NewManager(store, cfg.SessionTTL, logg.Desugar())

	// --- Rate limiter ---
	rateMgr := rate.NewManager(rate.Config{
		RequestsPerSecond: cfg.RateRPS,
		Burst:             cfg.RateBurst,
		Cooldown:          1 * time.Second,
	})
	go rateMgr.StartCleaner(time.Minute, ctx.Done())

	// --- Backend HTTP client ---
	client := backend.NewClient(backend.Config{
		BaseURL:  cfg.BackendBaseURL,
		Timeout:  cfg.BackendTimeout,
		RetryMax: cfg.BackendRetryMax,
	}, rateMgr, logg.Desugar(), metrics.ObserveBackend)

	// --- Publisher (optional) ---
	var (
		nc  *nats.Conn
		pub publisher.Publisher = publisher.Nop{}
	)
	if cfg.NATSURL != "" {
		conn, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			logg.Fatalw("failed to connect to NATS", "error", err)
		}
		np, err := publisher.New(conn, cfg.NATSSubjectPrefix, cfg.ServiceName, logg.Desugar())
		if err != nil {
			logg.Fatalw("failed to init publisher", "error", err)
		}
		nc, pub = conn, np.WithTimeout(cfg.NATSPubTimeout)
	}

	// --- Storefront service ---
	formatter, err := pricing.NewFormatter(cfg.CurrencyLocales)
	if err != nil {
		logg.Fatalw("invalid CURRENCY_LOCALES", "error", err)
	}
	var printer export.PDFPrinter
	if p := export.NewChromePrinter(cfg.ChromePath, cfg.PDFTimeout); p != nil {
		printer = p
	}
	renderer := export.NewRenderer(formatter, printer, logg.Desugar())
	svc := storefront.NewService(client, renderer, pub, logg.Desugar())

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})

	handler := api.NewHandler(logg.Desugar(), client, svc, sessions, formatter, api.CookieConfig{
		Name:   cfg.CookieName,
		Secure: cfg.CookieSecure,
	}).WithRequestTimeout(cfg.RequestTimeout)
	api.RegisterRoutes(app, nc, handler)

	// Start HTTP server
	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("[storefront] running",
		"env", cfg.Env,
		"session_store", cfg.SessionStore,
		"nats", cfg.NATSURL != "",
		"pdf", printer != nil)

	<-ctx.Done()
	logg.Info("shutting down [storefront]...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
	if nc != nil {
		if err := nc.Drain(); err != nil {
			logg.Warnw("nats.drain_failed", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logg.Warnw("session_store.close_failed", "error", err)
	}
}
