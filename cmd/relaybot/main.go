// Command relaybot runs the channel relay bot: it registers posts of the
// source channel under numeric codes and hands them out, without provenance
// and for a short time, to users who ask for a code.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-relay-bot/internal/bot"
	"github.com/tbourn/go-relay-bot/internal/config"
	httpapi "github.com/tbourn/go-relay-bot/internal/http"
	"github.com/tbourn/go-relay-bot/internal/http/handlers"
	"github.com/tbourn/go-relay-bot/internal/legacyimport"
	"github.com/tbourn/go-relay-bot/internal/observability"
	"github.com/tbourn/go-relay-bot/internal/ratelimit"
	"github.com/tbourn/go-relay-bot/internal/repo"
	"github.com/tbourn/go-relay-bot/internal/services"
	"github.com/tbourn/go-relay-bot/internal/sysutil"
	"github.com/tbourn/go-relay-bot/internal/telegram"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	shutdownTimeout = 30 * time.Second
	claimPurgeEvery = time.Hour
)

func main() {
	// A missing .env is normal in containers.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		sysutil.SetupLogger(os.Stderr, "info", false)
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("relaybot stopped")
	}
	log.Info().Msg("relaybot stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	client := telegram.New(cfg.BotToken,
		telegram.WithBaseURL(cfg.APIBaseURL),
		telegram.WithRateLimit(cfg.TelegramRPS, cfg.TelegramBurst),
	)
	transport := telegram.NewTransport(client)

	names := services.NewNameCache(transport.Username, cfg.BotName)
	if name := names.Get(ctx); name != "" {
		log.Info().Str("bot", name).Msg("bot identity resolved")
	}
	texts := services.NewTexts(cfg.Language, cfg.BotName, cfg.PromoLink)
	scheduler := services.NewScheduler(transport)
	registry := services.NewPostRegistry(db)

	claims := &bot.DBClaims{DB: db, TTL: cfg.DedupeTTL}
	go claims.PurgeLoop(ctx, claimPurgeEvery)

	dispatcher := &bot.Dispatcher{
		Ingestor: &services.Ingestor{
			Allocator:  services.NewSequenceAllocator(db),
			Registry:   registry,
			Transport:  transport,
			Names:      names,
			Texts:      texts,
			OperatorID: cfg.AdminID,
			SourceRef:  cfg.SourceChannel,
		},
		Delivery: &services.Deliverer{
			Registry:  registry,
			Transport: transport,
			Expiry:    scheduler,
			Texts:     texts,
		},
		Source:   bot.ParseSource(cfg.SourceChannel),
		Claims:   claims,
		Throttle: ratelimit.NewKeyed(cfg.RequestRPS, cfg.RequestBurst),
	}

	srv, ops := startOpsServer(cfg, db, dispatcher)

	var runErr error
	switch cfg.UpdateMode {
	case config.ModeWebhook:
		if err := client.SetWebhook(ctx, cfg.WebhookURL, cfg.WebhookSecret); err != nil {
			runErr = err
			break
		}
		log.Info().Str("url", cfg.WebhookURL).Msg("webhook registered")
		<-ctx.Done()
	default:
		if err := client.DeleteWebhook(ctx); err != nil {
			log.Warn().Err(err).Msg("deleteWebhook failed; polling may be refused")
		}
		log.Info().Dur("timeout", cfg.PollTimeout).Msg("polling for updates")
		poller := &telegram.Poller{Client: client, Timeout: cfg.PollTimeout, Handler: dispatcher.Handle}
		if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			runErr = err
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("ops server shutdown")
		}
		// Webhook updates still in flight may schedule deletions.
		if err := ops.Drain(sctx); err != nil {
			log.Warn().Err(err).Msg("webhook updates still running")
		}
	}
	// Pending deletions are flushed now instead of being dropped.
	if err := scheduler.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("expiry flush incomplete")
	}
	return runErr
}

// openStore opens the database, migrates it and consumes the legacy import
// file if one is present.
func openStore(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	dsn := cfg.DBName
	if cfg.DBDriver == config.DriverPostgres {
		dsn = cfg.DatabaseURL
	}
	db, err := repo.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, err
	}
	if err := repo.EnsureSequence(ctx, db); err != nil {
		return nil, err
	}
	if cfg.ImportFile != "" {
		imported, err := legacyimport.RunOnce(ctx, db, cfg.ImportFile)
		if err != nil {
			return nil, err
		}
		if imported {
			log.Info().Str("file", cfg.ImportFile).Msg("legacy data imported")
		}
	}
	return db, nil
}

// startOpsServer serves health, metrics, registry lookups and (in webhook
// mode) the update endpoint. It returns nils when OPS_ADDR is empty.
func startOpsServer(cfg config.Config, db *gorm.DB, d *bot.Dispatcher) (*http.Server, *handlers.Handlers) {
	if cfg.OpsAddr == "" {
		return nil, nil
	}
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	h := httpapi.RegisterRoutes(r, db, d, cfg)

	srv := &http.Server{
		Addr:              cfg.OpsAddr,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
	go func() {
		log.Info().Str("addr", cfg.OpsAddr).Msg("ops server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ops server failed")
		}
	}()
	return srv, h
}
