package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/hangout/internal/auth"
	"github.com/mmynk/hangout/internal/config"
	"github.com/mmynk/hangout/internal/metrics"
	"github.com/mmynk/hangout/internal/notify"
	"github.com/mmynk/hangout/internal/storage"
	"github.com/mmynk/hangout/internal/storage/gormstore"
	"github.com/mmynk/hangout/internal/storage/sqlite"
	"github.com/mmynk/hangout/pkg/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	reg, m := metrics.NewRegistry()
	tr := notify.NewTranslator(cfg.Locale)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	notifyOpts := []notify.Option{
		notify.WithLocation(cfg.Location()),
		notify.WithLocale(cfg.Locale),
		notify.WithPublicURL(cfg.PublicURL),
		notify.WithMetrics(m),
		notify.WithLogger(logger),
	}

	mailer := newMailer(cfg, logger)
	announcers := notify.Announcers{notify.NewMailAnnouncer(store, mailer, tr, notifyOpts...)}
	if cfg.DiscordEnabled() {
		discord, err := notify.NewDiscordAnnouncer(cfg.DiscordBotToken, cfg.DiscordChannelID, tr, notifyOpts...)
		if err != nil {
			return err
		}
		announcers = append(announcers, discord)
		logger.Info("Discord announcements enabled", "channel_id", cfg.DiscordChannelID)
	}

	reminder := notify.NewReminder(store, mailer, tr, notifyOpts...)
	scheduler, err := notify.NewScheduler(cfg.ReminderCron, cfg.Location(), reminder, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	logger.Info("Reminder scheduler started", "spec", cfg.ReminderCron, "next", scheduler.Next())

	var google *auth.GoogleProvider
	if cfg.GoogleEnabled() {
		google = auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		logger.Info("Google sign-in enabled")
	}

	handler, err := newRouter(routerDeps{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		jwt:       jwtManager,
		google:    google,
		metrics:   m,
		registry:  reg,
		announcer: announcers,
		tr:        tr,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Addr(),
		// h2c serves HTTP/2 without TLS, which Connect clients use.
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", srv.Addr, "url", cfg.PublicURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		store, err := gormstore.OpenPostgres(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Storage initialized", "driver", "postgres")
		return store, nil
	default:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		logger.Info("Storage initialized", "driver", "sqlite", "database", cfg.DBPath)
		return store, nil
	}
}

func newMailer(cfg *config.Config, logger *slog.Logger) notify.Mailer {
	if !cfg.SMTPEnabled() {
		logger.Warn("SMTP not configured, emails will only be logged")
		return notify.LogMailer{Logger: logger}
	}
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}
