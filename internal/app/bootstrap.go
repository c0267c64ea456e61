package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/turfease/platform/internal/auth"
	"github.com/turfease/platform/internal/dependencies/clock"
	"github.com/turfease/platform/internal/dependencies/random"
	"github.com/turfease/platform/internal/guard"
	"github.com/turfease/platform/internal/infra"
	"github.com/turfease/platform/internal/notify"
	"github.com/turfease/platform/internal/otp"
	"github.com/turfease/platform/internal/provider"
	"github.com/turfease/platform/internal/repository"
	"github.com/turfease/platform/internal/repository/memory"
)

// Runtime is a fully wired application plus the resources it owns.
type Runtime struct {
	Config   *infra.Config
	Services *Services
	JWT      *auth.JWTManager
	Outbox   repository.OutboxRepository
	Health   map[string]infra.Pinger
	Logger   *slog.Logger

	closers []func()
}

// Close releases every resource in reverse order of acquisition.
func (rt *Runtime) Close() {
	if rt.Services != nil {
		rt.Services.Wait()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// Bootstrap connects the configured stores and builds the services.
func Bootstrap(ctx context.Context, cfg *infra.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{
		Config: cfg,
		JWT:    auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry),
		Health: map[string]infra.Pinger{},
		Logger: logger,
	}
	clk := clock.New()

	var accounts repository.AccountRepository
	var turfs repository.TurfRepository
	switch cfg.StoreDriver {
	case "memory":
		accounts = memory.NewAccountRepository()
		turfs = memory.NewTurfRepository()
		rt.Outbox = memory.NewOutboxRepository()
		logger.Warn("using in-memory store; data is lost on restart")
	default:
		pool, err := infra.NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		rt.Health["postgres"] = pool
		accounts = repository.NewPgAccountRepository(pool)
		turfs = repository.NewPgTurfRepository(pool)
		rt.Outbox = repository.NewPgOutboxRepository(pool)
		logger.Info("connected to postgres")
	}

	var codes otp.Store
	switch cfg.OTPStore {
	case "memory":
		codes = otp.NewMemoryStore()
	default:
		client, err := infra.NewRedisClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		rt.closers = append(rt.closers, func() { client.Close() })
		rt.Health["redis"] = infra.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
		codes = otp.NewRedisStore(client)
	}

	var notifier notify.Notifier
	if cfg.SMTPHost != "" {
		breaker := guard.NewCircuitBreaker(5, 30*time.Second).WithClock(clk)
		notifier = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.ExternalTimeout,
		}, breaker, logger)
	} else {
		logger.Warn("SMTP_HOST not set; emails are logged instead of sent")
		notifier = notify.NewLogNotifier(logger)
	}

	rt.Services = NewServices(ServiceDeps{
		Accounts: accounts,
		Turfs:    turfs,
		Outbox:   rt.Outbox,
		Codes:    codes,
		Notifier: notifier,
		Identity: provider.NewFirebaseVerifier(cfg.FirebaseProjectID, cfg.FirebaseCertsURL, cfg.ExternalTimeout, clk, logger),
		Media: provider.NewCloudinaryClient(provider.CloudinaryConfig{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Timeout:   cfg.ExternalTimeout,
		}, clk, logger),
		JWT:             rt.JWT,
		Clock:           clk,
		Random:          random.New(),
		OTPLength:       cfg.OTPLength,
		OTPTTL:          cfg.OTPTTL,
		ResetTokenTTL:   cfg.ResetTokenTTL,
		FrontendURL:     cfg.FrontendURL,
		ExternalTimeout: cfg.ExternalTimeout,
		Logger:          logger,
	})
	return rt, nil
}
