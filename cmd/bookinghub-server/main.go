package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"bookinghub/backend/internal/auth"
	"bookinghub/backend/internal/bootstrap"
	"bookinghub/backend/internal/config"
	"bookinghub/backend/internal/monitoring"
	"bookinghub/backend/internal/notify"
	"bookinghub/backend/internal/service/appointments"
	"bookinghub/backend/internal/store/remote"
	"bookinghub/backend/internal/transport/rest"
)

const serviceName = "bookinghub-server"

func main() {
	log := bootstrap.NewLogger(os.Stdout, "info", serviceName)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = bootstrap.NewLogger(os.Stdout, cfg.LogLevel, serviceName)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("log_level", cfg.LogLevel),
		slog.String("provider", cfg.Provider),
		slog.String("storage_driver", cfg.StorageDriver),
	)

	loc, err := cfg.Location()
	if err != nil {
		log.Error("timezone load failed", slog.Any("err", err), slog.String("timezone", cfg.Timezone))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, closeProvider, err := bootstrap.NewProvider(ctx, cfg, remote.StaticToken(cfg.RemoteToken), log)
	if err != nil {
		log.Error("storage setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := closeProvider(); err != nil {
			log.Warn("storage close failed", slog.Any("err", err))
		}
	}()

	svc := appointments.NewService(provider, appointments.WithLocation(loc))
	metrics := monitoring.New()

	authenticator, err := newAuthenticator(cfg)
	if err != nil {
		log.Error("auth setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	if !authenticator.Enabled() {
		log.Warn("auth.jwt_secret not set, API is unauthenticated")
	}

	mailer, err := notify.NewResendMailer(notify.ResendConfig{
		APIKey:  cfg.ResendAPIKey,
		From:    cfg.EmailFrom,
		APIURL:  cfg.EmailAPIURL,
		Timeout: cfg.EmailTimeout,
	}, notify.WithResendLogger(log))
	if err != nil {
		log.Error("mailer setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	if mailer.TestMode() {
		log.Warn("resend api key not configured, emails run in test mode")
	}

	notifiers := []notify.Notifier{mailer}
	if len(cfg.KafkaBrokers) > 0 {
		notifiers = append(notifiers, notify.NewKafkaPublisher(notify.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		}))
		log.Info("kafka event stream enabled", slog.Any("brokers", cfg.KafkaBrokers), slog.String("topic", cfg.KafkaTopic))
	}
	dispatcher := notify.NewDispatcher(notifiers,
		notify.WithLogger(log),
		notify.WithMetrics(metrics),
		notify.WithTimeout(cfg.EmailTimeout),
	)

	gin.SetMode(gin.ReleaseMode)
	api := rest.NewServer(rest.Deps{
		Appointments:   svc,
		Auth:           authenticator,
		Notifier:       dispatcher,
		Email:          mailer,
		Metrics:        metrics,
		LoginLimiter:   rest.NewRateLimiter(ctx, cfg.LoginRPS, cfg.LoginBurst),
		RequestTimeout: cfg.HTTPRequestTimeout,
		Log:            log,
	})

	httpServer := &http.Server{
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Error("http listen failed", slog.Any("err", err), slog.String("http_addr", cfg.HTTPAddr))
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(lis)
	}()

	log.Info("http server started", slog.String("http_addr", lis.Addr().String()))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, httpServer, dispatcher, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func newAuthenticator(cfg config.Config) (*auth.Authenticator, error) {
	hash := cfg.AdminPasswordHash
	if hash == "" && cfg.JWTSecret != "" {
		var err error
		hash, err = auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			return nil, err
		}
	}
	return auth.New(auth.Config{
		AdminEmail:   cfg.AdminEmail,
		PasswordHash: hash,
		JWTSecret:    cfg.JWTSecret,
		TokenTTL:     cfg.TokenTTL,
	}), nil
}

func shutdown(log *slog.Logger, s *http.Server, d *notify.Dispatcher, timeout time.Duration) {
	log.Info("shutting down http server", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown timed out; forcing stop", slog.Any("err", err))
		_ = s.Close()
	} else {
		log.Info("http server stopped")
	}

	if err := d.Close(ctx); err != nil {
		log.Warn("pending notifications not delivered", slog.Any("err", err))
	}
}
