package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sunapee-sound/community-backend/internal/config"
	"github.com/sunapee-sound/community-backend/internal/handler"
	"github.com/sunapee-sound/community-backend/internal/lock"
	"github.com/sunapee-sound/community-backend/internal/logging"
	"github.com/sunapee-sound/community-backend/internal/notify"
	"github.com/sunapee-sound/community-backend/internal/queue"
	"github.com/sunapee-sound/community-backend/internal/repository"
	"github.com/sunapee-sound/community-backend/internal/router"
	"github.com/sunapee-sound/community-backend/internal/service"
)

// NewServeCommand runs the HTTP API.
func NewServeCommand() *cobra.Command {
	var (
		autoMigrate bool
		consume     bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), autoMigrate, consume)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", true, "apply the schema before serving")
	cmd.Flags().BoolVar(&consume, "consume", false, "also run the audit log consumer in-process")
	return cmd
}

func runServe(parent context.Context, autoMigrate, consume bool) error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()

	if autoMigrate {
		if err := migrate(db, cfg.DBDriver); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(contextOrBackground(parent), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn().Msg("redis unavailable: rate limiting, caching and signup locks disabled")
	} else {
		defer rdb.Close()
	}

	var audit queue.Sink = queue.NopSink{}
	if cfg.RabbitURL != "" {
		audit = queue.NewPublisher(cfg.RabbitURL, logging.Component(log, "audit"))
		if consume {
			c := queue.NewConsumer(cfg.RabbitURL, logging.Component(log, "consumer"))
			go func() {
				if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("audit consumer stopped")
				}
			}()
		}
	} else {
		log.Info().Msg("RABBITMQ_URL not set: audit events disabled")
	}

	users := repository.NewUserRepo(db)
	signups := repository.NewSignupRepo(db)
	deliveries := repository.NewDeliveryLogRepo(db)

	dispatcher := notify.NewDispatcher(mailer(cfg), smsSender(cfg), deliveries, audit, logging.Component(log, "notify"))
	if !cfg.Email.Enabled() {
		log.Warn().Msg("email not configured: confirmation emails disabled")
	}
	if !cfg.SMS.Enabled() {
		log.Warn().Msg("twilio not configured: SMS disabled")
	}

	scheduler := service.NewScheduler(signups, dispatcher,
		service.WithLocker(lock.NewRedisLocker(rdb, "lock:openmic")),
		service.WithAudit(audit),
		service.WithLogger(logging.Component(log, "openmic")),
	)

	e := router.New(router.Deps{
		Cfg:         cfg,
		RateLimit:   config.LoadRateLimitConfig(),
		SignupLimit: config.LoadSignupRateLimitConfig(),
		Cache:       config.LoadCacheConfig(),
		Redis:       rdb,
		Users:       users,
		Log:         logging.Component(log, "http"),

		Auth:        handler.NewAuthHandler(cfg, users, logging.Component(log, "auth")),
		OpenMic:     handler.NewOpenMicHandler(scheduler, logging.Component(log, "openmic")),
		Events:      handler.NewEventHandler(repository.NewEventRepo(db), logging.Component(log, "events")),
		Subscribers: handler.NewSubscriberHandler(repository.NewSubscriberRepo(db), dispatcher, logging.Component(log, "subscribers")),
		Videos:      handler.NewVideoHandler(repository.NewVideoRepo(db), logging.Component(log, "videos")),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("db", cfg.DBDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	// drain confirmations and welcome messages still in flight
	scheduler.Wait()
	dispatcher.Wait()
	return nil
}

func mailer(cfg config.Config) notify.Mailer {
	if !cfg.Email.Enabled() {
		return notify.DisabledMailer{}
	}
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		User:     cfg.Email.User,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		FromName: cfg.Email.FromName,
	})
}

func smsSender(cfg config.Config) notify.SMSSender {
	if !cfg.SMS.Enabled() {
		return notify.DisabledSMS{}
	}
	return notify.NewTwilioSender(notify.TwilioConfig{
		AccountSID: cfg.SMS.AccountSID,
		AuthToken:  cfg.SMS.AuthToken,
		From:       cfg.SMS.From,
		BaseURL:    cfg.SMS.BaseURL,
	}, nil)
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
