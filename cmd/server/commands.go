package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sunapee-sound/community-backend/internal/config"
	"github.com/sunapee-sound/community-backend/internal/logging"
	"github.com/sunapee-sound/community-backend/internal/model"
	"github.com/sunapee-sound/community-backend/internal/queue"
	"github.com/sunapee-sound/community-backend/internal/repository"
)

// NewMigrateCommand applies the embedded schema and exits.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrate(db, cfg.DBDriver); err != nil {
				return err
			}
			log.Info().Str("driver", cfg.DBDriver).Msg("schema applied")
			return nil
		},
	}
}

// NewConsumeCommand runs the audit consumer on its own.  It only needs
// RABBITMQ_URL, so it does not open the database.
func NewConsumeCommand() *cobra.Command {
	var logPath string
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Append audit events from RabbitMQ to the open-mic log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.RabbitURL == "" {
				return errors.New("RABBITMQ_URL is required")
			}
			log := logging.New(cfg.Env, cfg.LogLevel)

			ctx, stop := signal.NotifyContext(contextOrBackground(cmd.Context()), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c := queue.NewConsumer(cfg.RabbitURL, logging.Component(log, "consumer"))
			if logPath != "" {
				c.LogPath = logPath
			}
			log.Info().Str("queue", c.Queue).Str("file", c.LogPath).Msg("consuming audit events")
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logPath, "log-file", "", "override the audit log path")
	return cmd
}

// NewPromoteAdminCommand grants the admin role to an existing account.
func NewPromoteAdminCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "promote-admin <email>",
		Short: "Grant the admin role to a registered user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			email := strings.ToLower(strings.TrimSpace(args[0]))
			if err := repository.NewUserRepo(db).SetRole(ctx, email, model.RoleAdmin); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("no user with email %s", email)
				}
				return err
			}
			log.Info().Str("email", email).Msg("user promoted to admin")
			return nil
		},
	}
}
