package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sunapee-sound/community-backend/internal/config"
	"github.com/sunapee-sound/community-backend/internal/database"
	"github.com/sunapee-sound/community-backend/internal/logging"
)

// bootstrap loads configuration, builds the root logger and opens the
// database.  Every subcommand starts here.
func bootstrap() (config.Config, zerolog.Logger, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, zerolog.Nop(), nil, err
	}
	log := logging.New(cfg.Env, cfg.LogLevel)

	db, err := database.Open(database.Options{
		Driver: cfg.DBDriver,
		User:   cfg.DBUser,
		Pass:   cfg.DBPass,
		Host:   cfg.DBHost,
		Port:   cfg.DBPort,
		Name:   cfg.DBName,
		Path:   cfg.DBPath,
	})
	if err != nil {
		return cfg, log, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, log, db, nil
}

func migrate(db *sql.DB, driver string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return database.Migrate(ctx, db, driver)
}
