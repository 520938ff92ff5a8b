package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"contest_arena/internal/platform/config"
	"contest_arena/internal/platform/logger"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

var DB *sql.DB

func Connect(ctx context.Context) error {
	db, err := sql.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(config.AppConfig.DBMaxConns)
	db.SetMaxIdleConns(config.AppConfig.DBMaxConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return fmt.Errorf("connecting to database: %w", err)
	}

	DB = db
	logger.Info().Str("host", config.AppConfig.DBHost).Str("db", config.AppConfig.DBName).Msg("connected to PostgreSQL")
	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
		logger.Info().Msg("database connection closed")
	}
}
