package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	config "github.com/maheshrc27/postr/configs"
)

// Open returns a postgres pool sized from cfg. It does not ping.
func Open(cfg config.Config) (*sql.DB, error) {
	if cfg.PostgresURI == "" {
		return nil, fmt.Errorf("POSTGRES_URI environment variable is required")
	}
	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	maxOpen := cfg.DBMaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 20
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}
