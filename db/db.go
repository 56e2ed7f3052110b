package db

import (
	"context"
	"database/sql"
	"fmt"

	"finzora/api/logger"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const schema = `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		user_id    TEXT NOT NULL,
		id         TEXT NOT NULL,
		body       JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (collection, user_id, id)
	)
`

// Backend keeps every collection in a single JSONB documents table.
type Backend struct {
	DB *sql.DB
}

// Open connects to Postgres and makes sure the documents table exists.
func Open(dbURL string) (*Backend, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	conn, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error connecting to the database: %v", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error creating documents table: %v", err)
	}

	logger.Get().Info("successfully connected to Postgres")
	return &Backend{DB: conn}, nil
}

func (b *Backend) Name() string { return "postgres" }

func (b *Backend) Close(context.Context) error {
	if b.DB == nil {
		return nil
	}
	if err := b.DB.Close(); err != nil {
		logger.Get().Error("failed to close Postgres connection", zap.Error(err))
		return err
	}
	return nil
}
