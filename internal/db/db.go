// internal/db/db.go
package db

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

// Connect opens a Postgres connection and verifies it with a ping.
func Connect(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	if err = conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return conn, nil
}

// DSNFromEnv builds a connection string from the DB_* environment variables,
// unless DATABASE_URL is set, which wins.
func DSNFromEnv() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, pass, host, port, name,
	)
}

// EnsureSchema creates the sent_mails table if it does not exist yet.
func EnsureSchema(conn *sql.DB) error {
	schema := `
        CREATE TABLE IF NOT EXISTS sent_mails (
            id SERIAL PRIMARY KEY,
            recipient TEXT NOT NULL,
            subject TEXT NOT NULL,
            body TEXT NOT NULL,
            batch INT NOT NULL,
            seq INT NOT NULL,
            sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_sent_mails_recipient_subject
            ON sent_mails (recipient, subject);
        CREATE INDEX IF NOT EXISTS idx_sent_mails_batch_seq
            ON sent_mails (batch, seq);
    `
	_, err := conn.Exec(schema)
	return err
}
