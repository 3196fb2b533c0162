package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/AnshRaj112/mindcare-backend/internal/config"
)

// OpenSQL opens and pings a SQLite or PostgreSQL database. SQLite is limited
// to one connection so writers never hit SQLITE_BUSY.
func OpenSQL(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case config.DriverSQLite:
		db, err = sql.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
	case config.DriverPostgres:
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

func sqliteDSN(path string) string {
	switch {
	case path == "":
		return ":memory:"
	case path == ":memory:", strings.HasPrefix(path, "file:"):
		return path
	}
	if dir := filepath.Dir(path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// InitTables creates the schema if it does not exist yet.
func InitTables(ctx context.Context, db *sql.DB, driver string) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	realType := "REAL"
	if driver == config.DriverPostgres {
		idColumn = "BIGSERIAL PRIMARY KEY"
		realType = "DOUBLE PRECISION"
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id ` + idColumn + `,
			username VARCHAR(80) NOT NULL UNIQUE,
			email VARCHAR(120) NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL
		)`,

		// no foreign key on user_id; see ENFORCE_USER_EXISTS
		`CREATE TABLE IF NOT EXISTS conversations (
			id ` + idColumn + `,
			user_id BIGINT NOT NULL,
			message TEXT NOT NULL,
			response TEXT NOT NULL,
			sentiment_score ` + realType + `,
			timestamp TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS mood_entries (
			id ` + idColumn + `,
			user_id BIGINT NOT NULL,
			mood_level INTEGER NOT NULL,
			mood_description VARCHAR(100),
			notes TEXT,
			timestamp TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_conversations_user_ts ON conversations(user_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_mood_entries_user_ts ON mood_entries(user_id, timestamp)`,
	}

	for _, q := range queries {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("init tables: %w", err)
		}
	}
	return nil
}
