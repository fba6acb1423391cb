package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// NewDB opens a pgx-backed *sql.DB and pings it. When lg is at debug level the
// connected server identity is logged.
func NewDB(ctx context.Context, dsn string, lg zerolog.Logger) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty DB DSN")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(60 * time.Minute)

	// fail fast
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if lg.GetLevel() <= zerolog.DebugLevel {
		var who, dbname, ver string
		_ = db.QueryRowContext(pingCtx, "SELECT current_user").Scan(&who)
		_ = db.QueryRowContext(pingCtx, "SELECT current_database()").Scan(&dbname)
		_ = db.QueryRowContext(pingCtx, "SHOW server_version").Scan(&ver)
		lg.Debug().Str("user", who).Str("db", dbname).Str("version", ver).Msg("db connected")
	}

	return db, nil
}
