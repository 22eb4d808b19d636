package store

//nolint:revive
import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"otasync/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	postgresMaxIdleConnection = 5
	postgresMaxOpenConnection = 5
)

// DSN builds the postgres connection URL from config.
func DSN(cfg *config.Config) string {
	pg := cfg.DB.Postgres

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(pg.Username, pg.Password),
		Host:     net.JoinHostPort(pg.Host, pg.Port),
		Path:     "/" + pg.Name,
		RawQuery: "sslmode=" + url.QueryEscape(pg.SSLMode),
	}

	return u.String()
}

// Connect opens the database, retrying MaxRetry times RetryWaitTime seconds apart.
func Connect(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	pg := cfg.DB.Postgres
	attempts := max(pg.MaxRetry, 1)

	var err error
	for retry := range attempts {
		var db *sqlx.DB

		db, err = sqlx.ConnectContext(ctx, "postgres", DSN(cfg))
		if err == nil {
			log.
				Info().
				Str("host", pg.Host).
				Str("port", pg.Port).
				Str("dbName", pg.Name).
				Msg("Connected to database")
			db.SetMaxIdleConns(postgresMaxIdleConnection)
			db.SetMaxOpenConns(postgresMaxOpenConnection)

			return db, nil
		}

		log.
			Error().
			Err(err).
			Str("host", pg.Host).
			Str("port", pg.Port).
			Str("dbName", pg.Name).
			Int("attempt", retry+1).
			Msg("Failed connecting to database, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(pg.RetryWaitTime) * time.Second):
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, err)
}
