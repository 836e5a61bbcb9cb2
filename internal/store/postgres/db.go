package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"task_tracker/internal/apperr"
	"task_tracker/internal/config"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
)

const (
	Backend = "postgres"

	maxConnectRetries = 5
	uniqueViolation   = "23505"
)

// Init connects using the DB_* settings.
func Init(ctx context.Context, cfg *config.DBConfig) (*sql.DB, error) {
	return Connect(ctx, cfg.DSN())
}

// Connect opens a pgx-backed pool and pings it, retrying with a linear
// backoff while the server comes up.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	var db *sql.DB
	var err error

	for i := 0; i < maxConnectRetries; i++ {
		db, err = sql.Open("pgx", dsn)
		if err == nil {
			if err = db.PingContext(ctx); err == nil {
				break
			}
			if cerr := db.Close(); cerr != nil {
				logrus.WithError(cerr).Warn("Failed to close database connection")
			}
		}

		logrus.WithError(err).WithFields(logrus.Fields{
			"attempt":     i + 1,
			"max_retries": maxConnectRetries,
		}).Warn("Failed to connect to database")

		if i == maxConnectRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * time.Second):
		}
	}

	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to database after %d attempts: %w",
			apperr.ErrStoreUnavailable, maxConnectRetries, err)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logrus.Info("Database connection established successfully")
	return db, nil
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: postgres %s: %w", apperr.ErrStoreUnavailable, op, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
