package weatherstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/codify/internal/domain/forecast"
)

const uniqueViolation = "23505"

// Schema creates the daily_weather table. (date_id, cache_key) is the
// uniqueness constraint that Insert relies on.
const Schema = `
CREATE TABLE IF NOT EXISTS daily_weather (
	date_id                TEXT        NOT NULL,
	cache_key              TEXT        NOT NULL,
	region                 TEXT        NOT NULL DEFAULT '',
	min_temp               DOUBLE PRECISION,
	max_temp               DOUBLE PRECISION,
	precipitation_severity INTEGER     NOT NULL DEFAULT 0,
	issued_at              TIMESTAMPTZ NOT NULL,
	fetched_at             TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (date_id, cache_key)
)`

// PostgresStore implements forecast.Cache using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs the store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create daily_weather: %w", err)
	}
	return nil
}

// Get implements forecast.Cache.
func (s *PostgresStore) Get(ctx context.Context, dateID, key string) (forecast.DailyWeatherRecord, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT date_id, cache_key, region, min_temp, max_temp, precipitation_severity, issued_at, fetched_at
		FROM daily_weather
		WHERE date_id = $1 AND cache_key = $2
	`, dateID, key)
	var rec forecast.DailyWeatherRecord
	err := row.Scan(&rec.DateID, &rec.Key, &rec.Region, &rec.MinTemp, &rec.MaxTemp, &rec.PrecipitationSeverity, &rec.IssuedAt, &rec.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return forecast.DailyWeatherRecord{}, false, nil
	}
	if err != nil {
		return forecast.DailyWeatherRecord{}, false, err
	}
	return rec, true, nil
}

// Insert implements forecast.Cache.
func (s *PostgresStore) Insert(ctx context.Context, rec forecast.DailyWeatherRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO daily_weather (date_id, cache_key, region, min_temp, max_temp, precipitation_severity, issued_at, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, insertArgs(rec)...)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s/%s", forecast.ErrDuplicateRecord, rec.DateID, rec.Key)
	}
	return err
}

// UpsertAll implements forecast.Cache in a single transaction.
func (s *PostgresStore) UpsertAll(ctx context.Context, recs []forecast.DailyWeatherRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, rec := range recs {
		batch.Queue(`
			INSERT INTO daily_weather (date_id, cache_key, region, min_temp, max_temp, precipitation_severity, issued_at, fetched_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (date_id, cache_key) DO UPDATE SET
				region = EXCLUDED.region,
				min_temp = EXCLUDED.min_temp,
				max_temp = EXCLUDED.max_temp,
				precipitation_severity = EXCLUDED.precipitation_severity,
				issued_at = EXCLUDED.issued_at,
				fetched_at = EXCLUDED.fetched_at
		`, insertArgs(rec)...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert daily_weather: %w", err)
	}
	return tx.Commit(ctx)
}

func insertArgs(rec forecast.DailyWeatherRecord) []any {
	return []any{rec.DateID, rec.Key, rec.Region, rec.MinTemp, rec.MaxTemp, rec.PrecipitationSeverity, rec.IssuedAt, rec.FetchedAt}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ forecast.Cache = (*PostgresStore)(nil)
