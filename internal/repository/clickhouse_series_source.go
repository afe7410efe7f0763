package repository

import (
	"context"
	"database/sql"
	"fmt"

	"GrowthSim/internal/domain/models"
	pkgch "GrowthSim/pkg/clickhouse"
	applogger "GrowthSim/pkg/logger"
)

// CHSeriesSource replays a previously loaded series from ClickHouse in
// temporal order. Rows carry an explicit ordinal so replay order never
// depends on the interval label format.
type CHSeriesSource struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewCHSeriesSource(ch *pkgch.Client, l *applogger.Logger) *CHSeriesSource {
	return &CHSeriesSource{client: ch, db: ch.DB(), l: l}
}

var seriesSchemaStatements = []string{
	`CREATE DATABASE IF NOT EXISTS growthsim`,
	`CREATE TABLE IF NOT EXISTS growthsim.series (
        ord      UInt64,
        interval String,
        symbol   String,
        value    Float64
    ) ENGINE = MergeTree() ORDER BY ord`,
}

// Init ensures the series table exists (idempotent).
func (s *CHSeriesSource) Init(ctx context.Context) error {
	if err := s.client.InitSchema(ctx, seriesSchemaStatements); err != nil {
		return fmt.Errorf("series source init: %w", err)
	}
	return nil
}

// Load appends observations to the stored series, continuing the ordinal
// sequence from the current maximum.
func (s *CHSeriesSource) Load(ctx context.Context, observations []models.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	var next uint64
	if err := s.db.QueryRowContext(ctx,
		`SELECT coalesce(max(ord), 0) FROM growthsim.series`).Scan(&next); err != nil {
		return fmt.Errorf("series max ordinal: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin series batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO growthsim.series (ord, interval, symbol, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare series batch: %w", err)
	}
	defer stmt.Close()

	for _, o := range observations {
		next++
		if _, err := stmt.ExecContext(ctx, next, o.Interval, o.Symbol, o.Value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append series row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit series batch: %w", err)
	}
	return nil
}

// Read streams the stored series. Rows with a non-positive value are skipped
// the same way the file reader rejects them.
func (s *CHSeriesSource) Read(ctx context.Context) (<-chan models.Observation, <-chan error) {
	out := make(chan models.Observation)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		rows, err := s.db.QueryContext(ctx,
			`SELECT interval, symbol, value FROM growthsim.series ORDER BY ord`)
		if err != nil {
			errs <- fmt.Errorf("query series: %w", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var o models.Observation
			if err := rows.Scan(&o.Interval, &o.Symbol, &o.Value); err != nil {
				errs <- fmt.Errorf("scan series row: %w", err)
				return
			}
			if o.Value <= 0 {
				if s.l != nil {
					s.l.Warn("series row rejected",
						applogger.String("interval", o.Interval),
						applogger.String("symbol", o.Symbol))
				}
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- o:
			}
		}
		if err := rows.Err(); err != nil {
			errs <- fmt.Errorf("series rows: %w", err)
		}
	}()

	return out, errs
}

// Close is a no-op; the ClickHouse client is owned by the application.
func (s *CHSeriesSource) Close() error { return nil }
