package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"GrowthSim/internal/domain/models"
	pkgch "GrowthSim/pkg/clickhouse"
	applogger "GrowthSim/pkg/logger"
)

// CHSnapshotStore persists per-interval snapshots and instrument statistics
// in ClickHouse.
type CHSnapshotStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewCHSnapshotStore(ch *pkgch.Client) *CHSnapshotStore {
	return &CHSnapshotStore{client: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSnapshotStore) SetLogger(l *applogger.Logger) { s.l = l }

var schemaStatements = []string{
	`CREATE DATABASE IF NOT EXISTS growthsim`,
	`CREATE TABLE IF NOT EXISTS growthsim.snapshots (
        seq          UInt64,
        interval     String,
        cash         Float64,
        total_value  Float64,
        index_value  Float64,
        instruments  UInt32,
        holdings     UInt32,
        avg_p        Float64,
        rms_p        Float64,
        gp           Float64,
        margin       Float64,
        payload      String,
        created_at   DateTime DEFAULT now()
    ) ENGINE = MergeTree() ORDER BY seq`,
	`CREATE TABLE IF NOT EXISTS growthsim.instrument_stats (
        interval     String,
        symbol       String,
        value        Float64,
        sample_count UInt32,
        avg          Float64,
        rms          Float64,
        par          Float64,
        pconfar      Float64,
        peffar       Float64,
        pcomp        Float64,
        pt           Float64,
        pp           Float64,
        decision     Float64,
        fraction     Float64,
        held         UInt8,
        created_at   DateTime DEFAULT now()
    ) ENGINE = MergeTree() ORDER BY (interval, symbol)`,
}

// Init ensures database and tables exist (idempotent).
func (s *CHSnapshotStore) Init(ctx context.Context) error {
	if err := s.client.InitSchema(ctx, schemaStatements); err != nil {
		return fmt.Errorf("snapshot store init: %w", err)
	}
	return nil
}

func (s *CHSnapshotStore) StoreSnapshot(ctx context.Context, snap *models.Snapshot) error {
	start := time.Now()
	payload, err := json.Marshal(snap.Portfolio.Holdings)
	if err != nil {
		return fmt.Errorf("marshal holdings: %w", err)
	}

	const q = `
        INSERT INTO growthsim.snapshots
        (seq, interval, cash, total_value, index_value, instruments, holdings,
         avg_p, rms_p, gp, margin, payload)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = s.db.ExecContext(ctx, q,
		uint64(snap.Sequence), snap.Interval, snap.Cash, snap.TotalValue,
		snap.IndexValue, uint32(snap.Instruments), uint32(len(snap.Portfolio.Holdings)),
		snap.Portfolio.AvgP, snap.Portfolio.RmsP, snap.Portfolio.Gp,
		snap.Portfolio.MarginReciprocal, string(payload))
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store_snapshot error",
				applogger.String("interval", snap.Interval),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store snapshot: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse store_snapshot ok",
			applogger.String("interval", snap.Interval),
			applogger.Int("holdings", len(snap.Portfolio.Holdings)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHSnapshotStore) StoreInstruments(ctx context.Context, interval string, reports []models.InstrumentReport) error {
	if len(reports) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin instrument batch: %w", err)
	}
	const q = `
        INSERT INTO growthsim.instrument_stats
        (interval, symbol, value, sample_count, avg, rms, par, pconfar, peffar,
         pcomp, pt, pp, decision, fraction, held)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare instrument batch: %w", err)
	}
	defer stmt.Close()

	for _, r := range reports {
		held := uint8(0)
		if r.Held {
			held = 1
		}
		if _, err := stmt.ExecContext(ctx, interval, r.Symbol, r.Value,
			uint32(r.SampleCount), r.Avg, r.RMS, r.Par, r.Pconfar, r.Peffar,
			r.Pcomp, r.Pt, r.Pp, r.Decision, r.Fraction, held); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append instrument row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit instrument batch: %w", err)
	}

	if s.l != nil {
		s.l.Debug("clickhouse store_instruments ok",
			applogger.String("interval", interval),
			applogger.Int("rows", len(reports)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// Snapshots returns the most recent snapshots in ascending sequence order.
func (s *CHSnapshotStore) Snapshots(ctx context.Context, limit int) ([]*models.Snapshot, error) {
	const q = `
        SELECT seq, interval, cash, total_value, index_value, instruments,
               avg_p, rms_p, gp, margin, payload
        FROM growthsim.snapshots
        ORDER BY seq DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Snapshot, 0, limit)
	for rows.Next() {
		var (
			snap    models.Snapshot
			seq     uint64
			count   uint32
			payload string
		)
		if err := rows.Scan(&seq, &snap.Interval, &snap.Cash, &snap.TotalValue,
			&snap.IndexValue, &count, &snap.Portfolio.AvgP, &snap.Portfolio.RmsP,
			&snap.Portfolio.Gp, &snap.Portfolio.MarginReciprocal, &payload); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Sequence = int(seq)
		snap.Instruments = int(count)
		if err := json.Unmarshal([]byte(payload), &snap.Portfolio.Holdings); err != nil {
			return nil, fmt.Errorf("unmarshal holdings: %w", err)
		}
		out = append(out, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *CHSnapshotStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *CHSnapshotStore) Close() error {
	return s.client.Close()
}
