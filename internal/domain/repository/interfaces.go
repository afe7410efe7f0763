package repository

import (
	"context"

	"GrowthSim/internal/domain/models"
)

// ObservationSource streams a closed, already-observed series in temporal
// order. The observation channel is closed when the series is exhausted.
type ObservationSource interface {
	Read(ctx context.Context) (<-chan models.Observation, <-chan error)
	Close() error
}

// Publisher ships each interval's snapshot to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, s *models.Snapshot) error
	Close() error
}

// SnapshotStore persists per-interval snapshots and instrument statistics.
type SnapshotStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreSnapshot(ctx context.Context, s *models.Snapshot) error
	StoreInstruments(ctx context.Context, interval string, reports []models.InstrumentReport) error
	Snapshots(ctx context.Context, limit int) ([]*models.Snapshot, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// Broadcaster pushes snapshots to connected streaming clients.
type Broadcaster interface {
	Broadcast(s *models.Snapshot)
}

// ReportCache keeps the latest rendered report for the HTTP surface.
type ReportCache interface {
	SetLatest(ctx context.Context, s *models.Snapshot) error
	Latest(ctx context.Context) (*models.Snapshot, bool)
}

// Metrics is the simulation's observability surface.
type Metrics interface {
	RecordInterval(seconds float64)
	RecordInstruments(count int)
	RecordHoldings(count int)
	RecordPortfolioValue(v float64)
	RecordIndexValue(v float64)
	RecordError(kind string)
}
