package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GrowthSim/internal/domain/models"
	drepo "GrowthSim/internal/domain/repository"
	"GrowthSim/internal/services/decision"
	"GrowthSim/internal/services/portfolio"
	"GrowthSim/internal/services/stats"
	"GrowthSim/pkg/logger"
)

type stubMetrics struct{}

func (stubMetrics) RecordInterval(float64)       {}
func (stubMetrics) RecordInstruments(int)        {}
func (stubMetrics) RecordHoldings(int)           {}
func (stubMetrics) RecordPortfolioValue(float64) {}
func (stubMetrics) RecordIndexValue(float64)     {}
func (stubMetrics) RecordError(string)           {}

type recordingStore struct {
	snaps   []*models.Snapshot
	reports [][]models.InstrumentReport
}

func (r *recordingStore) Init(context.Context) error { return nil }
func (r *recordingStore) StoreSnapshot(_ context.Context, s *models.Snapshot) error {
	r.snaps = append(r.snaps, s)
	return nil
}
func (r *recordingStore) StoreInstruments(_ context.Context, _ string, reports []models.InstrumentReport) error {
	r.reports = append(r.reports, reports)
	return nil
}
func (r *recordingStore) Snapshots(context.Context, int) ([]*models.Snapshot, error) {
	return r.snaps, nil
}
func (r *recordingStore) Health(context.Context) error { return nil }
func (r *recordingStore) Close() error                 { return nil }

type recordingHub struct{ snaps []*models.Snapshot }

func (r *recordingHub) Broadcast(s *models.Snapshot) { r.snaps = append(r.snaps, s) }

type stubSource struct{ obs []models.Observation }

func (s *stubSource) Read(context.Context) (<-chan models.Observation, <-chan error) {
	ch := make(chan models.Observation, len(s.obs))
	for _, o := range s.obs {
		ch <- o
	}
	close(ch)
	errs := make(chan error)
	close(errs)
	return ch, errs
}

func (s *stubSource) Close() error { return nil }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func newTestSimulator(t *testing.T, store *recordingStore, hub *recordingHub) *Simulator {
	t.Helper()
	reg := models.NewRegistry(models.InstrumentConfig{Method: models.MethodAvgRMS})
	// Avoid handing NewSimulator a typed-nil *recordingHub: the simulator's
	// nil-check on the Broadcaster interface would not catch it.
	var broadcaster drepo.Broadcaster
	if hub != nil {
		broadcaster = hub
	}
	return NewSimulator(
		SimulatorConfig{InitialCapital: 1000},
		reg,
		stats.NewTracker(),
		decision.NewEngine(1),
		portfolio.NewConstructor(portfolio.Config{MinHoldings: 1, MaxHoldings: 10}),
		nil,
		store,
		broadcaster,
		nil,
		stubMetrics{},
		testLogger(t),
	)
}

func obs(interval, symbol string, value float64) models.Observation {
	return models.Observation{Interval: interval, Symbol: symbol, Value: value}
}

func TestObserveClosesIntervalOnLabelChange(t *testing.T) {
	store := &recordingStore{}
	sim := newTestSimulator(t, store, nil)
	ctx := context.Background()

	sim.Observe(ctx, obs("1", "AAA", 100))
	sim.Observe(ctx, obs("1", "BBB", 50))
	require.Empty(t, store.snaps)

	sim.Observe(ctx, obs("2", "AAA", 101))
	require.Len(t, store.snaps, 1)
	assert.Equal(t, "1", store.snaps[0].Interval)
	assert.Equal(t, 0, store.snaps[0].Sequence)
	assert.Equal(t, 2, store.snaps[0].Instruments)
}

func TestObserveDuplicatesLastWins(t *testing.T) {
	sim := newTestSimulator(t, &recordingStore{}, nil)
	ctx := context.Background()

	sim.Observe(ctx, obs("1", "AAA", 100))
	sim.Observe(ctx, obs("1", "AAA", 105))
	sim.Observe(ctx, obs("1", "AAA", 102))
	sim.CloseInterval(ctx)

	in := sim.registry.Get("AAA")
	require.NotNil(t, in)
	assert.Equal(t, 102.0, in.CurrentValue)
	assert.Equal(t, 1, in.TransactionCount)
}

func TestMissingObservationIsZeroChange(t *testing.T) {
	sim := newTestSimulator(t, &recordingStore{}, nil)
	ctx := context.Background()

	sim.Observe(ctx, obs("1", "AAA", 100))
	sim.Observe(ctx, obs("1", "BBB", 50))
	sim.Observe(ctx, obs("2", "AAA", 101))
	sim.Observe(ctx, obs("3", "AAA", 102))
	sim.CloseInterval(ctx)

	bbb := sim.registry.Get("BBB")
	require.NotNil(t, bbb)
	assert.Equal(t, 50.0, bbb.CurrentValue)
	// The count advances every interval whether or not a fresh observation
	// arrived.
	assert.Equal(t, 3, bbb.TransactionCount)
	assert.Zero(t, bbb.UpdatedStreak)
}

func TestCloseIntervalWithoutOpenIsNoop(t *testing.T) {
	store := &recordingStore{}
	sim := newTestSimulator(t, store, nil)
	sim.CloseInterval(context.Background())
	assert.Empty(t, store.snaps)
}

func TestRunDrivesFullPipeline(t *testing.T) {
	store := &recordingStore{}
	hub := &recordingHub{}
	sim := newTestSimulator(t, store, hub)

	// Noisy but net-upward series; a perfectly steady growth rate would
	// drive avg/rms to 1 and exclude the instrument from scoring.
	src := &stubSource{}
	a, b := 100.0, 50.0
	for i := 1; i <= 12; i++ {
		interval := string(rune('A' + i - 1))
		if i%2 == 1 {
			a *= 1.03
			b *= 1.02
		} else {
			a *= 0.995
			b *= 0.999
		}
		src.obs = append(src.obs,
			obs(interval, "AAA", a),
			obs(interval, "BBB", b),
		)
	}

	require.NoError(t, sim.Run(context.Background(), src))

	require.Len(t, store.snaps, 12)
	require.Len(t, hub.snaps, 12)
	last := store.snaps[11]

	// Steady growth in every instrument: the portfolio ends up invested and
	// ahead of its initial capital, and the implied index is above par.
	assert.NotEmpty(t, last.Portfolio.Holdings)
	assert.Greater(t, last.TotalValue, 1000.0)
	assert.Greater(t, last.IndexValue, 1.0)

	// Capital is conserved at the rebalance instant.
	committed := 0.0
	for _, h := range last.Portfolio.Holdings {
		committed += h.Capital
	}
	assert.InDelta(t, last.TotalValue, last.Cash+committed, 1e-9)

	// The latest views mirror the final snapshot.
	snap, ok := sim.LatestSnapshot()
	require.True(t, ok)
	assert.Equal(t, last, snap)
	reports := sim.InstrumentReports()
	require.Len(t, reports, 2)
	assert.Equal(t, "AAA", reports[0].Symbol)
	assert.True(t, reports[0].SampleCount > 0)

	r, ok := sim.InstrumentReport("BBB")
	require.True(t, ok)
	assert.Equal(t, "BBB", r.Symbol)

	_, ok = sim.InstrumentReport("NONE")
	assert.False(t, ok)
}

func TestRunSequencesSnapshots(t *testing.T) {
	store := &recordingStore{}
	sim := newTestSimulator(t, store, nil)

	src := &stubSource{obs: []models.Observation{
		obs("1", "AAA", 100),
		obs("2", "AAA", 101),
		obs("3", "AAA", 103),
	}}
	require.NoError(t, sim.Run(context.Background(), src))

	require.Len(t, store.snaps, 3)
	for i, s := range store.snaps {
		assert.Equal(t, i, s.Sequence)
	}
}
