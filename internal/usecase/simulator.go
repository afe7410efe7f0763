package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"GrowthSim/internal/domain/models"
	drepo "GrowthSim/internal/domain/repository"
	"GrowthSim/internal/services/confidence"
	"GrowthSim/internal/services/decision"
	"GrowthSim/internal/services/portfolio"
	"GrowthSim/internal/services/stats"
	"GrowthSim/pkg/logger"
)

// SimulatorConfig carries the capital the simulation starts with.
type SimulatorConfig struct {
	InitialCapital float64
}

// Simulator drives the per-interval pipeline over an observation stream:
// interval bookkeeping, statistics, confidence, scoring, rebalance, and the
// fan-out of each interval's snapshot to the configured outputs. It owns the
// registry; HTTP readers see mutex-guarded copies taken at interval close.
type Simulator struct {
	registry *models.Registry
	tracker  *stats.Tracker
	engine   *decision.Engine
	builder  *portfolio.Constructor

	publisher drepo.Publisher
	store     drepo.SnapshotStore
	hub       drepo.Broadcaster
	cache     drepo.ReportCache
	metrics   drepo.Metrics
	log       *logger.Logger

	cash     float64
	interval string
	open     bool
	sequence int

	mu      sync.RWMutex
	latest  *models.Snapshot
	reports []models.InstrumentReport
}

// NewSimulator wires the pipeline. Publisher, store, hub and cache are
// optional; a nil output is skipped during fan-out.
func NewSimulator(
	cfg SimulatorConfig,
	registry *models.Registry,
	tracker *stats.Tracker,
	engine *decision.Engine,
	builder *portfolio.Constructor,
	publisher drepo.Publisher,
	store drepo.SnapshotStore,
	hub drepo.Broadcaster,
	cache drepo.ReportCache,
	metrics drepo.Metrics,
	log *logger.Logger,
) *Simulator {
	return &Simulator{
		registry:  registry,
		tracker:   tracker,
		engine:    engine,
		builder:   builder,
		publisher: publisher,
		store:     store,
		hub:       hub,
		cache:     cache,
		metrics:   metrics,
		log:       log,
		cash:      cfg.InitialCapital,
	}
}

// Run consumes the source until it is exhausted, closing the final open
// interval before returning.
func (s *Simulator) Run(ctx context.Context, source drepo.ObservationSource) error {
	obs, errs := source.Read(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				s.metrics.RecordError("source")
				return fmt.Errorf("read observations: %w", err)
			}
		case o, ok := <-obs:
			if !ok {
				s.CloseInterval(ctx)
				s.log.Info("series exhausted",
					logger.Int("intervals", s.sequence),
					logger.Int("instruments", s.registry.Len()))
				return nil
			}
			s.Observe(ctx, o)
		}
	}
}

// Observe folds one observation into the open interval. A change of interval
// label closes the previous interval first; duplicate observations for the
// same instrument within one interval resolve last-wins.
func (s *Simulator) Observe(ctx context.Context, o models.Observation) {
	if s.open && o.Interval != s.interval {
		s.CloseInterval(ctx)
	}
	s.interval = o.Interval
	s.open = true

	in, created := s.registry.GetOrCreate(o.Symbol, o.Value)
	if created {
		s.log.Debug("instrument registered",
			logger.String("symbol", o.Symbol),
			logger.String("interval", o.Interval))
		return
	}
	in.PendingValue = o.Value
	in.Updated = true
}

// CloseInterval completes the open interval: promote pending observations,
// run the statistics and scoring pipeline for every registered instrument,
// rebalance, and fan the snapshot out. Instruments without an observation
// this interval carry their close over unchanged.
func (s *Simulator) CloseInterval(ctx context.Context) {
	if !s.open {
		return
	}
	start := time.Now()
	all := s.registry.All()

	for _, in := range all {
		in.LastValue = in.CurrentValue
		if in.Updated {
			in.CurrentValue = in.PendingValue
			in.UpdatedStreak++
		} else {
			in.PendingValue = in.CurrentValue
			in.UpdatedStreak = 0
		}
		in.TransactionCount++

		s.tracker.Update(in)
		if in.SampleCount > 0 {
			confidence.FromAvgRMS(in)
			confidence.FromAvg(in)
			confidence.FromRMS(in)
			s.engine.Score(in)
		}
	}

	s.cash += s.builder.Liquidate(all)
	total := s.cash
	p := s.builder.Rebalance(all, s.cash)
	committed := 0.0
	for _, h := range p.Holdings {
		committed += h.Capital
	}
	s.cash = total - committed

	snap := &models.Snapshot{
		Interval:    s.interval,
		Sequence:    s.sequence,
		Portfolio:   p,
		Cash:        s.cash,
		TotalValue:  total,
		IndexValue:  s.indexValue(all),
		Instruments: len(all),
	}
	reports := s.buildReports(all)

	for _, in := range all {
		in.Updated = false
	}
	s.open = false
	s.sequence++

	s.mu.Lock()
	s.latest = snap
	s.reports = reports
	s.mu.Unlock()

	s.dispatch(ctx, snap, reports)

	s.metrics.RecordInterval(time.Since(start).Seconds())
	s.metrics.RecordInstruments(len(all))
	s.metrics.RecordHoldings(len(p.Holdings))
	s.metrics.RecordPortfolioValue(total)
	s.metrics.RecordIndexValue(snap.IndexValue)

	s.log.Debug("interval closed",
		logger.String("interval", snap.Interval),
		logger.Int("holdings", len(p.Holdings)),
		logger.Any("total", total))
}

func (s *Simulator) dispatch(ctx context.Context, snap *models.Snapshot, reports []models.InstrumentReport) {
	if s.store != nil {
		if err := s.store.StoreSnapshot(ctx, snap); err != nil {
			s.metrics.RecordError("store")
			s.log.Error("store snapshot", logger.Error(err))
		}
		if err := s.store.StoreInstruments(ctx, snap.Interval, reports); err != nil {
			s.metrics.RecordError("store")
			s.log.Error("store instruments", logger.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, snap); err != nil {
			s.metrics.RecordError("publish")
			s.log.Error("publish snapshot", logger.Error(err))
		}
	}
	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, snap); err != nil {
			s.metrics.RecordError("cache")
			s.log.Error("cache snapshot", logger.Error(err))
		}
	}
	if s.hub != nil {
		s.hub.Broadcast(snap)
	}
}

// indexValue is the implied market index: the mean of every instrument's
// value normalized to its first observation.
func (s *Simulator) indexValue(all []*models.Instrument) float64 {
	if len(all) == 0 {
		return 0
	}
	sum := 0.0
	for _, in := range all {
		sum += in.Growth()
	}
	return sum / float64(len(all))
}

func (s *Simulator) buildReports(all []*models.Instrument) []models.InstrumentReport {
	reports := make([]models.InstrumentReport, 0, len(all))
	for _, in := range all {
		r := models.InstrumentReport{
			Symbol:           in.Symbol,
			Value:            in.CurrentValue,
			TransactionCount: in.TransactionCount,
			SampleCount:      in.SampleCount,
			Avg:              in.Avg,
			RMS:              in.RMS,
			Par:              in.Par,
			Pa:               in.Pa,
			Pr:               in.Pr,
			Pconfar:          in.Pconfar,
			Pconfa:           in.Pconfa,
			Pconfr:           in.Pconfr,
			Peffar:           in.Peffar,
			Peffa:            in.Peffa,
			Peffr:            in.Peffr,
			Pcomp:            in.Pcomp,
			Pt:               in.Pt,
			Pp:               in.Pp,
			AvgEff:           in.RMS * (2*in.Peffar - 1),
			RMSEff:           in.EffectiveRMS,
			Decision:         in.DecisionValue,
			Fraction:         in.AllocationFraction,
			Held:             in.Held,
		}
		if in.SampleCount > 0 {
			r.ErfN = confidence.Erf(1 / math.Sqrt(float64(in.SampleCount)))
		}
		reports = append(reports, r)
	}
	return reports
}

// LatestSnapshot returns the most recent interval's snapshot.
func (s *Simulator) LatestSnapshot() (*models.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, false
	}
	return s.latest, true
}

// InstrumentReports returns a copy of the most recent per-instrument view.
func (s *Simulator) InstrumentReports() []models.InstrumentReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.InstrumentReport, len(s.reports))
	copy(out, s.reports)
	return out
}

// InstrumentReport returns the most recent view of one instrument.
func (s *Simulator) InstrumentReport(symbol string) (models.InstrumentReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reports {
		if r.Symbol == symbol {
			return r, true
		}
	}
	return models.InstrumentReport{}, false
}
