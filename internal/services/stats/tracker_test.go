package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GrowthSim/internal/domain/models"
)

func newInstrument(cfg models.InstrumentConfig, first float64) *models.Instrument {
	return models.NewInstrument("TEST", 0, first, cfg)
}

// step closes one interval with the given value, the way the interval loop
// does it, and runs the tracker.
func step(t *testing.T, tr *Tracker, in *models.Instrument, value float64) bool {
	t.Helper()
	in.LastValue = in.CurrentValue
	in.CurrentValue = value
	in.TransactionCount++
	in.Updated = true
	in.UpdatedStreak++
	return tr.Update(in)
}

func TestUpdateGatedUntilSecondInterval(t *testing.T) {
	tr := NewTracker()
	in := newInstrument(models.InstrumentConfig{}, 100)

	require.False(t, step(t, tr, in, 101))
	assert.Zero(t, in.SampleCount)

	require.True(t, step(t, tr, in, 102))
	assert.Equal(t, 1, in.SampleCount)
}

func TestUpdateSkipsStaleIntervals(t *testing.T) {
	tr := NewTracker()
	in := newInstrument(models.InstrumentConfig{}, 100)
	step(t, tr, in, 101)
	step(t, tr, in, 102)

	// Interval without an observation breaks the update streak.
	in.LastValue = in.CurrentValue
	in.TransactionCount++
	in.Updated = false
	in.UpdatedStreak = 0
	require.False(t, tr.Update(in))

	// First interval after the gap still lacks a fresh previous close.
	in.TransactionCount++
	in.Updated = true
	in.UpdatedStreak = 1
	require.False(t, tr.Update(in))

	in.TransactionCount++
	in.UpdatedStreak = 2
	require.True(t, tr.Update(in))
}

func TestUpdateUnconditionalStatsIgnoresGaps(t *testing.T) {
	tr := NewTracker()
	in := newInstrument(models.InstrumentConfig{UnconditionalStats: true}, 100)
	step(t, tr, in, 101)

	in.LastValue = in.CurrentValue
	in.TransactionCount++
	in.Updated = false
	in.UpdatedStreak = 0
	require.True(t, tr.Update(in))
}

func TestUpdateAccumulators(t *testing.T) {
	tr := NewTracker()
	in := newInstrument(models.InstrumentConfig{}, 100)
	step(t, tr, in, 100)

	require.True(t, step(t, tr, in, 102)) // +2%
	require.True(t, step(t, tr, in, 102)) // flat
	require.True(t, step(t, tr, in, 96.9)) // -5%

	assert.Equal(t, 3, in.SampleCount)
	assert.InDelta(t, (0.02+0-0.05)/3, in.Avg, 1e-12)
	assert.InDelta(t, math.Sqrt((0.02*0.02+0.05*0.05)/3), in.RMS, 1e-12)
	assert.True(t, in.Avg < 0)
	assert.True(t, in.RMS >= 0 && in.RMS <= 1)
}

func TestUpdateOutlierGuard(t *testing.T) {
	tr := NewTracker()
	in := newInstrument(models.InstrumentConfig{MaxIncrement: 0.1}, 100)
	step(t, tr, in, 101)

	require.False(t, step(t, tr, in, 150)) // +48.5%, rejected
	assert.Zero(t, in.SampleCount)

	require.True(t, step(t, tr, in, 155)) // +3.3% from the new close
	assert.Equal(t, 1, in.SampleCount)
}

func TestPcompShrinksSmallSamples(t *testing.T) {
	tr := NewTracker()
	in := newInstrument(models.InstrumentConfig{}, 100)
	step(t, tr, in, 100)

	step(t, tr, in, 101)
	assert.InDelta(t, 1-math.Erf(1), in.Pcomp, 1e-3)

	prev := in.Pcomp
	for i := 0; i < 100; i++ {
		step(t, tr, in, in.CurrentValue*1.01)
		require.GreaterOrEqual(t, in.Pcomp, prev)
		prev = in.Pcomp
	}
	assert.Less(t, in.Pcomp, 1.0)
}

func TestReversionAboveTrendLowersUpProbability(t *testing.T) {
	tr := NewTracker()
	in := newInstrument(models.InstrumentConfig{}, 100)
	step(t, tr, in, 100)

	// Mixed moves first, then a sustained 5% climb: realized growth
	// compounds at the full move size while the implied fair curve only
	// compounds at the probability-weighted gain, so the run sits above
	// trend and keeps extending the void count.
	step(t, tr, in, 103)
	step(t, tr, in, 101)
	step(t, tr, in, 104)
	for i := 0; i < 10; i++ {
		step(t, tr, in, in.CurrentValue*1.05)
	}

	assert.Positive(t, in.VoidCount)
	assert.Less(t, in.Pt, 0.5)
}

func TestReversionBelowTrendRaisesUpProbability(t *testing.T) {
	tr := NewTracker()
	in := newInstrument(models.InstrumentConfig{}, 100)
	step(t, tr, in, 100)

	// Build statistics on a mixed series, then drop hard so realized growth
	// falls below the implied trend.
	step(t, tr, in, 103)
	step(t, tr, in, 101)
	step(t, tr, in, 104)
	for i := 0; i < 10; i++ {
		step(t, tr, in, in.CurrentValue*0.95)
	}

	assert.Negative(t, in.VoidCount)
	assert.Greater(t, in.Pt, 0.5)
}

func TestStreakHistogramsAndPersistence(t *testing.T) {
	tr := NewTracker()
	in := newInstrument(models.InstrumentConfig{}, 100)
	step(t, tr, in, 100)

	// First ever up streak: no streak has reached the next length yet, so
	// continuation defaults to 0.
	step(t, tr, in, 101)
	assert.Equal(t, 1, in.Streak)
	assert.Zero(t, in.Pp)
	step(t, tr, in, 102)
	assert.Equal(t, 2, in.Streak)
	assert.Zero(t, in.Pp)

	// Flat interval resets the streak.
	step(t, tr, in, 102)
	assert.Zero(t, in.Streak)
	assert.Equal(t, 0.5, in.Pp)

	// Second up streak: one of the two streaks that reached length 1 went
	// on to length 2.
	step(t, tr, in, 103)
	assert.Equal(t, 1, in.Streak)
	assert.InDelta(t, 0.5, in.Pp, 1e-12)

	assert.Equal(t, 2, in.UpRuns.Bucket(1).Count)
	assert.Equal(t, 1, in.UpRuns.Bucket(2).Count)
}

func TestDownStreakInvertsContinuation(t *testing.T) {
	tr := NewTracker()
	in := newInstrument(models.InstrumentConfig{}, 100)
	step(t, tr, in, 100)

	step(t, tr, in, 99)
	assert.Equal(t, -1, in.Streak)
	assert.Zero(t, in.Pp) // default continuation 1, inverted

	step(t, tr, in, 98)
	assert.Equal(t, -2, in.Streak)

	step(t, tr, in, 99) // up move ends the down streak
	assert.Equal(t, 1, in.Streak)

	// New down streak: both prior length-1 down streaks continued once.
	step(t, tr, in, 98)
	assert.Equal(t, -1, in.Streak)
	assert.InDelta(t, 0.5, in.Pp, 1e-12)
	assert.Equal(t, 2, in.DownRuns.Bucket(1).Count)
	assert.Equal(t, 1, in.DownRuns.Bucket(2).Count)
}
