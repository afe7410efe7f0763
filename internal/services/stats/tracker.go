// Package stats maintains the per-instrument running statistics of
// normalized value increments, including the run-length and mean-reversion
// features the empirical scoring methods are built on.
package stats

import (
	"math"

	"GrowthSim/internal/domain/models"
	"GrowthSim/internal/services/confidence"
	"GrowthSim/internal/services/decision"
)

// Tracker updates instrument statistics once per closed interval. It is
// stateless; all accumulated state lives on the instrument record.
type Tracker struct{}

// NewTracker creates a tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Update folds the instrument's just-closed interval into its running
// statistics. The caller has already promoted the interval's final
// observation into CurrentValue and kept the prior close in LastValue.
// Returns whether the statistics were actually updated; gating and the
// outlier guard can both skip an interval.
func (t *Tracker) Update(in *models.Instrument) bool {
	if in.TransactionCount <= 1 {
		return false
	}
	// Increments are only meaningful when both endpoints of the interval
	// were observed, unless stale updates are explicitly allowed.
	if !in.Config.UnconditionalStats && !(in.Updated && in.UpdatedStreak > 1) {
		return false
	}

	increment := (in.CurrentValue - in.LastValue) / in.LastValue
	if in.Config.MaxIncrement > 0 && math.Abs(increment) > in.Config.MaxIncrement {
		return false
	}

	in.SumInc += increment
	in.SumSqInc += increment * increment
	in.SampleCount++

	n := float64(in.SampleCount)
	in.Avg = in.SumInc / n
	if in.Avg > 1 {
		in.Avg = 1
	}
	in.RMS = math.Sqrt(in.SumSqInc / n)
	if in.RMS > 1 {
		in.RMS = 1
	}

	in.Pcomp = 1 - confidence.Erf(1/math.Sqrt(n))

	t.updateReversion(in, increment)
	t.updateStreak(in, increment)
	return true
}

// updateReversion maintains the void count: the number of consecutive
// intervals the instrument's compounded normalized growth has stayed above
// or below the exponential growth its own statistics imply as fair.
func (t *Tracker) updateReversion(in *models.Instrument, increment float64) {
	in.Gn *= 1 + increment

	p := 0.5
	if in.RMS > 0 {
		p = (in.Avg/in.RMS + 1) / 2
	}
	fair := math.Pow(decision.Gain(in.RMS, p), float64(in.SampleCount))

	if in.Gn >= fair {
		if in.VoidCount < 0 {
			in.VoidCount = 0
		}
		in.VoidCount++
	} else {
		if in.VoidCount > 0 {
			in.VoidCount = 0
		}
		in.VoidCount--
	}

	// The longer the run away from trend, the more a reversion is due; the
	// erf term decays toward 0 with run length, so an above-trend run drives
	// the up probability down and a below-trend run drives it up.
	e := confidence.Erf(1 / math.Sqrt(float64(abs(in.VoidCount))+1))
	if in.VoidCount >= 0 {
		in.Pt = e
	} else {
		in.Pt = 1 - e
	}
}

// updateStreak classifies the increment as up, flat or down, extends or
// resets the signed streak counter, records the reached length in the
// matching histogram, and derives the persistence probability of an up move
// in the next interval from the histogram's continuation ratio.
func (t *Tracker) updateStreak(in *models.Instrument, increment float64) {
	switch {
	case increment > 0:
		if in.Streak > 0 {
			in.Streak++
		} else {
			in.Streak = 1
			in.StreakStart = in.LastValue
		}
		in.UpRuns.Observe(in.Streak, increment)
		// No streak has ever reached the next length: assume it ends.
		in.Pp = in.UpRuns.Continuation(in.Streak, 0)

	case increment < 0:
		if in.Streak < 0 {
			in.Streak--
		} else {
			in.Streak = -1
			in.StreakStart = in.LastValue
		}
		in.DownRuns.Observe(-in.Streak, increment)
		// Continuation of a down streak is a down move; invert to get the
		// up probability. The default continuation of 1 mirrors the up case.
		in.Pp = 1 - in.DownRuns.Continuation(-in.Streak, 1)

	default:
		in.Streak = 0
		in.Pp = 0.5
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
