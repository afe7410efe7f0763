// Package decision converts an instrument's probabilities into a
// growth-expectation score and a capital-allocation weight.
package decision

import (
	"math"
	"math/rand"

	"GrowthSim/internal/domain/models"
)

// Gain is the expected per-interval growth of capital wagered at fraction
// implied by probability p on a process with fluctuation x:
//
//	G(x, p) = (1+x)^p * (1-x)^(1-p)
//
// Only meaningful for x in [0,1) and p in [0,1]; callers guard the domain.
func Gain(x, p float64) float64 {
	return math.Pow(1+x, p) * math.Pow(1-x, 1-p)
}

// Engine scores instruments. The random source backs the baseline method
// only and is injected so replays stay deterministic.
type Engine struct {
	rng *rand.Rand
}

// NewEngine creates an engine with a seeded random source.
func NewEngine(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

// Score recomputes the instrument's decision value, decision probability and
// allocation fraction from its current statistics. A zero decision value
// excludes the instrument from ranking for this interval.
func (e *Engine) Score(in *models.Instrument) {
	cfg := in.Config
	in.EffectiveRMS = in.RMS

	if cfg.Method == models.MethodRandom {
		draw := e.rng.Float64()
		in.DecisionValue = draw
		in.DecisionProb = draw
		in.AllocationFraction = 1
		return
	}

	p, ok := e.selectProbability(in)
	if !ok {
		in.DecisionProb = 0.5
		in.DecisionValue = 0
		e.allocate(in, 0.5)
		return
	}
	if cfg.RunCompensation {
		p *= in.Pcomp
	}

	x := in.RMS
	if cfg.Method == models.MethodAvg {
		x = math.Sqrt(in.Avg)
	}
	in.EffectiveRMS = x

	// The power formula has a domain edge at base >= 1 with exponent >= 1;
	// outside the domain the instrument sits this interval out.
	if x < 1 && p < 1 {
		in.DecisionValue = Gain(x, p)
	} else {
		in.DecisionValue = 0
	}
	in.DecisionProb = p

	e.allocate(in, p)
}

func (e *Engine) selectProbability(in *models.Instrument) (float64, bool) {
	cfg := in.Config
	switch cfg.Method {
	case models.MethodAvgRMS:
		if cfg.SizeCompensation {
			return in.Peffar, true
		}
		return in.Par, true
	case models.MethodRMS:
		if cfg.SizeCompensation {
			return in.Peffr, true
		}
		return in.Pr, true
	case models.MethodAvg:
		if in.Avg < 0 {
			return 0, false
		}
		if cfg.SizeCompensation {
			return in.Peffa, true
		}
		return in.Pa, true
	case models.MethodReversion:
		if cfg.SizeCompensation {
			return in.Pt * in.Pconfr, true
		}
		return in.Pt, true
	case models.MethodPersistence:
		if cfg.SizeCompensation {
			return in.Pp * in.Pconfr, true
		}
		return in.Pp, true
	default:
		return 0, false
	}
}

// allocate sets the allocation fraction for the instrument under the
// registered policy. The minimize-risk ratio is only defined when both
// contributing compensated probabilities lie strictly inside (0.5, 1);
// outside that range the previous fraction is retained rather than
// producing an unbounded ratio.
func (e *Engine) allocate(in *models.Instrument, p float64) {
	switch in.Config.Policy {
	case models.PolicyMinimizeRisk:
		par := in.Par * in.Pcomp
		pa := in.Pa * in.Pcomp
		if par > 0.5 && par < 1 && pa > 0.5 && pa < 1 {
			d := 2*pa - 1
			in.AllocationFraction = (2*par - 1) / (d * d)
		}
	default:
		f := 2*p - 1
		if f < 0 {
			f = 0
		}
		in.AllocationFraction = f
	}
}
