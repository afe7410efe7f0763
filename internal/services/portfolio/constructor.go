// Package portfolio rebuilds the holding set every interval: rank by
// decision value, greedily accept under aggregate risk stops, then split the
// committed capital across the accepted instruments.
package portfolio

import (
	"math"
	"sort"

	"GrowthSim/internal/domain/models"
	"GrowthSim/internal/services/decision"
)

// Config bounds the holding set and the advisory leverage.
type Config struct {
	MinHoldings int
	MaxHoldings int
	MaxMargin   float64
}

// Constructor executes the liquidate/rank/accept/allocate pass.
type Constructor struct {
	cfg Config
}

// NewConstructor creates a constructor with the given bounds.
func NewConstructor(cfg Config) *Constructor {
	return &Constructor{cfg: cfg}
}

// aggregates carries the running portfolio statistics of the accepted set.
// avgP averages the probability-implied avg of each member; rmsP combines
// the member rms values in quadrature, which is what shrinks portfolio risk
// as uncorrelated members are added.
type aggregates struct {
	count      int
	sumImplied float64
	sumSqRMS   float64
}

func (a aggregates) with(in *models.Instrument) aggregates {
	return aggregates{
		count:      a.count + 1,
		sumImplied: a.sumImplied + in.ImpliedAvg(),
		sumSqRMS:   a.sumSqRMS + in.RMS*in.RMS,
	}
}

func (a aggregates) avgP() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sumImplied / float64(a.count)
}

func (a aggregates) rmsP() float64 {
	if a.count == 0 {
		return 0
	}
	return math.Sqrt(a.sumSqRMS) / math.Sqrt(float64(a.count))
}

// prob is the aggregate Shannon probability implied by avgP and rmsP.
func (a aggregates) prob() float64 {
	r := a.rmsP()
	if r <= 0 {
		return 0.5
	}
	return (a.avgP()/r + 1) / 2
}

// growth is the portfolio's expected growth per interval.
func (a aggregates) growth() float64 {
	if a.count == 0 {
		return 0
	}
	return decision.Gain(a.rmsP(), a.prob())
}

// Liquidate returns every held instrument's capital, valued at the current
// price, to the uncommitted pool and clears the holding bookkeeping. The
// returned amount is the freed capital.
func (c *Constructor) Liquidate(instruments []*models.Instrument) float64 {
	freed := 0.0
	for _, in := range instruments {
		if !in.Held {
			continue
		}
		freed += in.Shares * in.CurrentValue
		in.Held = false
		in.Shares = 0
		in.Capital = 0
		in.AllocationPercent = 0
	}
	return freed
}

// Rebalance ranks the eligible instruments and greedily rebuilds the holding
// set, committing the given capital across it. The prior holding set must
// already have been liquidated.
func (c *Constructor) Rebalance(instruments []*models.Instrument, capital float64) models.Portfolio {
	accepted := c.accept(c.rank(instruments))
	c.allocate(accepted, capital)

	var agg aggregates
	for _, in := range accepted {
		agg = agg.with(in)
	}

	p := models.Portfolio{
		Holdings:         make([]models.Holding, 0, len(accepted)),
		AvgP:             agg.avgP(),
		RmsP:             agg.rmsP(),
		Gp:               agg.growth(),
		MarginReciprocal: c.margin(agg),
	}
	for _, in := range accepted {
		p.Holdings = append(p.Holdings, models.Holding{
			Symbol:   in.Symbol,
			Value:    in.CurrentValue,
			Shares:   in.Shares,
			Capital:  in.Capital,
			Fraction: in.AllocationFraction,
			Percent:  in.AllocationPercent,
			Decision: in.DecisionValue,
			Prob:     in.DecisionProb,
		})
	}
	return p
}

// rank returns the eligible, positively scored instruments sorted by
// decision value descending. The sort is stable so tied decision values
// preserve registration order.
func (c *Constructor) rank(instruments []*models.Instrument) []*models.Instrument {
	ranked := make([]*models.Instrument, 0, len(instruments))
	for _, in := range instruments {
		if in.Eligible() && in.DecisionValue > 0 {
			ranked = append(ranked, in)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DecisionValue > ranked[j].DecisionValue
	})
	return ranked
}

// accept walks the ranked list, admitting candidates until a stop fires or
// the ceiling is reached.
func (c *Constructor) accept(ranked []*models.Instrument) []*models.Instrument {
	var (
		accepted []*models.Instrument
		agg      aggregates
	)
	for _, in := range ranked {
		if c.cfg.MaxHoldings > 0 && agg.count >= c.cfg.MaxHoldings {
			break
		}

		next := agg.with(in)
		balanced := next.avgP() >= next.rmsP()

		// Hard stop: the aggregate probability has saturated and the set is
		// already adequately capitalized relative to its own risk.
		if next.prob() >= 1 && agg.count > c.cfg.MinHoldings && balanced {
			break
		}
		// Soft stop: the candidate would dilute the expected growth. For the
		// statistical-estimate methods it only fires once the aggregate avg
		// has caught up with the aggregate rms.
		if agg.count > c.cfg.MinHoldings && next.growth() < agg.growth() {
			if !in.Config.Method.BalancedSoftStop() || balanced {
				break
			}
		}

		accepted = append(accepted, in)
		agg = next
	}
	return accepted
}

// allocate splits capital across the accepted set. The equal policy splits
// evenly; the others weight by allocation fraction, degrading to the even
// split when the fractions sum to nothing.
func (c *Constructor) allocate(accepted []*models.Instrument, capital float64) {
	if len(accepted) == 0 {
		return
	}

	equal := accepted[0].Config.Policy == models.PolicyEqual
	total := 0.0
	if !equal {
		for _, in := range accepted {
			total += in.AllocationFraction
		}
		if total <= 0 {
			equal = true
		}
	}

	for _, in := range accepted {
		weight := 1 / float64(len(accepted))
		if !equal {
			weight = in.AllocationFraction / total
		}
		in.AllocationPercent = weight
		in.Capital = capital * weight
		in.Shares = in.Capital / in.CurrentValue
		in.Held = true
	}
}

// margin is the advisory reciprocal leverage, avgP/rmsP^2 - 1 floored at 1
// and capped by configuration. Reported, never enforced.
func (c *Constructor) margin(agg aggregates) float64 {
	m := 1.0
	if r := agg.rmsP(); r > 0 {
		if v := agg.avgP()/(r*r) - 1; v > m {
			m = v
		}
	}
	if c.cfg.MaxMargin > 0 && m > c.cfg.MaxMargin {
		m = c.cfg.MaxMargin
	}
	return m
}
