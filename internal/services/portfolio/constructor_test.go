package portfolio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GrowthSim/internal/domain/models"
)

func member(sym string, ord int, cfg models.InstrumentConfig, decisionValue, prob, rms float64) *models.Instrument {
	in := models.NewInstrument(sym, ord, 100, cfg)
	in.TransactionCount = 10
	in.Updated = true
	in.RMS = rms
	in.DecisionValue = decisionValue
	in.DecisionProb = prob
	in.AllocationFraction = math.Max(0, 2*prob-1)
	return in
}

func symbols(p models.Portfolio) []string {
	out := make([]string, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		out = append(out, h.Symbol)
	}
	return out
}

func TestRebalanceAggregates(t *testing.T) {
	c := NewConstructor(Config{MinHoldings: 1, MaxHoldings: 10})
	cfg := models.InstrumentConfig{Method: models.MethodAvgRMS}
	// Both members imply avg = rms*(2P-1) = 0.1*(2*0.6-1) = 0.02.
	ins := []*models.Instrument{
		member("AAA", 0, cfg, 1.02, 0.6, 0.1),
		member("BBB", 1, cfg, 1.01, 0.6, 0.1),
	}

	p := c.Rebalance(ins, 1000)

	require.Len(t, p.Holdings, 2)
	assert.InDelta(t, 0.02, p.AvgP, 1e-12)
	assert.InDelta(t, 0.1/math.Sqrt2, p.RmsP, 1e-12)
	assert.Greater(t, p.Gp, 1.0)
	assert.InDelta(t, 0.02/(0.1*0.1/2)-1, p.MarginReciprocal, 1e-9)
}

func TestRebalanceMarginCap(t *testing.T) {
	c := NewConstructor(Config{MinHoldings: 1, MaxHoldings: 10, MaxMargin: 2})
	cfg := models.InstrumentConfig{Method: models.MethodAvgRMS}
	ins := []*models.Instrument{
		member("AAA", 0, cfg, 1.02, 0.6, 0.1),
		member("BBB", 1, cfg, 1.01, 0.6, 0.1),
	}
	p := c.Rebalance(ins, 1000)
	assert.Equal(t, 2.0, p.MarginReciprocal)
}

func TestRebalanceBoundedHoldings(t *testing.T) {
	c := NewConstructor(Config{MinHoldings: 10, MaxHoldings: 2})
	cfg := models.InstrumentConfig{Method: models.MethodAvgRMS}
	var ins []*models.Instrument
	for i, sym := range []string{"A", "B", "C", "D", "E"} {
		ins = append(ins, member(sym, i, cfg, 1.05-float64(i)*0.01, 0.6, 0.05))
	}

	p := c.Rebalance(ins, 1000)

	assert.Equal(t, []string{"A", "B"}, symbols(p))
}

func TestRebalanceTieStability(t *testing.T) {
	c := NewConstructor(Config{MinHoldings: 10, MaxHoldings: 10})
	cfg := models.InstrumentConfig{Method: models.MethodAvgRMS}
	ins := []*models.Instrument{
		member("A", 0, cfg, 1.01, 0.6, 0.05),
		member("B", 1, cfg, 1.01, 0.6, 0.05),
		member("C", 2, cfg, 1.01, 0.6, 0.05),
	}
	assert.Equal(t, []string{"A", "B", "C"}, symbols(c.Rebalance(ins, 900)))
}

func TestRebalanceExcludesIneligibleAndUnscored(t *testing.T) {
	c := NewConstructor(Config{MinHoldings: 10, MaxHoldings: 10})
	cfg := models.InstrumentConfig{Method: models.MethodAvgRMS}

	fresh := member("NEW", 0, cfg, 1.05, 0.6, 0.05)
	fresh.TransactionCount = 1
	stale := member("STALE", 1, cfg, 1.04, 0.6, 0.05)
	stale.Updated = false
	zero := member("ZERO", 2, cfg, 0, 0.6, 0.05)
	held := member("GOOD", 3, cfg, 1.01, 0.6, 0.05)

	p := c.Rebalance([]*models.Instrument{fresh, stale, zero, held}, 1000)

	assert.Equal(t, []string{"GOOD"}, symbols(p))
}

func TestRebalanceHardStop(t *testing.T) {
	c := NewConstructor(Config{MinHoldings: 0, MaxHoldings: 10})
	cfg := models.InstrumentConfig{Method: models.MethodAvgRMS}
	// P = 1 saturates the aggregate probability as soon as quadrature
	// averaging pulls rmsP under avgP.
	ins := []*models.Instrument{
		member("A", 0, cfg, 1.05, 1, 0.05),
		member("B", 1, cfg, 1.04, 1, 0.05),
	}
	p := c.Rebalance(ins, 1000)
	assert.Equal(t, []string{"A"}, symbols(p))
}

func TestRebalanceSoftStop(t *testing.T) {
	// The second candidate is all risk and no edge; admitting it would
	// shrink the expected growth.
	strong := func(cfg models.InstrumentConfig) *models.Instrument {
		return member("STRONG", 0, cfg, 1.05, 0.7, 0.05)
	}
	dilutive := func(cfg models.InstrumentConfig) *models.Instrument {
		return member("WEAK", 1, cfg, 1.001, 0.5, 0.3)
	}

	t.Run("empirical method stops immediately", func(t *testing.T) {
		c := NewConstructor(Config{MinHoldings: 0, MaxHoldings: 10})
		cfg := models.InstrumentConfig{Method: models.MethodReversion}
		p := c.Rebalance([]*models.Instrument{strong(cfg), dilutive(cfg)}, 1000)
		assert.Equal(t, []string{"STRONG"}, symbols(p))
	})

	t.Run("statistical method waits for balance", func(t *testing.T) {
		c := NewConstructor(Config{MinHoldings: 0, MaxHoldings: 10})
		cfg := models.InstrumentConfig{Method: models.MethodAvgRMS}
		// Aggregate avgP stays below rmsP here, so the soft stop is held
		// off and the candidate is admitted anyway.
		p := c.Rebalance([]*models.Instrument{strong(cfg), dilutive(cfg)}, 1000)
		assert.Equal(t, []string{"STRONG", "WEAK"}, symbols(p))
	})
}

func TestAllocateEqualSplit(t *testing.T) {
	c := NewConstructor(Config{MinHoldings: 10, MaxHoldings: 10})
	cfg := models.InstrumentConfig{Method: models.MethodAvgRMS, Policy: models.PolicyEqual}
	ins := []*models.Instrument{
		member("A", 0, cfg, 1.02, 0.7, 0.05),
		member("B", 1, cfg, 1.01, 0.55, 0.05),
	}
	p := c.Rebalance(ins, 1000)

	require.Len(t, p.Holdings, 2)
	for _, h := range p.Holdings {
		assert.InDelta(t, 0.5, h.Percent, 1e-12)
		assert.InDelta(t, 500, h.Capital, 1e-9)
		assert.InDelta(t, 5, h.Shares, 1e-9)
	}
}

func TestAllocateFractionWeighted(t *testing.T) {
	c := NewConstructor(Config{MinHoldings: 10, MaxHoldings: 10})
	cfg := models.InstrumentConfig{Method: models.MethodAvgRMS, Policy: models.PolicyMaximizeGain}
	ins := []*models.Instrument{
		member("A", 0, cfg, 1.02, 0.6, 0.05), // fraction 0.2
		member("B", 1, cfg, 1.01, 0.8, 0.05), // fraction 0.6
	}
	p := c.Rebalance(ins, 1000)

	require.Len(t, p.Holdings, 2)
	assert.InDelta(t, 250, p.Holdings[0].Capital, 1e-9)
	assert.InDelta(t, 750, p.Holdings[1].Capital, 1e-9)
}

func TestAllocateZeroFractionsFallBackToEqual(t *testing.T) {
	c := NewConstructor(Config{MinHoldings: 10, MaxHoldings: 10})
	cfg := models.InstrumentConfig{Method: models.MethodAvgRMS, Policy: models.PolicyMaximizeGain}
	ins := []*models.Instrument{
		member("A", 0, cfg, 1.02, 0.5, 0.05),
		member("B", 1, cfg, 1.01, 0.5, 0.05),
	}
	p := c.Rebalance(ins, 1000)

	require.Len(t, p.Holdings, 2)
	assert.InDelta(t, 500, p.Holdings[0].Capital, 1e-9)
	assert.InDelta(t, 500, p.Holdings[1].Capital, 1e-9)
}

func TestLiquidateThenRebalanceIsIdempotent(t *testing.T) {
	c := NewConstructor(Config{MinHoldings: 1, MaxHoldings: 10})
	cfg := models.InstrumentConfig{Method: models.MethodAvgRMS}
	ins := []*models.Instrument{
		member("AAA", 0, cfg, 1.02, 0.6, 0.1),
		member("BBB", 1, cfg, 1.01, 0.6, 0.1),
	}

	first := c.Rebalance(ins, 1000)
	freed := c.Liquidate(ins)
	assert.InDelta(t, 1000, freed, 1e-9)

	second := c.Rebalance(ins, freed)
	assert.Equal(t, first, second)

	// Liquidating with nothing held frees nothing.
	c.Liquidate(ins)
	assert.Zero(t, c.Liquidate(ins))
}
