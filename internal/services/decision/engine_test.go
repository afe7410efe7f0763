package decision

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GrowthSim/internal/domain/models"
)

func TestGain(t *testing.T) {
	assert.InDelta(t, 1.0, Gain(0.1, 0.5), 1e-2) // near fair coin, near unity
	assert.InDelta(t, 1.1, Gain(0.1, 1), 1e-12)
	assert.InDelta(t, 0.9, Gain(0.1, 0), 1e-12)
	assert.Greater(t, Gain(0.1, 0.6), Gain(0.1, 0.5))
}

func scored(method models.ScoringMethod, mutate func(*models.Instrument)) *models.Instrument {
	in := models.NewInstrument("TEST", 0, 100, models.InstrumentConfig{Method: method})
	in.Avg = 0.01
	in.RMS = 0.05
	in.Par, in.Pa, in.Pr = 0.6, 0.55, 0.525
	in.Pconfar, in.Pconfa, in.Pconfr = 0.9, 0.92, 0.95
	in.Peffar, in.Peffa, in.Peffr = 0.54, 0.506, 0.49875
	in.Pcomp = 0.8
	in.Pt = 0.7
	in.Pp = 0.65
	if mutate != nil {
		mutate(in)
	}
	return in
}

func TestScoreMethodProbabilities(t *testing.T) {
	cases := []struct {
		name     string
		method   models.ScoringMethod
		sizeComp bool
		wantP    float64
		wantX    float64
	}{
		{"avgrms raw", models.MethodAvgRMS, false, 0.6, 0.05},
		{"avgrms effective", models.MethodAvgRMS, true, 0.54, 0.05},
		{"rms raw", models.MethodRMS, false, 0.525, 0.05},
		{"rms effective", models.MethodRMS, true, 0.49875, 0.05},
		{"avg raw", models.MethodAvg, false, 0.55, math.Sqrt(0.01)},
		{"avg effective", models.MethodAvg, true, 0.506, math.Sqrt(0.01)},
		{"reversion", models.MethodReversion, false, 0.7, 0.05},
		{"reversion compensated", models.MethodReversion, true, 0.7 * 0.95, 0.05},
		{"persistence", models.MethodPersistence, false, 0.65, 0.05},
		{"persistence compensated", models.MethodPersistence, true, 0.65 * 0.95, 0.05},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEngine(1)
			in := scored(tc.method, func(in *models.Instrument) {
				in.Config.SizeCompensation = tc.sizeComp
			})
			e.Score(in)
			assert.InDelta(t, tc.wantP, in.DecisionProb, 1e-12)
			assert.InDelta(t, Gain(tc.wantX, tc.wantP), in.DecisionValue, 1e-12)
			assert.InDelta(t, math.Max(0, 2*tc.wantP-1), in.AllocationFraction, 1e-12)
		})
	}
}

func TestScoreRunCompensation(t *testing.T) {
	e := NewEngine(1)
	in := scored(models.MethodAvgRMS, func(in *models.Instrument) {
		in.Config.RunCompensation = true
	})
	e.Score(in)
	assert.InDelta(t, 0.6*0.8, in.DecisionProb, 1e-12)
}

func TestScoreNegativeAvgSkipsAvgMethod(t *testing.T) {
	e := NewEngine(1)
	in := scored(models.MethodAvg, func(in *models.Instrument) {
		in.Avg = -0.01
	})
	in.AllocationFraction = 0.7
	e.Score(in)
	assert.Zero(t, in.DecisionValue)
	assert.Equal(t, 0.5, in.DecisionProb)
	assert.Zero(t, in.AllocationFraction)
}

func TestScoreDomainEdgeExcludes(t *testing.T) {
	e := NewEngine(1)
	in := scored(models.MethodRMS, func(in *models.Instrument) {
		in.RMS = 1
		in.Pr = 1
	})
	e.Score(in)
	assert.Zero(t, in.DecisionValue)
}

func TestScoreRandomBaseline(t *testing.T) {
	e := NewEngine(42)
	in := scored(models.MethodRandom, nil)
	e.Score(in)
	assert.Equal(t, 1.0, in.AllocationFraction)
	assert.GreaterOrEqual(t, in.DecisionValue, 0.0)
	assert.Less(t, in.DecisionValue, 1.0)

	// Same seed replays the same draws.
	e2 := NewEngine(42)
	in2 := scored(models.MethodRandom, nil)
	e2.Score(in2)
	assert.Equal(t, in.DecisionValue, in2.DecisionValue)
}

func TestAllocateMinimizeRisk(t *testing.T) {
	e := NewEngine(1)
	in := scored(models.MethodAvgRMS, func(in *models.Instrument) {
		in.Config.Policy = models.PolicyMinimizeRisk
		in.Pcomp = 1
	})
	e.Score(in)
	want := (2*0.6 - 1) / math.Pow(2*0.55-1, 2)
	assert.InDelta(t, want, in.AllocationFraction, 1e-12)
}

func TestAllocateMinimizeRiskGuard(t *testing.T) {
	e := NewEngine(1)

	// Neutral probabilities fall outside (0.5, 1); the fraction is retained.
	in := scored(models.MethodAvgRMS, func(in *models.Instrument) {
		in.Config.Policy = models.PolicyMinimizeRisk
		in.Par, in.Pa = 0.5, 0.5
		in.Pcomp = 1
	})
	in.AllocationFraction = 0.3
	e.Score(in)
	require.Equal(t, 0.3, in.AllocationFraction)

	// Compensation can push an otherwise valid probability out of range too.
	in2 := scored(models.MethodAvgRMS, func(in *models.Instrument) {
		in.Config.Policy = models.PolicyMinimizeRisk
		in.Pcomp = 0.5
	})
	in2.AllocationFraction = 0.3
	e.Score(in2)
	assert.Equal(t, 0.3, in2.AllocationFraction)
}
