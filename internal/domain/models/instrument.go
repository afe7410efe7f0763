package models

// ScoringMethod selects how an instrument's Shannon probability is derived
// when ranking it for investment.
type ScoringMethod int

const (
	// MethodAvgRMS scores with the effective probability from avg and rms,
	// P = (avg/rms + 1) / 2 compensated by both confidence levels.
	MethodAvgRMS ScoringMethod = iota
	// MethodRMS scores with the effective probability from rms alone,
	// P = (rms + 1) / 2.
	MethodRMS
	// MethodAvg scores with the effective probability from avg alone,
	// P = (sqrt(avg) + 1) / 2; instruments with a negative avg are skipped.
	MethodAvg
	// MethodReversion scores with the mean-reversion probability derived
	// from the void count, times the rms confidence level.
	MethodReversion
	// MethodPersistence scores with the streak-continuation probability
	// derived from the run-length histograms, times the rms confidence level.
	MethodPersistence
	// MethodRandom scores with a uniform random draw; statistical control
	// baseline that bypasses probability gating entirely.
	MethodRandom
)

func (m ScoringMethod) String() string {
	switch m {
	case MethodAvgRMS:
		return "avgrms"
	case MethodRMS:
		return "rms"
	case MethodAvg:
		return "avg"
	case MethodReversion:
		return "reversion"
	case MethodPersistence:
		return "persistence"
	case MethodRandom:
		return "random"
	default:
		return "unknown"
	}
}

// ParseScoringMethod maps a config string to a ScoringMethod.
func ParseScoringMethod(s string) (ScoringMethod, bool) {
	switch s {
	case "avgrms", "":
		return MethodAvgRMS, true
	case "rms":
		return MethodRMS, true
	case "avg":
		return MethodAvg, true
	case "reversion":
		return MethodReversion, true
	case "persistence":
		return MethodPersistence, true
	case "random":
		return MethodRandom, true
	default:
		return MethodAvgRMS, false
	}
}

// BalancedSoftStop reports whether the portfolio constructor's soft stop for
// this method additionally requires the aggregate avgP >= rmsP before it can
// trigger. The statistical-estimate methods and the empirical ones differ
// here on purpose; do not unify them.
func (m ScoringMethod) BalancedSoftStop() bool {
	switch m {
	case MethodAvgRMS, MethodRMS, MethodAvg:
		return true
	default:
		return false
	}
}

// AllocationPolicy selects how committed capital is split across holdings.
type AllocationPolicy int

const (
	PolicyEqual AllocationPolicy = iota
	PolicyMaximizeGain
	PolicyMinimizeRisk
)

func (p AllocationPolicy) String() string {
	switch p {
	case PolicyEqual:
		return "equal"
	case PolicyMaximizeGain:
		return "maximize-gain"
	case PolicyMinimizeRisk:
		return "minimize-risk"
	default:
		return "unknown"
	}
}

// ParseAllocationPolicy maps a config string to an AllocationPolicy.
func ParseAllocationPolicy(s string) (AllocationPolicy, bool) {
	switch s {
	case "equal", "":
		return PolicyEqual, true
	case "maximize-gain":
		return PolicyMaximizeGain, true
	case "minimize-risk":
		return PolicyMinimizeRisk, true
	default:
		return PolicyEqual, false
	}
}

// InstrumentConfig is captured once when an instrument is registered.
type InstrumentConfig struct {
	Method             ScoringMethod
	Policy             AllocationPolicy
	SizeCompensation   bool    // compensate probability for data set size
	RunCompensation    bool    // compensate probability for run length duration
	MaxIncrement       float64 // outlier guard; 0 disables
	UnconditionalStats bool    // update statistics on stale intervals too
	UnconditionalHold  bool    // keep instruments eligible on stale intervals
}

// Instrument carries the full per-identifier state of the simulation: the
// observation bookkeeping, the running statistics of the normalized
// increments, the derived probabilities, and the per-interval decision.
type Instrument struct {
	Symbol  string
	Ordinal int // registration order; ranking tie-break

	Config InstrumentConfig

	// Observation state.
	CurrentValue  float64
	LastValue     float64
	FirstValue    float64 // first observed value; implied index base
	PendingValue  float64 // last observation within the open interval
	Updated       bool    // observed in the open interval
	UpdatedStreak int     // consecutive intervals with an observation

	// TransactionCount increments once per completed interval whether or
	// not the instrument was observed; a missing observation is a
	// zero-change observation.
	TransactionCount int

	// Accumulators over normalized increments; never reset.
	SumInc      float64
	SumSqInc    float64
	SampleCount int

	// Derived each interval.
	Avg float64 // clamped <= 1, may be negative
	RMS float64 // clamped to [0, 1]

	// Shannon probabilities with their confidence levels and effective
	// (confidence-compensated) counterparts.
	Par, Pa, Pr          float64
	Pconfar, Pconfa      float64
	Pconfr               float64
	Peffar, Peffa, Peffr float64

	// Run-length compensation factor, 1 - erf(1/sqrt(sampleCount)).
	Pcomp float64

	// Streak state: positive = consecutive up movements, negative = down.
	Streak      int
	StreakStart float64
	UpRuns      RunHistogram
	DownRuns    RunHistogram
	Pp          float64 // persistence probability of an up move next interval

	// Mean-reversion state.
	VoidCount int     // intervals above (+) or below (-) the implied fair growth
	Gn        float64 // compounded normalized growth, product of (1+increment)
	Pt        float64 // mean-reversion probability of an up move next interval

	// Decision state, recomputed every interval.
	DecisionValue      float64
	DecisionProb       float64 // probability the decision value was derived from
	EffectiveRMS       float64 // fluctuation the decision value was derived from
	AllocationFraction float64
	AllocationPercent  float64

	// Holding bookkeeping.
	Held    bool
	Shares  float64
	Capital float64
}

// NewInstrument registers a fresh record for a first observation.
func NewInstrument(symbol string, ordinal int, value float64, cfg InstrumentConfig) *Instrument {
	return &Instrument{
		Symbol:       symbol,
		Ordinal:      ordinal,
		Config:       cfg,
		CurrentValue: value,
		LastValue:    value,
		FirstValue:   value,
		PendingValue: value,
		Updated:      true,
		Gn:           1,
		Pp:           0.5,
		Pt:           0.5,
		Pcomp:        1,
	}
}

// Eligible reports whether the instrument may participate in ranking this
// interval: it needs more than one completed interval and either a fresh
// observation or the unconditional-holding override.
func (in *Instrument) Eligible() bool {
	if in.TransactionCount <= 1 {
		return false
	}
	return in.Updated || in.Config.UnconditionalHold
}

// ImpliedAvg is the average of the normalized increments implied by the
// decision probability, rms*(2P - 1); portfolio aggregates are built from it.
func (in *Instrument) ImpliedAvg() float64 {
	return in.RMS * (2*in.DecisionProb - 1)
}

// Growth is the instrument's value normalized to its first observation.
func (in *Instrument) Growth() float64 {
	if in.FirstValue <= 0 {
		return 0
	}
	return in.CurrentValue / in.FirstValue
}
