package models

// Observation is one record of the input series: the closing value of an
// instrument for a labeled interval. Labels are opaque; a change of label in
// the stream closes the current interval.
type Observation struct {
	Interval string  `json:"interval"`
	Symbol   string  `json:"symbol"`
	Value    float64 `json:"value"`
}

// Holding is one accepted instrument with its committed capital. Holdings
// are ephemeral: the set is discarded and rebuilt on every rebalance.
type Holding struct {
	Symbol   string  `json:"symbol"`
	Value    float64 `json:"value"`
	Shares   float64 `json:"shares"`
	Capital  float64 `json:"capital"`
	Fraction float64 `json:"fraction"`
	Percent  float64 `json:"percent"`
	Decision float64 `json:"decision"`
	Prob     float64 `json:"prob"`
}

// Portfolio is the outcome of one rebalance pass.
type Portfolio struct {
	Holdings []Holding `json:"holdings"`

	// Aggregates over the accepted set.
	AvgP float64 `json:"avgP"` // mean of the probability-implied avgs
	RmsP float64 `json:"rmsP"` // quadrature mean of the rms values
	Gp   float64 `json:"gp"`   // aggregate growth expectation

	// MarginReciprocal is the advisory leverage ratio; reported, never
	// enforced.
	MarginReciprocal float64 `json:"marginReciprocal"`
}

// Snapshot is the per-interval report produced for external consumers.
type Snapshot struct {
	Interval  string    `json:"interval"`
	Sequence  int       `json:"sequence"`
	Portfolio Portfolio `json:"portfolio"`

	Cash        float64 `json:"cash"`
	TotalValue  float64 `json:"totalValue"`
	IndexValue  float64 `json:"indexValue"`
	Instruments int     `json:"instruments"`
}

// InstrumentReport is the per-instrument statistics view for the HTTP
// surface.
type InstrumentReport struct {
	Symbol           string  `json:"symbol"`
	Value            float64 `json:"value"`
	TransactionCount int     `json:"transactionCount"`
	SampleCount      int     `json:"sampleCount"`

	Avg float64 `json:"avg"`
	RMS float64 `json:"rms"`

	Par     float64 `json:"par"`
	Pa      float64 `json:"pa"`
	Pr      float64 `json:"pr"`
	Pconfar float64 `json:"pconfar"`
	Pconfa  float64 `json:"pconfa"`
	Pconfr  float64 `json:"pconfr"`
	Peffar  float64 `json:"peffar"`
	Peffa   float64 `json:"peffa"`
	Peffr   float64 `json:"peffr"`

	Pcomp float64 `json:"pcomp"`
	Pt    float64 `json:"pt"`
	Pp    float64 `json:"pp"`

	AvgEff float64 `json:"avgEff"` // rms*(2*Peffar - 1)
	RMSEff float64 `json:"rmsEff"` // fluctuation used by the decision value
	ErfN   float64 `json:"erfN"`   // erf(1/sqrt(sampleCount))

	Decision float64 `json:"decision"`
	Fraction float64 `json:"fraction"`
	Held     bool    `json:"held"`
}
