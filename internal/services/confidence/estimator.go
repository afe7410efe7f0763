// Package confidence estimates the measurement accuracy of a Shannon
// probability given a finite data set size.
//
// The Shannon probability of a time series is the likelihood that its value
// increases in the next interval, measured from the average and root mean
// square of the normalized increments. Because avg and rms come from a
// finite sample of N records, each carries a measurement error; the
// confidence level c is the likelihood that the error is below a stated
// bound, and the effective probability P*c is what the wagering logic should
// use. The defining equations are transcendental, so each estimator runs a
// binary search over a precomputed table of the cumulative normal
// distribution rather than an iterative integration.
package confidence

import (
	"math"
	"sync"

	"GrowthSim/internal/domain/models"
)

const (
	// sigmas bounds the table domain at 3 standard deviations.
	sigmas = 3
	// stepsPerSigma is the table granularity per standard deviation.
	stepsPerSigma = 1000

	sigmaLimit = sigmas * stepsPerSigma
)

var (
	tableOnce sync.Once
	table     [sigmaLimit]float64
)

// buildTable fills the cumulative normal table with a fixed-step Riemann sum
// of the normal density, starting from 0.5 at x = 0. Built once, immutable
// afterwards, shared by every instrument.
func buildTable() {
	scale := 1 / math.Sqrt(2*math.Pi)
	del := 1.0 / stepsPerSigma
	x := 0.0
	sum := 0.5
	for i := 0; i < sigmaLimit; i++ {
		sum += scale * math.Exp(-(x*x)/2) / stepsPerSigma
		table[i] = sum
		x += del
	}
}

// Normal returns the cumulative normal distribution at n standard
// deviations, for nonnegative n; out of the table domain it returns 1.
func Normal(n float64) float64 {
	tableOnce.Do(buildTable)
	i := int(math.Floor(stepsPerSigma * n))
	if i < 0 || i >= sigmaLimit {
		// Out of the table domain; also catches the integer conversion of
		// an infinite argument.
		return 1
	}
	return table[i]
}

// Erf returns the error function via the cumulative normal table,
// erf(n) = 2*(Normal(n*sqrt(2)) - 0.5).
func Erf(n float64) float64 {
	return 2 * (Normal(n*math.Sqrt2) - 0.5)
}

// FromRMS solves for the confidence level c in
//
//	(rms - e + 1)/2 = ((rms + 1)/2) * c,  esigma = e/rms * sqrt(2N)
//
// by bisecting the cumulative normal table on the residual
//
//	rms - rms*esigma/sqrt(2N) + 1 - (rms + 1)*c.
//
// It loads the instrument's Pr, Pconfr and Peffr fields and returns the
// effective probability.
func FromRMS(s *models.Instrument) float64 {
	tableOnce.Do(buildTable)

	bottom, middle, top := 0, 0, sigmaLimit-1
	rms := s.RMS
	scale := rms / math.Sqrt(2*float64(s.SampleCount))

	for top > bottom {
		middle = (bottom + top) / 2
		decision := rms - scale*(float64(middle)/stepsPerSigma) + 1 - (rms+1)*table[middle]
		if decision < 0 {
			top = middle - 1
		} else {
			bottom = middle + 1
		}
	}

	c := table[middle]
	s.Pconfr = c
	s.Pr = (rms + 1) / 2
	s.Peffr = s.Pr * c
	return s.Peffr
}

// FromAvg solves the companion equation for P = (sqrt(avg) + 1)/2 with
// esigma scaled by sqrt(N). The radicand avg - e forbids searching beyond
// esigma = avg/rms*sqrt(N), so the top of the search is clamped there. A
// negative avg or a zero rms is a numerical exception answered with the
// neutral defaults P = 0.5, Peff = 0.25, c = 0.5: a worst-case Brownian
// sample rather than an error.
func FromAvg(s *models.Instrument) float64 {
	tableOnce.Do(buildTable)

	s.Pa = 0.5
	s.Peffa = 0.25
	s.Pconfa = 0.5

	avg, rms := s.Avg, s.RMS
	if avg < 0 || rms <= 0 {
		return s.Peffa
	}

	scale1 := rms / math.Sqrt(float64(s.SampleCount))
	scale2 := math.Sqrt(avg) + 1

	bottom, middle := 0, 0
	top := int(math.Floor(avg/scale1*stepsPerSigma)) - 1
	if top > sigmaLimit-1 {
		top = sigmaLimit - 1
	}

	for top > bottom {
		middle = (bottom + top) / 2
		decision := math.Sqrt(avg-scale1*(float64(middle)/stepsPerSigma)) + 1 - scale2*table[middle]
		if decision < 0 {
			top = middle - 1
		} else {
			bottom = middle + 1
		}
	}

	c := table[middle]
	s.Pconfa = c
	s.Pa = scale2 / 2
	s.Peffa = s.Pa * c
	return s.Peffa
}

// FromAvgRMS runs the rms and avg bisections for P = (avg/rms + 1)/2 and
// multiplies the two confidence levels, the errors being assumed
// independent. A zero rms degrades to the same neutral defaults as FromAvg.
func FromAvgRMS(s *models.Instrument) float64 {
	tableOnce.Do(buildTable)

	s.Par = 0.5
	s.Peffar = 0.25
	s.Pconfar = 0.5

	avg, rms := s.Avg, s.RMS
	if rms <= 0 {
		return s.Peffar
	}

	scale1 := rms / math.Sqrt(2*float64(s.SampleCount))
	scale2 := avg/rms + 1

	bottom, middle, top := 0, 0, sigmaLimit-1
	for top > bottom {
		middle = (bottom + top) / 2
		decision := avg/(rms+float64(middle)/stepsPerSigma*scale1) + 1 - scale2*table[middle]
		if decision < 0 {
			top = middle - 1
		} else {
			bottom = middle + 1
		}
	}
	cr := table[middle]

	bottom, top = 0, sigmaLimit-1
	scale1 = rms / math.Sqrt(float64(s.SampleCount))
	for top > bottom {
		middle = (bottom + top) / 2
		decision := (avg-float64(middle)/stepsPerSigma*scale1)/rms + 1 - scale2*table[middle]
		if decision < 0 {
			top = middle - 1
		} else {
			bottom = middle + 1
		}
	}
	ca := table[middle]

	s.Pconfar = ca * cr
	s.Par = scale2 / 2
	s.Peffar = s.Par * s.Pconfar
	return s.Peffar
}
