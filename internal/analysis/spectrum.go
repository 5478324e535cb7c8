package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the magnitude of the one-sided spectrum of series
// after removing its mean and applying a Hann window. Bin k corresponds to
// k*sampleRate/len(series).
func PowerSpectrum(series []float64) []float64 {
	n := len(series)
	if n < 2 {
		return []float64{}
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	windowed := make([]float64, n)
	for i, v := range series {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = (v - mean) * w
	}

	spectrum := fft.FFTReal(windowed)
	ps := make([]float64, n/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC bin,
// or 0 when the series is flat.
func DominantFrequency(series []float64, sampleRate float64) float64 {
	ps := PowerSpectrum(series)
	best, peak := 0, 1e-12
	for k := 1; k < len(ps); k++ {
		if ps[k] > peak {
			best, peak = k, ps[k]
		}
	}
	if best == 0 {
		return 0
	}
	return float64(best) * sampleRate / float64(len(series))
}

type Summary struct {
	Min   float64
	Max   float64
	Mean  float64
	Final float64
	// Overshoot is how far the series went past its final value, in the
	// direction it travelled from its first value.
	Overshoot float64
}

func Summarize(series []float64) Summary {
	if len(series) == 0 {
		return Summary{}
	}
	s := Summary{Min: math.Inf(1), Max: math.Inf(-1), Final: series[len(series)-1]}
	for _, v := range series {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
		s.Mean += v
	}
	s.Mean /= float64(len(series))

	if s.Final >= series[0] {
		s.Overshoot = s.Max - s.Final
	} else {
		s.Overshoot = s.Final - s.Min
	}
	return s
}
