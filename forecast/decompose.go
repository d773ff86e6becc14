package forecast

// Decomposition is an additive split of a series into trend, seasonal and
// residual parts. Trend and Residual have the length of the input; Seasonal
// has one value per phase of the period.
type Decomposition struct {
	Trend    []float64
	Seasonal []float64
	Residual []float64
	Period   int
}

// Decompose splits series with a centered moving-average trend and a
// phase-averaged seasonal component. It is a simple approximation, not STL,
// and carries no statistical guarantees. Reconstruction is exact:
// series[i] == Trend[i] + Seasonal[i%Period] + Residual[i].
func Decompose(series []float64, period int) Decomposition {
	if period < 1 {
		period = 1
	}
	n := len(series)
	half := period / 2

	trend := make([]float64, n)
	for i := range series {
		lo := max(0, i-half)
		hi := min(n-1, i+half)
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += series[j]
		}
		trend[i] = sum / float64(hi-lo+1)
	}

	seasonal := make([]float64, period)
	counts := make([]int, period)
	for i, v := range series {
		p := i % period
		seasonal[p] += v - trend[i]
		counts[p]++
	}
	for p := range seasonal {
		if counts[p] > 0 {
			seasonal[p] /= float64(counts[p])
		}
	}

	residual := make([]float64, n)
	for i, v := range series {
		residual[i] = v - trend[i] - seasonal[i%period]
	}

	return Decomposition{
		Trend:    trend,
		Seasonal: seasonal,
		Residual: residual,
		Period:   period,
	}
}

// Reconstruct returns trend + seasonal + residual at every index
func (d Decomposition) Reconstruct() []float64 {
	out := make([]float64, len(d.Trend))
	for i := range d.Trend {
		out[i] = d.Trend[i] + d.Seasonal[i%d.Period] + d.Residual[i]
	}
	return out
}
