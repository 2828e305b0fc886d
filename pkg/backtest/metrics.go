package backtest

import "math"

// totalReturnPct is (final equity / initial equity - 1) x 100.
func totalReturnPct(curve []float64, initial float64) float64 {
	if len(curve) == 0 || initial == 0 {
		return 0
	}
	return (curve[len(curve)-1]/initial - 1) * 100
}

// maxDrawdownPct is the largest peak-to-trough decline over the equity
// curve as a percentage of the peak. Reported as a non-positive value
// (a -25 means a 25% slide from the peak); a flat curve reports 0.
func maxDrawdownPct(curve []float64) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (v - peak) / peak
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst * 100
}

// sharpeRatio is the mean of per-period equity returns over their sample
// standard deviation, scaled by the square root of the annualization
// constant. Zero variance (or fewer than three points) reports 0.
func sharpeRatio(curve []float64, annualization float64) float64 {
	if len(curve) < 3 {
		return 0
	}

	rets := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1] == 0 {
			continue
		}
		rets = append(rets, curve[i]/curve[i-1]-1)
	}
	if len(rets) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	ss := 0.0
	for _, r := range rets {
		d := r - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(rets)-1))
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(annualization)
}
