// Package indicators computes technical indicator series over aligned
// float64 slices. Undefined values (lookback warm-up, propagated gaps)
// are math.NaN(); outputs are always index-aligned with their input.
package indicators

import "math"

// SMA returns the arithmetic mean of the last n values ending at each
// bar. Undefined for the first n-1 bars and wherever the window contains
// an undefined value.
func SMA(s []float64, n int) []float64 {
	out := nanSlice(len(s))
	if n <= 0 || len(s) < n {
		return out
	}

	for i := n - 1; i < len(s); i++ {
		sum := 0.0
		ok := true
		for j := i - n + 1; j <= i; j++ {
			if math.IsNaN(s[j]) {
				ok = false
				break
			}
			sum += s[j]
		}
		if ok {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// EMA returns the exponentially weighted mean with smoothing factor
// 2/(n+1), seeded from the first defined value. An undefined input bar
// carries the previous EMA forward.
func EMA(s []float64, n int) []float64 {
	out := nanSlice(len(s))
	if n <= 0 {
		return out
	}
	alpha := 2.0 / (float64(n) + 1.0)

	seeded := false
	prev := 0.0
	for i, v := range s {
		if !seeded {
			if math.IsNaN(v) {
				continue
			}
			prev = v
			seeded = true
		} else if !math.IsNaN(v) {
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}

// RSI returns the Wilder-style relative strength index over n-bar
// average gains and losses. Undefined for the first n bars. When the
// average loss over the window is zero the value is undefined rather
// than pinned to 100.
func RSI(s []float64, n int) []float64 {
	gains := nanSlice(len(s))
	losses := nanSlice(len(s))
	for i := 1; i < len(s); i++ {
		if math.IsNaN(s[i]) || math.IsNaN(s[i-1]) {
			continue
		}
		delta := s[i] - s[i-1]
		if delta > 0 {
			gains[i], losses[i] = delta, 0
		} else {
			gains[i], losses[i] = 0, -delta
		}
	}

	avgGain := SMA(gains, n)
	avgLoss := SMA(losses, n)

	out := nanSlice(len(s))
	for i := range s {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) || l == 0 {
			continue
		}
		rs := g / l
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// Shift returns s displaced k bars forward in time: out[i] = s[i-k].
// Undefined for the first k bars.
func Shift(s []float64, k int) []float64 {
	if k <= 0 {
		out := make([]float64, len(s))
		copy(out, s)
		return out
	}
	out := nanSlice(len(s))
	for i := k; i < len(s); i++ {
		out[i] = s[i-k]
	}
	return out
}

// RollingStd returns the rolling sample standard deviation (n-1 divisor)
// over n-bar windows. Undefined for the first n-1 bars, for windows
// containing undefined values, and for n < 2.
func RollingStd(s []float64, n int) []float64 {
	out := nanSlice(len(s))
	if n < 2 || len(s) < n {
		return out
	}

	for i := n - 1; i < len(s); i++ {
		sum := 0.0
		ok := true
		for j := i - n + 1; j <= i; j++ {
			if math.IsNaN(s[j]) {
				ok = false
				break
			}
			sum += s[j]
		}
		if !ok {
			continue
		}
		mean := sum / float64(n)
		ss := 0.0
		for j := i - n + 1; j <= i; j++ {
			d := s[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(n-1))
	}
	return out
}

// MACD returns the MACD line (EMA(fast) - EMA(slow)), its signal line
// (EMA(signal) of the MACD line), and the histogram (line - signal).
func MACD(s []float64, fast, slow, signal int) (line, sig, hist []float64) {
	emaFast := EMA(s, fast)
	emaSlow := EMA(s, slow)

	line = nanSlice(len(s))
	for i := range s {
		line[i] = emaFast[i] - emaSlow[i]
	}

	sig = EMA(line, signal)

	hist = nanSlice(len(s))
	for i := range s {
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist
}

// BBands returns the Bollinger middle, upper, and lower bands: middle is
// SMA(n), upper/lower are middle +/- k times the rolling standard
// deviation.
func BBands(s []float64, n int, k float64) (middle, upper, lower []float64) {
	middle = SMA(s, n)
	sd := RollingStd(s, n)

	upper = nanSlice(len(s))
	lower = nanSlice(len(s))
	for i := range s {
		upper[i] = middle[i] + k*sd[i]
		lower[i] = middle[i] - k*sd[i]
	}
	return middle, upper, lower
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
