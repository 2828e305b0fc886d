package indicators

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

// checkSeries compares an output series against expected values, where
// NaN in the expected slice means the position must be undefined.
func checkSeries(t *testing.T, name string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: expected length %d, got %d", name, len(want), len(got))
	}
	for i := range want {
		switch {
		case math.IsNaN(want[i]):
			if !math.IsNaN(got[i]) {
				t.Errorf("%s[%d]: expected NaN, got %v", name, i, got[i])
			}
		case math.IsNaN(got[i]):
			t.Errorf("%s[%d]: expected %v, got NaN", name, i, want[i])
		case !almostEqual(got[i], want[i]):
			t.Errorf("%s[%d]: expected %v, got %v", name, i, want[i], got[i])
		}
	}
}

func TestSMA(t *testing.T) {
	nan := math.NaN()
	in := []float64{1, 2, 3, 4, 5}
	checkSeries(t, "SMA(3)", SMA(in, 3), []float64{nan, nan, 2, 3, 4})
	checkSeries(t, "SMA(1)", SMA(in, 1), []float64{1, 2, 3, 4, 5})

	// Window longer than the series: everything undefined.
	out := SMA(in, 10)
	for i, v := range out {
		if !math.IsNaN(v) {
			t.Errorf("SMA(10)[%d]: expected NaN, got %v", i, v)
		}
	}
}

func TestSMAWithGaps(t *testing.T) {
	nan := math.NaN()
	in := []float64{1, nan, 3, 4, 5}
	// Any window containing the gap is undefined.
	checkSeries(t, "SMA gaps", SMA(in, 2), []float64{nan, nan, nan, 3.5, 4.5})
}

func TestEMA(t *testing.T) {
	in := []float64{10, 11, 12}
	out := EMA(in, 3) // alpha = 0.5

	if !almostEqual(out[0], 10) {
		t.Errorf("EMA seeds at the first value: expected 10, got %v", out[0])
	}
	if !almostEqual(out[1], 10.5) {
		t.Errorf("EMA[1]: expected 10.5, got %v", out[1])
	}
	if !almostEqual(out[2], 11.25) {
		t.Errorf("EMA[2]: expected 11.25, got %v", out[2])
	}
}

func TestEMASeedsPastLeadingGap(t *testing.T) {
	nan := math.NaN()
	in := []float64{nan, nan, 10, 12}
	out := EMA(in, 3)

	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Error("EMA should stay undefined before the first defined value")
	}
	if !almostEqual(out[2], 10) {
		t.Errorf("EMA[2]: expected seed 10, got %v", out[2])
	}
	if !almostEqual(out[3], 11) {
		t.Errorf("EMA[3]: expected 11, got %v", out[3])
	}
}

func TestRSI(t *testing.T) {
	// Alternating +2/-1 deltas: avg gain 1, avg loss 0.5 on each 2-bar window.
	in := []float64{10, 12, 11, 13, 12, 14}
	out := RSI(in, 2)

	for i := 0; i < 2; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("RSI[%d]: expected warm-up NaN, got %v", i, out[i])
		}
	}
	// From bar 2 on, rs = 1/0.5 = 2 and RSI = 100 - 100/3.
	want := 100 - 100.0/3.0
	for i := 2; i < len(in); i++ {
		if !almostEqual(out[i], want) {
			t.Errorf("RSI[%d]: expected %v, got %v", i, want, out[i])
		}
	}
}

func TestRSIZeroLossUndefined(t *testing.T) {
	// Straight up: no losses in any window, so RSI stays undefined
	// instead of pinning to 100.
	in := []float64{1, 2, 3, 4, 5, 6}
	out := RSI(in, 3)
	for i, v := range out {
		if !math.IsNaN(v) {
			t.Errorf("RSI[%d]: expected NaN for zero average loss, got %v", i, v)
		}
	}
}

func TestShift(t *testing.T) {
	nan := math.NaN()
	in := []float64{1, 2, 3, 4}
	checkSeries(t, "Shift(1)", Shift(in, 1), []float64{nan, 1, 2, 3})
	checkSeries(t, "Shift(3)", Shift(in, 3), []float64{nan, nan, nan, 1})
	checkSeries(t, "Shift(0)", Shift(in, 0), in)

	// Shift(0) must return a copy, not the input slice.
	out := Shift(in, 0)
	out[0] = 99
	if in[0] != 1 {
		t.Error("Shift(0) must not alias its input")
	}
}

func TestRollingStd(t *testing.T) {
	nan := math.NaN()
	in := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	out := RollingStd(in, 4)

	for i := 0; i < 3; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("RollingStd[%d]: expected warm-up NaN, got %v", i, out[i])
		}
	}
	// Window [2,4,4,4]: mean 3.5, sample variance (2.25+0.25*3)/3 = 1.
	if !almostEqual(out[3], 1) {
		t.Errorf("RollingStd[3]: expected 1, got %v", out[3])
	}

	// n < 2 is always undefined.
	checkSeries(t, "RollingStd(1)", RollingStd(in[:3], 1), []float64{nan, nan, nan})
}

func TestMACDHistogramIdentity(t *testing.T) {
	in := []float64{10, 11, 13, 12, 14, 15, 14, 16, 18, 17, 19, 20}
	line, sig, hist := MACD(in, 3, 6, 4)

	for i := range in {
		if math.IsNaN(line[i]) || math.IsNaN(sig[i]) {
			if !math.IsNaN(hist[i]) {
				t.Errorf("hist[%d]: expected NaN when inputs undefined", i)
			}
			continue
		}
		if !almostEqual(hist[i], line[i]-sig[i]) {
			t.Errorf("hist[%d]: expected line-signal %v, got %v", i, line[i]-sig[i], hist[i])
		}
	}
}

func TestBBands(t *testing.T) {
	in := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	middle, upper, lower := BBands(in, 4, 2)

	sd := RollingStd(in, 4)
	sma := SMA(in, 4)
	for i := range in {
		if math.IsNaN(sma[i]) {
			if !math.IsNaN(upper[i]) || !math.IsNaN(lower[i]) {
				t.Errorf("bands[%d]: expected NaN during warm-up", i)
			}
			continue
		}
		if !almostEqual(middle[i], sma[i]) {
			t.Errorf("middle[%d]: expected SMA %v, got %v", i, sma[i], middle[i])
		}
		if !almostEqual(upper[i], sma[i]+2*sd[i]) {
			t.Errorf("upper[%d]: expected %v, got %v", i, sma[i]+2*sd[i], upper[i])
		}
		if !almostEqual(lower[i], sma[i]-2*sd[i]) {
			t.Errorf("lower[%d]: expected %v, got %v", i, sma[i]-2*sd[i], lower[i])
		}
	}
}
