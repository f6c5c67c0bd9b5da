package gait

import (
	"math"
	"testing"
)

func TestMovingAverage(t *testing.T) {
	t.Run("window below 2 returns input", func(t *testing.T) {
		in := []float64{1, 2, 3}
		out := MovingAverage(in, 1)
		for i := range in {
			if out[i] != in[i] {
				t.Fatalf("out[%d] = %f, want %f", i, out[i], in[i])
			}
		}
	})

	t.Run("constant series stays constant in the interior", func(t *testing.T) {
		in := make([]float64, 20)
		for i := range in {
			in[i] = 5
		}
		out := MovingAverage(in, 4)
		for i := 2; i < 18; i++ {
			if math.Abs(out[i]-5) > 1e-9 {
				t.Fatalf("out[%d] = %f, want 5", i, out[i])
			}
		}
		// Zero padding pulls the edges down.
		if out[0] >= 5 {
			t.Errorf("out[0] = %f, want < 5 from zero padding", out[0])
		}
	})

	t.Run("length preserved", func(t *testing.T) {
		in := []float64{1, 2, 3, 4, 5, 6, 7}
		if got := len(MovingAverage(in, 3)); got != len(in) {
			t.Errorf("len = %d, want %d", got, len(in))
		}
	})
}

func TestQuantileNonZero(t *testing.T) {
	t.Run("ignores zeros", func(t *testing.T) {
		s := []float64{0, 0, 0, 10, 20, 30, 40}
		q, ok := quantileNonZero(s, 0.5)
		if !ok {
			t.Fatal("expected a quantile")
		}
		if q < 10 || q > 40 {
			t.Errorf("q = %f, want within the non-zero values", q)
		}
	})

	t.Run("all zeros", func(t *testing.T) {
		if _, ok := quantileNonZero([]float64{0, 0, 0}, 0.85); ok {
			t.Error("expected no quantile for all-zero input")
		}
	})

	t.Run("high quantile exceeds low", func(t *testing.T) {
		s := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		hi, _ := quantileNonZero(s, 0.85)
		lo, _ := quantileNonZero(s, 0.65)
		if hi <= lo {
			t.Errorf("hi = %f not above lo = %f", hi, lo)
		}
	})
}

func TestGradientLinear(t *testing.T) {
	// y = 2t: the derivative is 2 everywhere, including the one-sided ends.
	ts := []float64{0, 0.5, 1.0, 1.5, 2.0}
	ys := make([]float64, len(ts))
	for i, tv := range ts {
		ys[i] = 2 * tv
	}
	v := gradient(ys, ts)
	for i := range v {
		if math.Abs(v[i]-2) > 1e-9 {
			t.Errorf("v[%d] = %f, want 2", i, v[i])
		}
	}
}

func TestGradientSignFlip(t *testing.T) {
	// Out-and-back motion: the velocity must change sign once.
	ts := []float64{0, 1, 2, 3, 4}
	ys := []float64{0, 1, 2, 1.5, 0}
	v := gradient(ys, ts)
	flips := 0
	for i := 1; i < len(v); i++ {
		if v[i]*v[i-1] < 0 {
			flips++
		}
	}
	if flips != 1 {
		t.Errorf("sign flips = %d, want 1 (v = %v)", flips, v)
	}
}
