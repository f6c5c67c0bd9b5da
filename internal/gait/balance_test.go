package gait

import (
	"math"
	"testing"
)

func TestComputeBalanceMetricsInsufficientData(t *testing.T) {
	cfg := DefaultBalanceConfig()

	for _, n := range []int{0, 1} {
		m := ComputeBalanceMetrics(make([]CopSample, n), cfg)
		if m.DataAvailable {
			t.Errorf("n=%d: DataAvailable = true, want false", n)
		}
		if m.CopAreaCm2 != 0 || m.CopPathLengthCm != 0 {
			t.Errorf("n=%d: expected zero metrics, got %+v", n, m)
		}
	}
}

func TestComputeBalanceMetricsEllipseArea(t *testing.T) {
	// Points on an axis-aligned ellipse with semi-axes a, b (metres). The
	// coordinate variances are a^2/2 and b^2/2, so the 95% confidence ellipse
	// area is pi * a * b * chi2 / 2.
	const (
		a = 0.04
		b = 0.02
		n = 720
	)
	trajectory := make([]CopSample, n)
	for i := range trajectory {
		theta := 2 * math.Pi * float64(i) / n
		trajectory[i] = CopSample{
			X:          1.0 + a*math.Cos(theta),
			Y:          0.45 + b*math.Sin(theta),
			FrameIndex: i,
			TimeS:      float64(i) / 30,
		}
	}

	cfg := DefaultBalanceConfig()
	m := ComputeBalanceMetrics(trajectory, cfg)
	if !m.DataAvailable {
		t.Fatal("DataAvailable = false")
	}

	wantCm2 := math.Pi * a * b * cfg.ConfidenceChi2 / 2 * 1e4
	if rel := math.Abs(m.CopAreaCm2-wantCm2) / wantCm2; rel > 0.05 {
		t.Errorf("CopAreaCm2 = %f, want %f within 5%%", m.CopAreaCm2, wantCm2)
	}

	if got, want := m.AnteroPosteriorRangeCm, 2*a*100; math.Abs(got-want) > 0.01 {
		t.Errorf("AP range = %f cm, want %f", got, want)
	}
	if got, want := m.MedioLateralRangeCm, 2*b*100; math.Abs(got-want) > 0.01 {
		t.Errorf("ML range = %f cm, want %f", got, want)
	}

	// One full lap: path length close to the ellipse perimeter.
	perimeterCm := ellipsePerimeterM(a, b) * 100
	if rel := math.Abs(m.CopPathLengthCm-perimeterCm) / perimeterCm; rel > 0.02 {
		t.Errorf("path = %f cm, want ~%f", m.CopPathLengthCm, perimeterCm)
	}

	if m.CopComplexity <= 0 {
		t.Errorf("CopComplexity = %f, want > 0", m.CopComplexity)
	}
}

// ellipsePerimeterM approximates the ellipse perimeter (Ramanujan).
func ellipsePerimeterM(a, b float64) float64 {
	h := (a - b) * (a - b) / ((a + b) * (a + b))
	return math.Pi * (a + b) * (1 + 3*h/(10+math.Sqrt(4-3*h)))
}

func TestStabilityIndexScale(t *testing.T) {
	cfg := DefaultBalanceConfig()

	t.Run("tight sway scores high", func(t *testing.T) {
		// Millimetre-scale sway: area well under the reference.
		trajectory := swayCircle(0.001, 100)
		m := ComputeBalanceMetrics(trajectory, cfg)
		if m.StabilityIndexPct < 95 {
			t.Errorf("StabilityIndexPct = %f, want >= 95 for mm-scale sway", m.StabilityIndexPct)
		}
	})

	t.Run("large sway clamps to zero", func(t *testing.T) {
		// Decimetre-scale sway: area far above the reference.
		trajectory := swayCircle(0.2, 100)
		m := ComputeBalanceMetrics(trajectory, cfg)
		if m.StabilityIndexPct != 0 {
			t.Errorf("StabilityIndexPct = %f, want 0", m.StabilityIndexPct)
		}
	})
}

func swayCircle(radiusM float64, n int) []CopSample {
	trajectory := make([]CopSample, n)
	for i := range trajectory {
		theta := 2 * math.Pi * float64(i) / float64(n)
		trajectory[i] = CopSample{
			X:          1.0 + radiusM*math.Cos(theta),
			Y:          0.45 + radiusM*math.Sin(theta),
			FrameIndex: i,
			TimeS:      float64(i) / 30,
		}
	}
	return trajectory
}

func TestComputeBalanceMetricsDegenerateLine(t *testing.T) {
	// All samples on one line: one covariance eigenvalue is ~0, so the
	// ellipse area collapses but nothing blows up.
	trajectory := make([]CopSample, 50)
	for i := range trajectory {
		trajectory[i] = CopSample{X: float64(i) * 0.01, Y: 0.45, FrameIndex: i, TimeS: float64(i) / 30}
	}
	m := ComputeBalanceMetrics(trajectory, DefaultBalanceConfig())
	if !m.DataAvailable {
		t.Fatal("DataAvailable = false")
	}
	if m.CopAreaCm2 > 1e-6 {
		t.Errorf("CopAreaCm2 = %g, want ~0 for collinear samples", m.CopAreaCm2)
	}
	if m.MedioLateralRangeCm != 0 {
		t.Errorf("ML range = %f, want 0", m.MedioLateralRangeCm)
	}
}
