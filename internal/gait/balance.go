package gait

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// BalanceMetrics are the postural-sway figures derived from the COP
// trajectory. They are valid for any test type, including non-ambulatory
// ones; DataAvailable is false when fewer than two samples existed and all
// fields are zero.
type BalanceMetrics struct {
	DataAvailable bool `json:"data_available"`

	CopAreaCm2             float64 `json:"copArea_cm2"`
	CopPathLengthCm        float64 `json:"copPathLength_cm"`
	CopComplexity          float64 `json:"copComplexity"`
	AnteroPosteriorRangeCm float64 `json:"anteroPosteriorRange_cm"`
	MedioLateralRangeCm    float64 `json:"medioLateralRange_cm"`
	StabilityIndexPct      float64 `json:"stabilityIndex_pct"`
}

// BalanceConfig tunes the balance metric derivation.
type BalanceConfig struct {
	// ConfidenceChi2 is the chi-square critical value sizing the sway
	// ellipse; 5.991 gives the 95% ellipse for 2 degrees of freedom.
	ConfidenceChi2 float64
	// ReferenceAreaCm2 is the sway area mapped to a stability score of
	// zero. It is a calibration constant for the score scale, not a
	// physiological limit.
	ReferenceAreaCm2 float64
}

// DefaultBalanceConfig returns the standard tuning.
func DefaultBalanceConfig() BalanceConfig {
	return BalanceConfig{ConfidenceChi2: 5.991, ReferenceAreaCm2: 50}
}

// ComputeBalanceMetrics derives sway metrics from a COP trajectory in
// metres. AP excursion is taken from X (columns), ML from Y (rows), per the
// package axis convention.
func ComputeBalanceMetrics(trajectory []CopSample, cfg BalanceConfig) BalanceMetrics {
	if len(trajectory) < 2 {
		return BalanceMetrics{}
	}

	var pathM float64
	minX, maxX := trajectory[0].X, trajectory[0].X
	minY, maxY := trajectory[0].Y, trajectory[0].Y
	for i, c := range trajectory {
		if i > 0 {
			dx := c.X - trajectory[i-1].X
			dy := c.Y - trajectory[i-1].Y
			pathM += math.Hypot(dx, dy)
		}
		minX = math.Min(minX, c.X)
		maxX = math.Max(maxX, c.X)
		minY = math.Min(minY, c.Y)
		maxY = math.Max(maxY, c.Y)
	}

	m := BalanceMetrics{
		DataAvailable:          true,
		CopPathLengthCm:        pathM * 100,
		AnteroPosteriorRangeCm: (maxX - minX) * 100,
		MedioLateralRangeCm:    (maxY - minY) * 100,
	}

	m.CopAreaCm2 = confidenceEllipseAreaM2(trajectory, cfg.ConfidenceChi2) * 1e4

	if span := m.AnteroPosteriorRangeCm + m.MedioLateralRangeCm; span > 0 {
		m.CopComplexity = m.CopPathLengthCm / span
	}

	// Inverse linear mapping: larger sway area scores lower, clamped to
	// [0, 100].
	m.StabilityIndexPct = clamp(100-math.Min(100, m.CopAreaCm2/cfg.ReferenceAreaCm2*100), 0, 100)
	return m
}

// confidenceEllipseAreaM2 computes the area of the chi2-scaled confidence
// ellipse of the (x, y) point cloud: the covariance eigenvalues give the
// squared semi-axes up to the chi-square factor.
func confidenceEllipseAreaM2(trajectory []CopSample, chi2 float64) float64 {
	pts := mat.NewDense(len(trajectory), 2, nil)
	for i, c := range trajectory {
		pts.Set(i, 0, c.X)
		pts.Set(i, 1, c.Y)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, pts, nil)

	var es mat.EigenSym
	if !es.Factorize(&cov, false) {
		return 0
	}
	vals := es.Values(nil)
	// Eigenvalues of a covariance matrix are non-negative up to rounding.
	a := math.Sqrt(chi2 * math.Max(0, vals[0]))
	b := math.Sqrt(chi2 * math.Max(0, vals[1]))
	return math.Pi * a * b
}
