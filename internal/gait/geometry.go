// Package gait implements the pressure-frame-to-gait-parameter pipeline for
// sensor-walkway analysis: CSV/serial frame ingestion, per-frame centre of
// pressure (COP) computation, left/right contact event detection via
// hysteresis thresholding, and derivation of gait and balance parameters.
//
// Axis convention, fixed across the whole package: grid columns map to the
// anterior-posterior (AP) axis along the mat length, grid rows map to the
// medio-lateral (ML) axis across the mat width. CopSample.X is AP metres,
// CopSample.Y is ML metres.
package gait

import (
	"encoding/json"
	"fmt"
)

// HardwareGeometry maps sensor grid indices to physical distances. It is an
// immutable value constructed once per analysis run; multiple concurrent
// analyses may each carry their own geometry (e.g. different mat models).
type HardwareGeometry struct {
	// TotalLengthM is the full mat length in the AP direction (m).
	TotalLengthM float64
	// EffectiveLengthM is the sensing length in the AP direction (m).
	EffectiveLengthM float64
	// WidthM is the mat width in the ML direction (m).
	WidthM float64
	// GridSize is the sensor count along one edge of a square segment.
	GridSize int

	apScaleM float64 // metres per grid cell, AP (columns)
	mlScaleM float64 // metres per grid cell, ML (rows)
}

// NewHardwareGeometry builds a geometry from the mat dimensions and grid
// resolution. GridSize must be positive; the physical dimensions are taken
// as given.
func NewHardwareGeometry(totalLengthM, effectiveLengthM, widthM float64, gridSize int) (HardwareGeometry, error) {
	if gridSize <= 0 {
		return HardwareGeometry{}, fmt.Errorf("grid size must be positive, got %d", gridSize)
	}
	return HardwareGeometry{
		TotalLengthM:     totalLengthM,
		EffectiveLengthM: effectiveLengthM,
		WidthM:           widthM,
		GridSize:         gridSize,
		apScaleM:         effectiveLengthM / float64(gridSize),
		mlScaleM:         widthM / float64(gridSize),
	}, nil
}

// DefaultHardwareGeometry returns the geometry of the standard 3.13 m x 0.9 m
// walkway mat with a 32x32 sensor segment (2.913 m effective sensing length).
func DefaultHardwareGeometry() HardwareGeometry {
	g, err := NewHardwareGeometry(3.13, 2.913, 0.9, 32)
	if err != nil {
		panic(err) // unreachable with positive constants
	}
	return g
}

// UnmarshalJSON restores a geometry from its stored form, recomputing the
// cell pitches, which are derived and not serialised.
func (g *HardwareGeometry) UnmarshalJSON(data []byte) error {
	type plain HardwareGeometry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*g = HardwareGeometry(p)
	if g.GridSize > 0 {
		g.apScaleM = g.EffectiveLengthM / float64(g.GridSize)
		g.mlScaleM = g.WidthM / float64(g.GridSize)
	}
	return nil
}

// APScaleM returns the physical cell pitch along the AP axis in metres.
func (g HardwareGeometry) APScaleM() float64 { return g.apScaleM }

// MLScaleM returns the physical cell pitch along the ML axis in metres.
func (g HardwareGeometry) MLScaleM() float64 { return g.mlScaleM }

func (g HardwareGeometry) String() string {
	return fmt.Sprintf("mat %.2fx%.2fm (effective %.3fm), %.1fx%.1fcm/cell",
		g.TotalLengthM, g.WidthM, g.EffectiveLengthM, g.apScaleM*100, g.mlScaleM*100)
}
