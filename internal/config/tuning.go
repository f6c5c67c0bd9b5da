package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stride-data/gaitmat/internal/gait"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for analysis tuning.
// All fields are pointers; nil means "use the built-in default", so partial
// configs are safe.
type TuningConfig struct {
	// Mat geometry
	MatGridSize         *int     `json:"mat_grid_size,omitempty"`
	MatTotalLengthM     *float64 `json:"mat_total_length_m,omitempty"`
	MatEffectiveLengthM *float64 `json:"mat_effective_length_m,omitempty"`
	MatWidthM           *float64 `json:"mat_width_m,omitempty"`

	// Ingestion / contact detection params
	SamplingRate      *float64 `json:"sampling_rate,omitempty"`
	PressureThreshold *float64 `json:"pressure_threshold,omitempty"`
	SmoothWindowFrac  *float64 `json:"smooth_window_frac,omitempty"`
	HighQuantile      *float64 `json:"high_quantile,omitempty"`
	LowQuantile       *float64 `json:"low_quantile,omitempty"`

	// Gait engine params
	MinStrideM     *float64 `json:"min_stride_m,omitempty"`
	MinAPRangeM    *float64 `json:"min_ap_range_m,omitempty"`
	WalkwayOneWayM *float64 `json:"walkway_one_way_m,omitempty"`

	// Balance params
	ConfidenceChi2   *float64 `json:"confidence_chi2,omitempty"`
	ReferenceAreaCm2 *float64 `json:"reference_area_cm2,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.MatGridSize != nil && *c.MatGridSize <= 0 {
		return fmt.Errorf("mat_grid_size must be positive, got %d", *c.MatGridSize)
	}
	if c.SamplingRate != nil && *c.SamplingRate <= 0 {
		return fmt.Errorf("sampling_rate must be positive, got %f", *c.SamplingRate)
	}
	if c.PressureThreshold != nil && *c.PressureThreshold < 0 {
		return fmt.Errorf("pressure_threshold must be non-negative, got %f", *c.PressureThreshold)
	}
	if c.HighQuantile != nil {
		if *c.HighQuantile <= 0 || *c.HighQuantile >= 1 {
			return fmt.Errorf("high_quantile must be between 0 and 1, got %f", *c.HighQuantile)
		}
	}
	if c.LowQuantile != nil {
		if *c.LowQuantile <= 0 || *c.LowQuantile >= 1 {
			return fmt.Errorf("low_quantile must be between 0 and 1, got %f", *c.LowQuantile)
		}
	}
	if c.HighQuantile != nil && c.LowQuantile != nil && *c.LowQuantile > *c.HighQuantile {
		return fmt.Errorf("low_quantile (%f) must not exceed high_quantile (%f)", *c.LowQuantile, *c.HighQuantile)
	}
	if c.MinStrideM != nil && *c.MinStrideM < 0 {
		return fmt.Errorf("min_stride_m must be non-negative, got %f", *c.MinStrideM)
	}
	if c.WalkwayOneWayM != nil && *c.WalkwayOneWayM <= 0 {
		return fmt.Errorf("walkway_one_way_m must be positive, got %f", *c.WalkwayOneWayM)
	}
	if c.ReferenceAreaCm2 != nil && *c.ReferenceAreaCm2 <= 0 {
		return fmt.Errorf("reference_area_cm2 must be positive, got %f", *c.ReferenceAreaCm2)
	}
	return nil
}

// GetSamplingRate returns the sampling_rate value or the default.
func (c *TuningConfig) GetSamplingRate() float64 {
	if c.SamplingRate == nil {
		return gait.DefaultEventDetectorConfig().SamplingRate
	}
	return *c.SamplingRate
}

// GetPressureThreshold returns the pressure_threshold value or the default.
func (c *TuningConfig) GetPressureThreshold() float64 {
	if c.PressureThreshold == nil {
		return gait.DefaultEventDetectorConfig().PressureThreshold
	}
	return *c.PressureThreshold
}

// Geometry materialises the mat geometry, falling back to the standard
// walkway mat for unset fields.
func (c *TuningConfig) Geometry() (gait.HardwareGeometry, error) {
	def := gait.DefaultHardwareGeometry()
	total := def.TotalLengthM
	effective := def.EffectiveLengthM
	width := def.WidthM
	grid := def.GridSize
	if c.MatTotalLengthM != nil {
		total = *c.MatTotalLengthM
	}
	if c.MatEffectiveLengthM != nil {
		effective = *c.MatEffectiveLengthM
	}
	if c.MatWidthM != nil {
		width = *c.MatWidthM
	}
	if c.MatGridSize != nil {
		grid = *c.MatGridSize
	}
	return gait.NewHardwareGeometry(total, effective, width, grid)
}

// AnalyzerConfig materialises the full per-stage analysis tuning, with
// built-in defaults for any unset field.
func (c *TuningConfig) AnalyzerConfig() gait.AnalyzerConfig {
	cfg := gait.DefaultAnalyzerConfig()

	cfg.Detector.SamplingRate = c.GetSamplingRate()
	cfg.Detector.PressureThreshold = c.GetPressureThreshold()
	if c.SmoothWindowFrac != nil {
		cfg.Detector.SmoothWindowFrac = *c.SmoothWindowFrac
	}
	if c.HighQuantile != nil {
		cfg.Detector.HighQuantile = *c.HighQuantile
	}
	if c.LowQuantile != nil {
		cfg.Detector.LowQuantile = *c.LowQuantile
	}

	if c.MinStrideM != nil {
		cfg.Engine.MinStrideM = *c.MinStrideM
	}
	if c.MinAPRangeM != nil {
		cfg.Engine.MinAPRangeM = *c.MinAPRangeM
	}
	if c.WalkwayOneWayM != nil {
		cfg.Engine.WalkwayOneWayM = *c.WalkwayOneWayM
	}

	if c.ConfidenceChi2 != nil {
		cfg.Balance.ConfidenceChi2 = *c.ConfidenceChi2
	}
	if c.ReferenceAreaCm2 != nil {
		cfg.Balance.ReferenceAreaCm2 = *c.ReferenceAreaCm2
	}

	cfg.Ingest.SamplingRate = cfg.Detector.SamplingRate
	return cfg
}
