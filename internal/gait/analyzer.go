package gait

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/stride-data/gaitmat/internal/monitoring"
)

// PatientInfo is an opaque pass-through record attached to results for the
// report layer. The pipeline performs no validation or logic on it.
type PatientInfo struct {
	Name     string  `json:"name"`
	Age      int     `json:"age"`
	Gender   string  `json:"gender"`
	HeightCm float64 `json:"height_cm"`
	WeightKg float64 `json:"weight_kg"`
}

// FileInfo describes the analysed source.
type FileInfo struct {
	Path        string  `json:"path"`
	Format      string  `json:"format"`
	TotalFrames int     `json:"total_frames"`
	DurationS   float64 `json:"duration_s"`
	SkippedRows int     `json:"skipped_rows"`
}

// AnalysisResult is the single record returned per analysis call. It is
// immutable once returned; ownership passes to the caller, which may
// annotate and persist it without the pipeline retaining a reference.
type AnalysisResult struct {
	FileInfo FileInfo       `json:"file_info"`
	TestType TestType       `json:"test_type"`
	Gait     GaitParameters `json:"gait_parameters"`
	Balance  BalanceMetrics `json:"balance_metrics"`

	// Hardware echoes the geometry the analysis ran with.
	Hardware HardwareGeometry `json:"hardware_config"`

	// Raw series kept for downstream visualisation.
	CopTrajectory       []CopSample `json:"cop_trajectory"`
	TotalPressureSmooth []float64   `json:"total_pressure_smooth"`

	// PressureSnapshot is the frame at peak smoothed total pressure, nil
	// when the recording is empty.
	PressureSnapshot *PressureFrame `json:"-"`

	Patient *PatientInfo `json:"patient,omitempty"`
}

// AnalyzerConfig bundles the per-stage tuning.
type AnalyzerConfig struct {
	Ingest   IngestOptions
	Detector EventDetectorConfig
	Engine   GaitEngineConfig
	Balance  BalanceConfig
}

// DefaultAnalyzerConfig returns the standard walkway tuning for all stages.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Detector: DefaultEventDetectorConfig(),
		Engine:   DefaultGaitEngineConfig(),
		Balance:  DefaultBalanceConfig(),
	}
}

// Analyzer runs the full pipeline: ingestion, COP computation, contact event
// detection, gait parameters and balance metrics. It holds only immutable
// configuration, so one Analyzer may serve concurrent analyses; each call
// owns its own buffers.
type Analyzer struct {
	geo        HardwareGeometry
	cfg        AnalyzerConfig
	classifier TestTypeClassifier
}

// NewAnalyzer builds an analyzer. A nil classifier falls back to the default
// keyword classifier.
func NewAnalyzer(geo HardwareGeometry, cfg AnalyzerConfig, classifier TestTypeClassifier) *Analyzer {
	if classifier == nil {
		classifier = NewDefaultClassifier()
	}
	if cfg.Ingest.SamplingRate <= 0 {
		cfg.Ingest.SamplingRate = cfg.Detector.SamplingRate
	}
	return &Analyzer{geo: geo, cfg: cfg, classifier: classifier}
}

// AnalyzeFile ingests a CSV source from disk and runs the pipeline.
func (a *Analyzer) AnalyzeFile(path string, patient *PatientInfo) (*AnalysisResult, error) {
	series, err := IngestFile(path, a.cfg.Ingest)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", filepath.Base(path), err)
	}
	return a.analyzeSeries(series, path, patient), nil
}

// AnalyzeReader ingests a CSV stream and runs the pipeline. sourceName feeds
// test-type classification and result metadata.
func (a *Analyzer) AnalyzeReader(r io.Reader, sourceName string, patient *PatientInfo) (*AnalysisResult, error) {
	series, err := IngestCSV(r, a.cfg.Ingest)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", sourceName, err)
	}
	return a.analyzeSeries(series, sourceName, patient), nil
}

// AnalyzeFrames runs the pipeline over frames already in memory, e.g. from
// serial acquisition.
func (a *Analyzer) AnalyzeFrames(frames []PressureFrame, samplingRate float64, sourceName string, patient *PatientInfo) (*AnalysisResult, error) {
	if len(frames) == 0 {
		return nil, ErrNoValidFrames
	}
	series := &FrameSeries{Frames: frames, Format: "in_memory", SamplingRate: samplingRate}
	return a.analyzeSeries(series, sourceName, patient), nil
}

func (a *Analyzer) analyzeSeries(series *FrameSeries, sourceName string, patient *PatientInfo) *AnalysisResult {
	if series.SkippedRows > 0 {
		monitoring.Logf("gait: %s: skipped %d malformed rows", filepath.Base(sourceName), series.SkippedRows)
	}

	detCfg := a.cfg.Detector
	detCfg.SamplingRate = series.SamplingRate
	detector := NewContactEventDetector(a.geo, detCfg)
	det := detector.Detect(series.Frames)

	testType := a.classifier.Classify(sourceName)

	engine := NewGaitParameterEngine(a.geo, a.cfg.Engine)
	gait := engine.Compute(det, series.DurationS(), testType)
	balance := ComputeBalanceMetrics(det.CopTrajectory, a.cfg.Balance)

	return &AnalysisResult{
		FileInfo: FileInfo{
			Path:        sourceName,
			Format:      series.Format,
			TotalFrames: len(series.Frames),
			DurationS:   series.DurationS(),
			SkippedRows: series.SkippedRows,
		},
		TestType:            testType,
		Gait:                gait,
		Balance:             balance,
		Hardware:            a.geo,
		CopTrajectory:       det.CopTrajectory,
		TotalPressureSmooth: det.TotalPressureSmooth,
		PressureSnapshot:    snapshotAtPeak(series.Frames, det.TotalPressureSmooth),
		Patient:             patient,
	}
}

// snapshotAtPeak returns the frame at the maximum of the smoothed total
// pressure series, used downstream as the representative footprint image.
func snapshotAtPeak(frames []PressureFrame, smooth []float64) *PressureFrame {
	if len(frames) == 0 {
		return nil
	}
	best := 0
	for i, v := range smooth {
		if i < len(frames) && v > smooth[best] {
			best = i
		}
	}
	f := frames[best]
	return &f
}
