package monitor

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/stride-data/gaitmat/internal/gait"
)

// frameGrid adapts a pressure frame to plotter.GridXY in mat coordinates.
type frameGrid struct {
	frame *gait.PressureFrame
	geo   gait.HardwareGeometry
}

func (g frameGrid) Dims() (c, r int)   { return g.frame.Cols, g.frame.Rows }
func (g frameGrid) Z(c, r int) float64 { return g.frame.At(r, c) }
func (g frameGrid) X(c int) float64    { return float64(c) * g.geo.APScaleM() }
func (g frameGrid) Y(r int) float64    { return float64(r) * g.geo.MLScaleM() }

// SaveSnapshotHeatmap renders the peak-pressure footprint frame as a PNG
// heatmap under outputDir and returns the written path.
func SaveSnapshotHeatmap(outputDir string, res *gait.AnalysisResult) (string, error) {
	if res.PressureSnapshot == nil {
		return "", fmt.Errorf("result has no pressure snapshot")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	p := plot.New()
	p.Title.Text = "Peak Pressure Footprint"
	p.X.Label.Text = "AP (m)"
	p.Y.Label.Text = "ML (m)"

	grid := frameGrid{frame: res.PressureSnapshot, geo: res.Hardware}
	hm := plotter.NewHeatMap(grid, moreland.SmoothBlueRed().Palette(64))
	p.Add(hm)

	out := filepath.Join(outputDir, fmt.Sprintf("footprint_%d.png", res.PressureSnapshot.Index))
	if err := p.Save(8*vg.Inch, 4*vg.Inch, out); err != nil {
		return "", fmt.Errorf("failed to save heatmap: %w", err)
	}
	return out, nil
}

// SaveCopPath renders the COP trajectory as a PNG line plot under outputDir
// and returns the written path.
func SaveCopPath(outputDir string, res *gait.AnalysisResult) (string, error) {
	if len(res.CopTrajectory) < 2 {
		return "", fmt.Errorf("result has no COP trajectory")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	p := plot.New()
	p.Title.Text = "COP Path"
	p.X.Label.Text = "AP (m)"
	p.Y.Label.Text = "ML (m)"
	p.X.Min, p.X.Max = 0, res.Hardware.EffectiveLengthM
	p.Y.Min, p.Y.Max = 0, res.Hardware.WidthM

	pts := make(plotter.XYs, 0, len(res.CopTrajectory))
	for _, c := range res.CopTrajectory {
		pts = append(pts, plotter.XY{X: c.X, Y: c.Y})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return "", fmt.Errorf("failed to build line: %w", err)
	}
	p.Add(line)

	out := filepath.Join(outputDir, "cop_path.png")
	if err := p.Save(8*vg.Inch, 3*vg.Inch, out); err != nil {
		return "", fmt.Errorf("failed to save plot: %w", err)
	}
	return out, nil
}
