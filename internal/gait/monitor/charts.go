// Package monitor renders analysis results as charts for the review UI:
// interactive go-echarts HTML for the browser and static gonum/plot PNGs for
// exported reports.
package monitor

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/stride-data/gaitmat/internal/gait"
)

// RenderCopScatter writes an interactive scatter of the COP trajectory as a
// standalone HTML page. Points are coloured by time so the walking direction
// is readable.
func RenderCopScatter(w io.Writer, res *gait.AnalysisResult) error {
	trajectory := res.CopTrajectory

	data := make([]opts.ScatterData, 0, len(trajectory))
	var maxT float64
	for _, c := range trajectory {
		if c.TimeS > maxT {
			maxT = c.TimeS
		}
		data = append(data, opts.ScatterData{Value: []interface{}{c.X, c.Y, c.TimeS}})
	}
	if maxT == 0 {
		maxT = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "COP Trajectory", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Centre of Pressure",
			Subtitle: fmt.Sprintf("source=%s test=%s samples=%d", res.FileInfo.Path, res.TestType, len(data)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: res.Hardware.EffectiveLengthM, Name: "AP (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: res.Hardware.WidthM, Name: "ML (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxT),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#31688e", "#35b779", "#fde725"}},
		}),
	)
	scatter.AddSeries("cop", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	return scatter.Render(w)
}

// RenderPressureLine writes the smoothed total-pressure series as a
// standalone HTML page.
func RenderPressureLine(w io.Writer, res *gait.AnalysisResult) error {
	rate := 30.0
	if res.FileInfo.DurationS > 0 && res.FileInfo.TotalFrames > 0 {
		rate = float64(res.FileInfo.TotalFrames) / res.FileInfo.DurationS
	}

	xs := make([]string, len(res.TotalPressureSmooth))
	data := make([]opts.LineData, len(res.TotalPressureSmooth))
	for i, v := range res.TotalPressureSmooth {
		xs[i] = fmt.Sprintf("%.2f", float64(i)/rate)
		data[i] = opts.LineData{Value: v}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Total Pressure", Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Smoothed Total Pressure",
			Subtitle: fmt.Sprintf("steps=%d cadence=%.1f/min", res.Gait.StepCount, res.Gait.CadenceStepsPerMin),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "pressure"}),
	)
	line.SetXAxis(xs)
	line.AddSeries("total", data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	return line.Render(w)
}
