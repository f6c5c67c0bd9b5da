// Command analyze runs the gait analysis pipeline over recorded CSV files
// and prints the results as JSON. With several walking recordings the
// per-file gait parameters are additionally merged into a step-count
// weighted composite, the way a multi-trial session is reported.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/stride-data/gaitmat/internal/config"
	"github.com/stride-data/gaitmat/internal/gait"
	"github.com/stride-data/gaitmat/internal/gait/monitor"
	"github.com/stride-data/gaitmat/internal/units"
)

var (
	tuningFile = flag.String("config", "", "Tuning config JSON (defaults apply when empty)")
	lengthUnit = flag.String("length-unit", units.CM, "Step length unit in log lines: "+units.GetValidLengthUnitsString())
	speedUnit  = flag.String("speed-unit", units.MPS, "Velocity unit in log lines: mps, kmph")
	chartsDir  = flag.String("charts", "", "Write COP and footprint PNGs into this directory")
	quiet      = flag.Bool("q", false, "Suppress per-file log lines, emit JSON only")
	pretty     = flag.Bool("pretty", true, "Indent the JSON output")
)

type fileOutput struct {
	Source string               `json:"source"`
	Error  string               `json:"error,omitempty"`
	Result *gait.AnalysisResult `json:"result,omitempty"`
}

type output struct {
	Files   []fileOutput         `json:"files"`
	Summary *gait.GaitParameters `json:"summary,omitempty"`
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] recording.csv [recording.csv ...]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	if !units.IsValidLength(*lengthUnit) {
		log.Fatalf("invalid length unit %q, valid: %s", *lengthUnit, units.GetValidLengthUnitsString())
	}
	if !units.IsValidSpeed(*speedUnit) {
		log.Fatalf("invalid speed unit %q, valid: mps, kmph", *speedUnit)
	}

	tuning := config.EmptyTuningConfig()
	if *tuningFile != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*tuningFile)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}
	geo, err := tuning.Geometry()
	if err != nil {
		log.Fatalf("invalid mat geometry: %v", err)
	}
	analyzer := gait.NewAnalyzer(geo, tuning.AnalyzerConfig(), nil)

	var out output
	var gaitParams []gait.GaitParameters
	for _, path := range flag.Args() {
		res, err := analyzer.AnalyzeFile(path, nil)
		if err != nil {
			log.Printf("%s: %v", path, err)
			out.Files = append(out.Files, fileOutput{Source: path, Error: err.Error()})
			continue
		}
		out.Files = append(out.Files, fileOutput{Source: path, Result: res})
		if res.Gait.IsWalking {
			gaitParams = append(gaitParams, res.Gait)
		}
		if !*quiet {
			logSummaryLine(path, res)
		}
		if *chartsDir != "" {
			writeCharts(path, res)
		}
	}

	if len(gaitParams) > 1 {
		merged := gait.MergeGaitParameters(gaitParams)
		out.Summary = &merged
		if !*quiet {
			log.Printf("merged %d walking trials: steps=%d step_length=%s velocity=%s cadence=%.1f/min",
				len(gaitParams), merged.StepCount,
				formatLength(merged.AverageStepLengthCm/100),
				formatSpeed(merged.AverageVelocityMps),
				merged.CadenceStepsPerMin)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		log.Fatalf("failed to encode output: %v", err)
	}
}

// logSummaryLine prints one human-readable line per analysed file, with
// lengths and speeds in the requested units. The JSON output stays in the
// pipeline's canonical units.
func logSummaryLine(path string, res *gait.AnalysisResult) {
	name := filepath.Base(path)
	if !res.Gait.IsWalking {
		log.Printf("%s: type=%s not walking, stability=%.1f%% cop_area=%.1fcm2",
			name, res.TestType, res.Balance.StabilityIndexPct, res.Balance.CopAreaCm2)
		return
	}
	log.Printf("%s: type=%s steps=%d step_length=%s velocity=%s cadence=%.1f/min stance=%.1f%%",
		name, res.TestType, res.Gait.StepCount,
		formatLength(res.Gait.AverageStepLengthCm/100),
		formatSpeed(res.Gait.AverageVelocityMps),
		res.Gait.CadenceStepsPerMin, res.Gait.StancePhasePct)
}

func formatLength(m float64) string {
	return fmt.Sprintf("%.2f%s", units.ConvertLength(m, *lengthUnit), *lengthUnit)
}

func formatSpeed(mps float64) string {
	return fmt.Sprintf("%.2f%s", units.ConvertSpeed(mps, *speedUnit), *speedUnit)
}

// writeCharts renders the per-file PNGs into a subdirectory named after the
// recording, so trials do not overwrite each other.
func writeCharts(source string, res *gait.AnalysisResult) {
	base := filepath.Base(source)
	dir := filepath.Join(*chartsDir, strings.TrimSuffix(base, filepath.Ext(base)))
	if p, err := monitor.SaveCopPath(dir, res); err != nil {
		log.Printf("%s: cop chart: %v", source, err)
	} else {
		log.Printf("%s: wrote %s", source, p)
	}
	if p, err := monitor.SaveSnapshotHeatmap(dir, res); err != nil {
		log.Printf("%s: footprint chart: %v", source, err)
	} else {
		log.Printf("%s: wrote %s", source, p)
	}
}
