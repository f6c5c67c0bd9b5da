package gait

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Source formats recognised by the ingestor.
const (
	// FormatSixColumn is the acquisition export format: six columns
	// (time, max_pressure, timestamp, contact_area, total_pressure, data)
	// where data is a bracket-delimited comma list of all cells of one frame.
	FormatSixColumn = "six_column"
	// FormatFlatMatrix is a plain numeric matrix: one flattened frame per
	// row, or 32-row blocks stacked into one frame for 32/64-column sources.
	FormatFlatMatrix = "flat_matrix"
)

// minFrameCells is the smallest decodable frame: one 32x32 segment.
const minFrameCells = 1024

// segmentRows is the row count of a sensor segment. Multi-segment walkway
// mats widen the column count (32x64, 32x96) but keep 32 rows.
const segmentRows = 32

// PressureFrame is one immutable sensor matrix sample. Cells are row-major,
// non-negative pressure readings.
type PressureFrame struct {
	Index int     // position within the valid-frame sequence
	TimeS float64 // Index / sampling rate
	Rows  int
	Cols  int

	cells []float64
}

// NewPressureFrame builds a frame from row-major cell values. The cell slice
// is owned by the frame after the call and must not be mutated.
func NewPressureFrame(index, rows, cols int, cells []float64, samplingRate float64) (PressureFrame, error) {
	if rows*cols != len(cells) {
		return PressureFrame{}, fmt.Errorf("frame %d: %d cells do not fill %dx%d grid", index, len(cells), rows, cols)
	}
	t := 0.0
	if samplingRate > 0 {
		t = float64(index) / samplingRate
	}
	return PressureFrame{Index: index, TimeS: t, Rows: rows, Cols: cols, cells: cells}, nil
}

// At returns the cell value at (row, col). Row indexes the ML axis, col the
// AP axis.
func (f PressureFrame) At(row, col int) float64 {
	return f.cells[row*f.Cols+col]
}

// Cells returns the row-major cell values. Callers must treat the slice as
// read-only.
func (f PressureFrame) Cells() []float64 { return f.cells }

// FrameSeries is the materialised output of ingestion: the ordered valid
// frames plus sampling metadata.
type FrameSeries struct {
	Frames       []PressureFrame
	Format       string
	SamplingRate float64 // frames per second
	SkippedRows  int     // malformed rows dropped during ingestion

	// RowErrors holds the per-row decode failures behind SkippedRows, for
	// diagnostics. Capped at maxRowErrors entries.
	RowErrors []error
}

const maxRowErrors = 20

func (s *FrameSeries) skipRow(err error) {
	s.SkippedRows++
	if err != nil && len(s.RowErrors) < maxRowErrors {
		s.RowErrors = append(s.RowErrors, err)
	}
}

// DurationS returns the covered time span in seconds.
func (s *FrameSeries) DurationS() float64 {
	if s.SamplingRate <= 0 {
		return 0
	}
	return float64(len(s.Frames)) / s.SamplingRate
}

// IngestOptions controls frame ingestion.
type IngestOptions struct {
	// SamplingRate in frames per second. Defaults to 30.
	SamplingRate float64
	// ExpectedCells is the flattened frame size: 1024, 2048 or 3072 for
	// 32x32, 32x64 and 32x96 mats. Defaults to 1024.
	ExpectedCells int
}

func (o IngestOptions) withDefaults() IngestOptions {
	if o.SamplingRate <= 0 {
		o.SamplingRate = 30
	}
	if o.ExpectedCells <= 0 {
		o.ExpectedCells = minFrameCells
	}
	return o
}

// IngestFile reads and parses a CSV frame source from disk.
func IngestFile(path string, opts IngestOptions) (*FrameSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame source: %w", err)
	}
	defer f.Close()
	return IngestCSV(f, opts)
}

// IngestCSV parses a delimited frame source into a FrameSeries. Rows that
// cannot be decoded into at least 1024 cells are skipped; if no valid frame
// remains the call fails with ErrNoValidFrames. A column layout that matches
// no known grid shape fails with UnsupportedShapeError.
func IngestCSV(r io.Reader, opts IngestOptions) (*FrameSeries, error) {
	opts = opts.withDefaults()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read frame source: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoValidFrames
	}

	var series *FrameSeries
	if len(records[0]) == 6 {
		series, err = ingestSixColumn(records, opts)
	} else {
		series, err = ingestFlatMatrix(records, opts)
	}
	if err != nil {
		return nil, err
	}
	if len(series.Frames) == 0 {
		return nil, ErrNoValidFrames
	}
	return series, nil
}

func ingestSixColumn(records [][]string, opts IngestOptions) (*FrameSeries, error) {
	series := &FrameSeries{Format: FormatSixColumn, SamplingRate: opts.SamplingRate}
	cols := opts.ExpectedCells / segmentRows

	for row, rec := range records {
		if len(rec) != 6 {
			series.skipRow(&DataFormatError{Row: row, Got: len(rec), Want: 6})
			continue
		}
		cells, got := decodeCellList(rec[5], opts.ExpectedCells)
		if cells == nil {
			series.skipRow(&DataFormatError{Row: row, Got: got, Want: opts.ExpectedCells})
			continue
		}
		frame, err := NewPressureFrame(len(series.Frames), segmentRows, cols, cells, opts.SamplingRate)
		if err != nil {
			series.skipRow(err)
			continue
		}
		series.Frames = append(series.Frames, frame)
	}
	return series, nil
}

// decodeCellList parses a bracket-delimited comma list of cell values and
// truncates it to want cells. Lists shorter than the 1024-cell minimum are
// rejected. The second return is the decoded cell count, for diagnostics.
func decodeCellList(s string, want int) ([]float64, int) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil, 0
	}
	parts := strings.Split(s, ",")
	if len(parts) < minFrameCells || len(parts) < want {
		return nil, len(parts)
	}
	cells := make([]float64, want)
	for i := 0; i < want; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return nil, i
		}
		cells[i] = v
	}
	return cells, want
}

func ingestFlatMatrix(records [][]string, opts IngestOptions) (*FrameSeries, error) {
	series := &FrameSeries{Format: FormatFlatMatrix, SamplingRate: opts.SamplingRate}

	// Parse rows up front so a single bad cell drops only its own row.
	var rows [][]float64
	nCols := 0
	for _, rec := range records {
		vals, err := parseNumericRow(rec)
		if err != nil {
			series.skipRow(err)
			continue
		}
		if nCols == 0 {
			nCols = len(vals)
		}
		if len(vals) < nCols {
			series.skipRow(&DataFormatError{Row: len(rows) + series.SkippedRows, Got: len(vals), Want: nCols})
			continue
		}
		rows = append(rows, vals)
	}
	if len(rows) == 0 {
		return series, nil
	}

	switch {
	case nCols >= minFrameCells:
		// One flattened frame per row.
		want := opts.ExpectedCells
		if nCols < want {
			want = minFrameCells
		}
		cols := want / segmentRows
		for _, vals := range rows {
			if len(vals) < want {
				series.skipRow(&DataFormatError{Row: len(series.Frames), Got: len(vals), Want: want})
				continue
			}
			cells := make([]float64, want)
			copy(cells, vals[:want])
			frame, err := NewPressureFrame(len(series.Frames), segmentRows, cols, cells, opts.SamplingRate)
			if err != nil {
				series.skipRow(err)
				continue
			}
			series.Frames = append(series.Frames, frame)
		}

	case nCols == 32 || nCols == 64:
		// Stack 32 consecutive rows into one 32x32 frame; a trailing
		// partial block is dropped.
		for len(rows) >= segmentRows {
			cells := make([]float64, 0, segmentRows*segmentRows)
			for i := 0; i < segmentRows; i++ {
				cells = append(cells, rows[i][:segmentRows]...)
			}
			rows = rows[segmentRows:]
			frame, err := NewPressureFrame(len(series.Frames), segmentRows, segmentRows, cells, opts.SamplingRate)
			if err != nil {
				series.skipRow(err)
				continue
			}
			series.Frames = append(series.Frames, frame)
		}

	default:
		side := int(math.Sqrt(float64(nCols)))
		if side*side != nCols {
			return nil, &UnsupportedShapeError{Rows: len(records), Cols: nCols}
		}
		for _, vals := range rows {
			cells := make([]float64, nCols)
			copy(cells, vals[:nCols])
			frame, err := NewPressureFrame(len(series.Frames), side, side, cells, opts.SamplingRate)
			if err != nil {
				series.skipRow(err)
				continue
			}
			series.Frames = append(series.Frames, frame)
		}
	}
	return series, nil
}

func parseNumericRow(rec []string) ([]float64, error) {
	vals := make([]float64, 0, len(rec))
	for _, field := range rec {
		field = strings.TrimSpace(field)
		if field == "" {
			vals = append(vals, 0)
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}
