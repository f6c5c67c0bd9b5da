package gait

import (
	"errors"
	"fmt"
)

// ErrNoValidFrames is returned when a source contains no decodable frames
// after malformed rows have been skipped. It is fatal for the call.
var ErrNoValidFrames = errors.New("no valid pressure frames in source")

// DataFormatError describes a single row that could not be decoded into the
// expected cell count. Ingestion recovers from it locally by skipping the
// row; it is only surfaced through FrameSeries.SkippedRows and diagnostics.
type DataFormatError struct {
	Row  int // zero-based row index in the source
	Got  int // decoded cell count
	Want int // minimum cell count required
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("row %d: decoded %d cells, need at least %d", e.Row, e.Got, e.Want)
}

// UnsupportedShapeError indicates the source's column layout cannot be mapped
// to any known sensor grid. Fatal: no partial processing is attempted.
type UnsupportedShapeError struct {
	Rows int
	Cols int
}

func (e *UnsupportedShapeError) Error() string {
	return fmt.Sprintf("unsupported source shape %dx%d: not a known grid layout or perfect square", e.Rows, e.Cols)
}
