package matserial

import (
	"context"
	"errors"
	"io"

	"github.com/stride-data/gaitmat/internal/gait"
	"github.com/stride-data/gaitmat/internal/monitoring"
)

// walkwaySegments is the segment count of the walkway mat: three 32x32
// panels side by side along the walking axis, streamed as three consecutive
// payloads per sample.
const walkwaySegments = 3

// Config controls frame assembly.
type Config struct {
	// SamplingRate in frames per second, used to timestamp frames.
	// Defaults to 30.
	SamplingRate float64
	// WalkwayMode stacks three consecutive segment payloads into one
	// 32x96 frame instead of emitting each segment as a 32x32 frame.
	WalkwayMode bool
}

func (c Config) withDefaults() Config {
	if c.SamplingRate <= 0 {
		c.SamplingRate = 30
	}
	return c
}

// Monitor reads the device stream and emits assembled pressure frames.
type Monitor struct {
	port Porter
	cfg  Config
}

func NewMonitor(port Porter, cfg Config) *Monitor {
	return &Monitor{port: port, cfg: cfg.withDefaults()}
}

// Run decodes frames from the port onto out until the context is cancelled
// or the stream ends. The channel is not closed; the caller owns it. Returns
// nil on clean end of stream.
func (m *Monitor) Run(ctx context.Context, out chan<- gait.PressureFrame) error {
	scanner := newFrameScanner(m.port)

	payloads := make(chan []byte)
	scanErr := make(chan error, 1)

	// The blocking port read lives in its own goroutine so the assembly
	// loop stays responsive to cancellation.
	go func() {
		defer close(payloads)
		for {
			p, err := scanner.next()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					select {
					case scanErr <- err:
					case <-ctx.Done():
					}
				}
				return
			}
			select {
			case payloads <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	var pending []float64
	segments := 0
	index := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErr:
			return err

		case p, ok := <-payloads:
			if !ok {
				return nil
			}
			if len(p) != segmentBytes {
				monitoring.Logf("matserial: dropping %d-byte payload, want %d", len(p), segmentBytes)
				if m.cfg.WalkwayMode {
					// A malformed segment desynchronises the triple.
					pending = pending[:0]
					segments = 0
				}
				continue
			}

			cells := decodeCells(p)
			cols := segmentBytes / 32
			if m.cfg.WalkwayMode {
				pending = append(pending, cells...)
				segments++
				if segments < walkwaySegments {
					continue
				}
				cells = pending
				cols = walkwaySegments * segmentBytes / 32
				pending = nil
				segments = 0
			}

			frame, err := gait.NewPressureFrame(index, 32, cols, cells, m.cfg.SamplingRate)
			if err != nil {
				monitoring.Logf("matserial: %v", err)
				continue
			}
			index++

			select {
			case out <- frame:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func decodeCells(p []byte) []float64 {
	cells := make([]float64, len(p))
	for i, b := range p {
		cells[i] = float64(b)
	}
	return cells
}
