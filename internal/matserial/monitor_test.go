package matserial

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stride-data/gaitmat/internal/gait"
)

// deviceStream frames payloads the way the device does: header before each
// payload, nothing after the last one.
func deviceStream(payloads ...[]byte) []byte {
	var stream []byte
	for _, p := range payloads {
		stream = append(stream, frameHeader...)
		stream = append(stream, p...)
	}
	return stream
}

func segment(fill byte) []byte {
	p := make([]byte, segmentBytes)
	for i := range p {
		p[i] = fill
	}
	return p
}

// runMonitor collects every frame Run emits until the stream ends.
func runMonitor(t *testing.T, port Porter, cfg Config) []gait.PressureFrame {
	t.Helper()
	m := NewMonitor(port, cfg)

	out := make(chan gait.PressureFrame)
	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background(), out) }()

	var frames []gait.PressureFrame
	for {
		select {
		case f := <-out:
			frames = append(frames, f)
		case err := <-done:
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			return frames
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for monitor")
		}
	}
}

func TestScannerResync(t *testing.T) {
	// Garbage before the first header, including a partial header.
	stream := append([]byte{0x01, 0xAA, 0x55}, deviceStream([]byte{1, 2, 3}, []byte{4, 5})...)
	s := newFrameScanner(&MockPort{ReadData: stream})

	p, err := s.next()
	if err != nil {
		t.Fatalf("next() error: %v", err)
	}
	if len(p) != 3 || p[0] != 1 || p[2] != 3 {
		t.Errorf("payload = %v, want [1 2 3]", p)
	}

	// The trailing payload is flushed at end of stream.
	p, err = s.next()
	if err != nil {
		t.Fatalf("next() error: %v", err)
	}
	if len(p) != 2 || p[0] != 4 {
		t.Errorf("payload = %v, want [4 5]", p)
	}

	if _, err = s.next(); !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want io.EOF", err)
	}
}

func TestMonitorStandardMode(t *testing.T) {
	port := &MockPort{ReadData: deviceStream(segment(1), segment(2), segment(3))}
	frames := runMonitor(t, port, Config{})

	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	for i, f := range frames {
		if f.Rows != 32 || f.Cols != 32 {
			t.Errorf("frame %d: %dx%d grid, want 32x32", i, f.Rows, f.Cols)
		}
		if f.Index != i {
			t.Errorf("frame %d: Index = %d", i, f.Index)
		}
		if got := f.At(0, 0); got != float64(i+1) {
			t.Errorf("frame %d: At(0,0) = %v, want %d", i, got, i+1)
		}
	}
	if frames[2].TimeS != 2.0/30 {
		t.Errorf("TimeS = %v, want %v", frames[2].TimeS, 2.0/30)
	}
}

func TestMonitorWalkwayMode(t *testing.T) {
	// Two complete triples: each sample arrives as three segment payloads.
	port := &MockPort{ReadData: deviceStream(
		segment(1), segment(2), segment(3),
		segment(4), segment(5), segment(6),
	)}
	frames := runMonitor(t, port, Config{WalkwayMode: true})

	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	f := frames[0]
	if f.Rows != 32 || f.Cols != 96 {
		t.Fatalf("walkway frame is %dx%d, want 32x96", f.Rows, f.Cols)
	}
	cells := f.Cells()
	if cells[0] != 1 || cells[segmentBytes] != 2 || cells[2*segmentBytes] != 3 {
		t.Errorf("segment order wrong: %v %v %v", cells[0], cells[segmentBytes], cells[2*segmentBytes])
	}
	if frames[1].Cells()[0] != 4 {
		t.Errorf("second frame starts with %v, want 4", frames[1].Cells()[0])
	}
}

func TestMonitorDropsShortPayloads(t *testing.T) {
	port := &MockPort{ReadData: deviceStream(segment(1), []byte{9, 9, 9}, segment(2))}
	frames := runMonitor(t, port, Config{})

	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].At(0, 0) != 1 || frames[1].At(0, 0) != 2 {
		t.Error("short payload corrupted neighbouring frames")
	}
}

func TestMonitorWalkwayResyncAfterBadSegment(t *testing.T) {
	// A truncated segment mid-triple discards the partial sample; the next
	// complete triple still assembles.
	port := &MockPort{ReadData: deviceStream(
		segment(1), []byte{0},
		segment(4), segment(5), segment(6),
	)}
	frames := runMonitor(t, port, Config{WalkwayMode: true})

	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].Cells()[0] != 4 {
		t.Errorf("frame starts with %v, want 4", frames[0].Cells()[0])
	}
}

func TestMonitorCancel(t *testing.T) {
	port := &MockPort{ReadData: deviceStream(segment(1), segment(2)), ReadDelay: 50 * time.Millisecond}
	m := NewMonitor(port, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan gait.PressureFrame, 16)
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, out) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMonitorReadError(t *testing.T) {
	wantErr := errors.New("port gone")
	port := &MockPort{ReadError: wantErr}
	m := NewMonitor(port, Config{})

	out := make(chan gait.PressureFrame, 1)
	if err := m.Run(context.Background(), out); !errors.Is(err, wantErr) {
		t.Errorf("Run() = %v, want %v", err, wantErr)
	}
}
