package gait

import (
	"math/rand"
	"testing"
)

// stepFrames builds a synthetic walking sequence on the default 32x32 mat.
// Footfalls alternate left/right at advancing AP positions, with pressure
// confined to the heel (cols < 10) and forefoot (cols >= 22) bands so the
// regional contact channels see every step. The cycle is 2.2 s at 30 Hz.
func stepFrames(t *testing.T, n int) []PressureFrame {
	t.Helper()
	const (
		rate       = 30.0
		cycle      = 66 // frames per left/right pair, 2.2 s
		contactLen = 16 // frames a foot stays down, ~0.53 s
	)
	frames := make([]PressureFrame, 0, n)
	for i := 0; i < n; i++ {
		cells := make([]float64, 32*32)
		phase := i % cycle
		pair := i / cycle

		var rows []int
		var stepIdx, sincePlant int
		switch {
		case phase < contactLen:
			rows = []int{6, 7, 8} // left half of the mat
			stepIdx = 2 * pair
			sincePlant = phase
		case phase >= 33 && phase < 33+contactLen:
			rows = []int{22, 23, 24} // right half
			stepIdx = 2*pair + 1
			sincePlant = phase - 33
		}

		if rows != nil {
			// Loading ramps up through the contact so the regional signal is
			// not a flat plateau, as on a real mat.
			value := 60 + 10*float64(sincePlant)
			heelCol := 2 + stepIdx%7
			foreCol := 22 + stepIdx%7
			for _, r := range rows {
				for dc := 0; dc < 2; dc++ {
					cells[r*32+heelCol+dc] = value
					cells[r*32+foreCol+dc] = value
				}
			}
		}

		f, err := NewPressureFrame(i, 32, 32, cells, rate)
		if err != nil {
			t.Fatalf("NewPressureFrame: %v", err)
		}
		frames = append(frames, f)
	}
	return frames
}

func TestContactWithThresholdsHysteresis(t *testing.T) {
	t.Run("noise between thresholds causes no transitions", func(t *testing.T) {
		// Signal oscillates inside the hysteresis band after one entry: the
		// dual thresholds must hold the state without toggling.
		rng := rand.New(rand.NewSource(42))
		s := []float64{0, 0, 100} // entry at the high threshold
		for i := 0; i < 50; i++ {
			s = append(s, 70+rng.Float64()*20) // stays in (60, 100)
		}
		s = append(s, 10) // exit below the low threshold

		contact := contactWithThresholds(s, 100, 60)
		transitions := 0
		for i := 1; i < len(contact); i++ {
			if contact[i] != contact[i-1] {
				transitions++
			}
		}
		if transitions != 2 {
			t.Errorf("transitions = %d, want exactly one rise and one fall", transitions)
		}
	})

	t.Run("enter at high, leave at low", func(t *testing.T) {
		s := []float64{0, 80, 100, 80, 60, 0}
		contact := contactWithThresholds(s, 100, 60)
		want := []bool{false, false, true, true, false, false}
		for i := range want {
			if contact[i] != want[i] {
				t.Errorf("contact[%d] = %v, want %v (full: %v)", i, contact[i], want[i], contact)
				break
			}
		}
	})
}

func TestDetectEventsAlternate(t *testing.T) {
	geo := DefaultHardwareGeometry()
	det := NewContactEventDetector(geo, DefaultEventDetectorConfig()).Detect(stepFrames(t, 300))

	lhs, rhs := len(det.Left.HeelStrikes), len(det.Right.HeelStrikes)
	if lhs < 4 || lhs > 5 {
		t.Errorf("left heel-strikes = %d, want 4..5", lhs)
	}
	if rhs < 4 || rhs > 5 {
		t.Errorf("right heel-strikes = %d, want 4..5", rhs)
	}
	if d := len(det.Left.ToeOffs) - lhs; d < -1 || d > 0 {
		t.Errorf("left toe-offs = %d for %d heel-strikes", len(det.Left.ToeOffs), lhs)
	}

	// Events alternate: each heel-strike precedes its toe-off.
	for i, hs := range det.Left.HeelStrikes {
		if i < len(det.Left.ToeOffs) && det.Left.ToeOffs[i].TimeS <= hs.TimeS {
			t.Errorf("toe-off %d at %f not after heel-strike at %f", i, det.Left.ToeOffs[i].TimeS, hs.TimeS)
		}
	}

	// Every event carries a COP position borrowed from the trajectory.
	for _, hs := range det.Left.HeelStrikes {
		if !hs.HasPosition {
			t.Error("heel-strike missing COP position despite non-empty trajectory")
		}
	}
}

func TestDetectTooFewSamples(t *testing.T) {
	geo := DefaultHardwareGeometry()
	det := NewContactEventDetector(geo, DefaultEventDetectorConfig()).Detect(stepFrames(t, 3))

	if len(det.Left.HeelStrikes) != 0 || len(det.Right.HeelStrikes) != 0 {
		t.Error("expected no events below the minimum sample count")
	}
	if len(det.TotalPressureSmooth) != 3 {
		t.Errorf("smoothed totals length = %d, want 3", len(det.TotalPressureSmooth))
	}
}

func TestDetectEmptyMat(t *testing.T) {
	geo := DefaultHardwareGeometry()
	frames := make([]PressureFrame, 20)
	for i := range frames {
		f, err := NewPressureFrame(i, 32, 32, make([]float64, 32*32), 30)
		if err != nil {
			t.Fatalf("NewPressureFrame: %v", err)
		}
		frames[i] = f
	}
	det := NewContactEventDetector(geo, DefaultEventDetectorConfig()).Detect(frames)

	if len(det.CopTrajectory) != 0 {
		t.Errorf("trajectory length = %d, want 0 for an unloaded mat", len(det.CopTrajectory))
	}
	if len(det.Left.HeelStrikes) != 0 || len(det.Right.HeelStrikes) != 0 {
		t.Error("expected no events for an unloaded mat")
	}
}

func TestPositionLookupNearest(t *testing.T) {
	trajectory := []CopSample{
		{X: 1, Y: 1, FrameIndex: 10},
		{X: 2, Y: 2, FrameIndex: 20},
	}
	lookup := newPositionLookup(trajectory)

	tests := []struct {
		name  string
		frame int
		wantX float64
	}{
		{"before first sample", 5, 1},
		{"closer to first", 13, 1},
		{"closer to second", 18, 2},
		{"after last sample", 30, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := NewPressureFrame(tt.frame, 4, 4, make([]float64, 16), 30)
			ev := lookup.eventAt(f)
			if !ev.HasPosition {
				t.Fatal("expected a borrowed position")
			}
			if ev.X != tt.wantX {
				t.Errorf("X = %f, want %f", ev.X, tt.wantX)
			}
		})
	}

	t.Run("empty trajectory", func(t *testing.T) {
		empty := newPositionLookup(nil)
		f, _ := NewPressureFrame(7, 4, 4, make([]float64, 16), 30)
		ev := empty.eventAt(f)
		if ev.HasPosition {
			t.Error("expected HasPosition false for empty trajectory")
		}
		if ev.FrameIndex != 7 {
			t.Errorf("FrameIndex = %d, want 7", ev.FrameIndex)
		}
	})
}
