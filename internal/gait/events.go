package gait

import "sort"

// ContactEvent is a detected foot contact transition: a rising edge of the
// per-side contact signal is a heel-strike, a falling edge a toe-off.
type ContactEvent struct {
	FrameIndex int     `json:"frame"`
	TimeS      float64 `json:"time"`
	// X, Y hold the COP position at the nearest computed sample. When the
	// trajectory holds no sample at all, HasPosition is false and X/Y are
	// zero.
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	HasPosition bool    `json:"has_position"`
}

// SideEvents partitions the events of one foot. Within each list times are
// monotonically increasing; heel-strikes and toe-offs alternate because both
// derive from edges of a single boolean contact signal.
type SideEvents struct {
	HeelStrikes []ContactEvent `json:"hs"`
	ToeOffs     []ContactEvent `json:"to"`
}

// EventDetection is the full detector output consumed by the gait and
// balance engines.
type EventDetection struct {
	Left  SideEvents `json:"left"`
	Right SideEvents `json:"right"`

	CopTrajectory       []CopSample `json:"cop_trajectory"`
	TotalPressureSmooth []float64   `json:"total_pressure_smooth"`

	// Per-frame contact state per side, after hysteresis and heel/forefoot
	// OR-combination. Kept for step-count diagnostics and visualisation.
	LeftContact  []bool `json:"-"`
	RightContact []bool `json:"-"`
}

// EventDetectorConfig tunes contact detection.
type EventDetectorConfig struct {
	// PressureThreshold is the COP inclusion threshold in raw sensor units.
	PressureThreshold float64
	// SamplingRate in frames per second.
	SamplingRate float64
	// SmoothWindowFrac scales the moving-average window relative to the
	// sampling rate (window = SmoothWindowFrac * rate, min 3 frames).
	SmoothWindowFrac float64
	// HighQuantile and LowQuantile set the hysteresis thresholds as
	// quantiles of the non-zero smoothed regional pressure. A region enters
	// contact above the high threshold and leaves it below the low one.
	HighQuantile float64
	LowQuantile  float64
	// MinSamples is the series length below which no detection is
	// attempted; shorter inputs yield zero events, not an error.
	MinSamples int
}

// DefaultEventDetectorConfig returns the tuning used for the standard
// walkway mat at 30 Hz.
func DefaultEventDetectorConfig() EventDetectorConfig {
	return EventDetectorConfig{
		PressureThreshold: 20,
		SamplingRate:      30,
		SmoothWindowFrac:  0.2,
		HighQuantile:      0.85,
		LowQuantile:       0.65,
		MinSamples:        5,
	}
}

// ContactEventDetector derives per-side contact events from a frame
// sequence. It holds no state across calls; one detector may be reused for
// sequential analyses with the same geometry.
type ContactEventDetector struct {
	geo HardwareGeometry
	cfg EventDetectorConfig
}

// NewContactEventDetector builds a detector for the given geometry.
func NewContactEventDetector(geo HardwareGeometry, cfg EventDetectorConfig) *ContactEventDetector {
	return &ContactEventDetector{geo: geo, cfg: cfg}
}

// regionSums holds the four regional pressure-sum time series. The mat is
// split at the ML midline into left/right halves; within each half the first
// AP third is the heel band and the last AP third the forefoot band.
type regionSums struct {
	leftHeel  []float64
	leftFore  []float64
	rightHeel []float64
	rightFore []float64
}

// Detect runs the full detection pass: COP trajectory, regional pressure
// series, smoothing, hysteresis contact and edge extraction.
func (d *ContactEventDetector) Detect(frames []PressureFrame) *EventDetection {
	trajectory, totals := ComputeTrajectory(frames, d.geo, d.cfg.PressureThreshold)

	det := &EventDetection{
		CopTrajectory:       trajectory,
		TotalPressureSmooth: MovingAverage(totals, d.smoothWindow()),
	}

	if len(frames) < d.cfg.MinSamples {
		return det
	}

	sums := d.sumRegions(frames)

	lh := d.hysteresisContact(sums.leftHeel)
	lf := d.hysteresisContact(sums.leftFore)
	rh := d.hysteresisContact(sums.rightHeel)
	rf := d.hysteresisContact(sums.rightFore)

	// Either sub-region touching counts as that foot being in contact.
	det.LeftContact = orBools(lh, lf)
	det.RightContact = orBools(rh, rf)

	lookup := newPositionLookup(trajectory)
	det.Left = d.extractEvents(frames, det.LeftContact, lookup)
	det.Right = d.extractEvents(frames, det.RightContact, lookup)
	return det
}

func (d *ContactEventDetector) smoothWindow() int {
	w := int(d.cfg.SmoothWindowFrac * d.cfg.SamplingRate)
	if w < 3 {
		w = 3
	}
	return w
}

func (d *ContactEventDetector) sumRegions(frames []PressureFrame) regionSums {
	n := len(frames)
	sums := regionSums{
		leftHeel:  make([]float64, n),
		leftFore:  make([]float64, n),
		rightHeel: make([]float64, n),
		rightFore: make([]float64, n),
	}
	for i, f := range frames {
		midRow := f.Rows / 2
		third := f.Cols / 3
		if third < 1 {
			third = 1
		}
		foreStart := f.Cols - third
		for row := 0; row < f.Rows; row++ {
			left := row < midRow
			for col := 0; col < f.Cols; col++ {
				p := f.At(row, col)
				if p == 0 {
					continue
				}
				switch {
				case col < third && left:
					sums.leftHeel[i] += p
				case col < third:
					sums.rightHeel[i] += p
				case col >= foreStart && left:
					sums.leftFore[i] += p
				case col >= foreStart:
					sums.rightFore[i] += p
				}
			}
		}
	}
	return sums
}

// hysteresisContact smooths a regional pressure series and converts it to a
// boolean contact state with dual quantile thresholds (Schmitt trigger). The
// percentile basis adapts the thresholds to each test's own pressure range;
// the gap between them is what rejects threshold-crossing noise near a
// single transition.
func (d *ContactEventDetector) hysteresisContact(sig []float64) []bool {
	s := MovingAverage(sig, d.smoothWindow())
	high, ok := quantileNonZero(s, d.cfg.HighQuantile)
	if !ok {
		return make([]bool, len(s))
	}
	low, _ := quantileNonZero(s, d.cfg.LowQuantile)
	return contactWithThresholds(s, high, low)
}

// contactWithThresholds applies the Schmitt-trigger rule: enter contact at
// or above high, leave at or below low.
func contactWithThresholds(s []float64, high, low float64) []bool {
	out := make([]bool, len(s))
	state := false
	for i, v := range s {
		if !state && v >= high {
			state = true
		} else if state && v <= low {
			state = false
		}
		out[i] = state
	}
	return out
}

func orBools(a, b []bool) []bool {
	out := make([]bool, len(a))
	for i := range a {
		out[i] = a[i] || b[i]
	}
	return out
}

// extractEvents converts a contact signal into heel-strike (rising edge) and
// toe-off (falling edge) lists with timestamps and COP positions.
func (d *ContactEventDetector) extractEvents(frames []PressureFrame, contact []bool, lookup *positionLookup) SideEvents {
	var ev SideEvents
	prev := false
	for i, c := range contact {
		if c && !prev {
			ev.HeelStrikes = append(ev.HeelStrikes, lookup.eventAt(frames[i]))
		} else if !c && prev {
			ev.ToeOffs = append(ev.ToeOffs, lookup.eventAt(frames[i]))
		}
		prev = c
	}
	return ev
}

// positionLookup maps a frame index to the nearest computed COP sample.
// Contact transitions can land on frames with no sample (pressure briefly
// under threshold); the documented policy is to borrow the position of the
// nearest sample by frame index, and to emit the event without a position
// only when the whole trajectory is empty.
type positionLookup struct {
	trajectory []CopSample
}

func newPositionLookup(trajectory []CopSample) *positionLookup {
	return &positionLookup{trajectory: trajectory}
}

func (l *positionLookup) eventAt(f PressureFrame) ContactEvent {
	ev := ContactEvent{FrameIndex: f.Index, TimeS: f.TimeS}
	if len(l.trajectory) == 0 {
		return ev
	}
	i := sort.Search(len(l.trajectory), func(i int) bool {
		return l.trajectory[i].FrameIndex >= f.Index
	})
	if i == len(l.trajectory) {
		i--
	} else if i > 0 {
		if f.Index-l.trajectory[i-1].FrameIndex <= l.trajectory[i].FrameIndex-f.Index {
			i--
		}
	}
	ev.X = l.trajectory[i].X
	ev.Y = l.trajectory[i].Y
	ev.HasPosition = true
	return ev
}
