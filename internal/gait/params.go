package gait

import (
	"math"
	"sort"
)

// FootParameters are the per-side gait figures.
type FootParameters struct {
	AverageStepLengthM float64 `json:"average_step_length_m"`
	Cadence            float64 `json:"cadence"`
	AvgSwingTimeS      float64 `json:"avg_swing_time_s"`
	SwingSpeedMps      float64 `json:"swing_speed_mps"`
}

// GaitParameters is the primary engine output. When IsWalking is false the
// step, cadence and velocity fields are zero and the phase fields hold the
// neutral 62/38 stance/swing split, so a static or seated test never reports
// spurious gait figures.
type GaitParameters struct {
	IsWalking           bool    `json:"is_walking"`
	StepCount           int     `json:"step_count"`
	AverageStepLengthCm float64 `json:"average_step_length_cm"`
	AverageVelocityMps  float64 `json:"average_velocity_mps"`
	CadenceStepsPerMin  float64 `json:"cadence_steps_per_min"`
	StancePhasePct      float64 `json:"stance_phase_pct"`
	SwingPhasePct       float64 `json:"swing_phase_pct"`
	DoubleSupportPct    float64 `json:"double_support_pct"`
	LeftStancePct       float64 `json:"left_stance_pct"`
	RightStancePct      float64 `json:"right_stance_pct"`
	TurnTimeS           float64 `json:"turn_time_s"`

	Left  FootParameters `json:"left_foot"`
	Right FootParameters `json:"right_foot"`
}

// GaitEngineConfig tunes the parameter derivation. All thresholds carry
// their clinical units in the field name.
type GaitEngineConfig struct {
	// Activity gate: below max(MinAPRangeM, APRangeEffectiveFrac x
	// effective mat length) of AP COP excursion the test is judged
	// non-ambulatory.
	MinAPRangeM          float64
	APRangeEffectiveFrac float64

	// MinStrideM rejects same-side heel-strike pairs closer than this AP
	// distance as detection artifacts (double-counted contact toggles).
	MinStrideM float64

	// Cadence interval plausibility window and reporting gate.
	CadenceMinIntervalS float64
	CadenceMaxIntervalS float64
	MinCadenceSteps     int
	MinCadenceSpanS     float64

	// Stance/cycle plausibility windows for phase estimation.
	StanceMinS float64
	StanceMaxS float64
	CycleMinS  float64
	CycleMaxS  float64

	// DoubleSupportFloorPct is the switchover: when the stance-overlap
	// estimate falls below it, the algebraic L+R-100 fallback is used.
	DoubleSupportFloorPct float64

	// TurnVelocityFrac bounds the low-velocity window around an AP
	// direction reversal, as a fraction of peak |v|.
	TurnVelocityFrac float64

	// WalkwayOneWayM is the one-way course length of the round-trip
	// walkway protocol; the correction rescales step length to
	// 2 x WalkwayOneWayM / step count.
	WalkwayOneWayM float64

	// DefaultStancePct is the neutral stance phase reported when no
	// plausible cycle is available.
	DefaultStancePct float64
}

// DefaultGaitEngineConfig returns the standard walkway tuning.
func DefaultGaitEngineConfig() GaitEngineConfig {
	return GaitEngineConfig{
		MinAPRangeM:           0.30,
		APRangeEffectiveFrac:  0.10,
		MinStrideM:            0.35,
		CadenceMinIntervalS:   0.4,
		CadenceMaxIntervalS:   2.5,
		MinCadenceSteps:       4,
		MinCadenceSpanS:       5.0,
		StanceMinS:            0.3,
		StanceMaxS:            1.5,
		CycleMinS:             0.4,
		CycleMaxS:             2.5,
		DoubleSupportFloorPct: 1.0,
		TurnVelocityFrac:      0.2,
		WalkwayOneWayM:        4.5,
		DefaultStancePct:      62.0,
	}
}

// GaitParameterEngine derives gait parameters from detector output.
type GaitParameterEngine struct {
	geo HardwareGeometry
	cfg GaitEngineConfig
}

// NewGaitParameterEngine builds an engine for the given geometry.
func NewGaitParameterEngine(geo HardwareGeometry, cfg GaitEngineConfig) *GaitParameterEngine {
	return &GaitParameterEngine{geo: geo, cfg: cfg}
}

// Compute derives the full parameter set. durationS is the covered recording
// time; testType selects protocol-specific handling (walkway distance
// correction for round-trip tests).
func (e *GaitParameterEngine) Compute(det *EventDetection, durationS float64, testType TestType) GaitParameters {
	p := GaitParameters{
		StancePhasePct: e.cfg.DefaultStancePct,
		SwingPhasePct:  100 - e.cfg.DefaultStancePct,
		LeftStancePct:  e.cfg.DefaultStancePct,
		RightStancePct: e.cfg.DefaultStancePct,
	}

	if !e.isWalking(det.CopTrajectory) {
		return p
	}
	p.IsWalking = true

	leftHS := det.Left.HeelStrikes
	rightHS := det.Right.HeelStrikes
	p.StepCount = len(leftHS) + len(rightHS)

	leftSteps := e.stepLengthsM(leftHS)
	rightSteps := e.stepLengthsM(rightHS)
	p.Left.AverageStepLengthM = mean(leftSteps)
	p.Right.AverageStepLengthM = mean(rightSteps)
	p.AverageStepLengthCm = mean(append(append([]float64{}, leftSteps...), rightSteps...)) * 100

	merged := mergeByTime(leftHS, rightHS)
	p.AverageVelocityMps = e.velocityMps(merged)

	p.Left.Cadence = e.cadence(leftHS)
	p.Right.Cadence = e.cadence(rightHS)
	if p.StepCount >= e.cfg.MinCadenceSteps && durationS >= e.cfg.MinCadenceSpanS {
		p.CadenceStepsPerMin = e.cadence(merged)
	}

	p.LeftStancePct = e.stancePct(det.Left)
	p.RightStancePct = e.stancePct(det.Right)
	p.StancePhasePct = (p.LeftStancePct + p.RightStancePct) / 2
	p.SwingPhasePct = 100 - p.StancePhasePct

	p.DoubleSupportPct = e.doubleSupport(det, p.LeftStancePct, p.RightStancePct)

	leftSwing := swingTimes(det.Left)
	rightSwing := swingTimes(det.Right)
	// A side with no clean swing interval borrows the contralateral mean
	// rather than reporting zero.
	if len(leftSwing) == 0 {
		leftSwing = rightSwing
	}
	if len(rightSwing) == 0 {
		rightSwing = leftSwing
	}
	p.Left.AvgSwingTimeS = mean(leftSwing)
	p.Right.AvgSwingTimeS = mean(rightSwing)
	if p.Left.AvgSwingTimeS > 0 {
		p.Left.SwingSpeedMps = p.Left.AverageStepLengthM / p.Left.AvgSwingTimeS
	}
	if p.Right.AvgSwingTimeS > 0 {
		p.Right.SwingSpeedMps = p.Right.AverageStepLengthM / p.Right.AvgSwingTimeS
	}

	p.TurnTimeS = e.turnTime(det.CopTrajectory)

	if testType == TestWalkwayTurn {
		e.applyWalkwayCorrection(&p)
	}
	return p
}

// isWalking is the activity gate: the AP excursion of the COP trajectory
// must reach max(MinAPRangeM, APRangeEffectiveFrac x effective length).
func (e *GaitParameterEngine) isWalking(trajectory []CopSample) bool {
	if len(trajectory) < 2 {
		return false
	}
	minX, maxX := trajectory[0].X, trajectory[0].X
	for _, c := range trajectory[1:] {
		if c.X < minX {
			minX = c.X
		}
		if c.X > maxX {
			maxX = c.X
		}
	}
	gate := math.Max(e.cfg.MinAPRangeM, e.cfg.APRangeEffectiveFrac*e.geo.EffectiveLengthM)
	return maxX-minX >= gate
}

// stepLengthsM converts same-side heel-strike pairs into clinical step
// lengths: the AP stride between consecutive strikes divided by two. Strides
// under MinStrideM are discarded as double-counted contact noise.
func (e *GaitParameterEngine) stepLengthsM(hs []ContactEvent) []float64 {
	var steps []float64
	for i := 1; i < len(hs); i++ {
		if !hs[i].HasPosition || !hs[i-1].HasPosition {
			continue
		}
		stride := math.Abs(hs[i].X - hs[i-1].X)
		if stride < e.cfg.MinStrideM {
			continue
		}
		steps = append(steps, stride/2)
	}
	return steps
}

// velocityMps is cumulative AP displacement across all heel-strikes divided
// by the elapsed event time. Summing |dx| folds turn-around segments of a
// round-trip test into the distance without explicit turn detection.
func (e *GaitParameterEngine) velocityMps(merged []ContactEvent) float64 {
	if len(merged) < 2 {
		return 0
	}
	var dist float64
	for i := 1; i < len(merged); i++ {
		if merged[i].HasPosition && merged[i-1].HasPosition {
			dist += math.Abs(merged[i].X - merged[i-1].X)
		}
	}
	span := merged[len(merged)-1].TimeS - merged[0].TimeS
	if span <= 0 {
		return 0
	}
	return dist / span
}

// cadence is 60 over the mean inter-strike interval, with non-physiological
// intervals excluded before averaging.
func (e *GaitParameterEngine) cadence(hs []ContactEvent) float64 {
	var intervals []float64
	for i := 1; i < len(hs); i++ {
		iv := hs[i].TimeS - hs[i-1].TimeS
		if iv >= e.cfg.CadenceMinIntervalS && iv <= e.cfg.CadenceMaxIntervalS {
			intervals = append(intervals, iv)
		}
	}
	if len(intervals) == 0 {
		return 0
	}
	return 60.0 / mean(intervals)
}

// stancePct averages the stance fraction over gait cycles: for each
// heel-strike, the next toe-off strictly before the following heel-strike
// closes the stance interval. Implausible stance or cycle durations are
// excluded; with no plausible cycle the neutral default is returned.
func (e *GaitParameterEngine) stancePct(side SideEvents) float64 {
	hs, to := side.HeelStrikes, side.ToeOffs
	var pcts []float64
	for k := 0; k+1 < len(hs); k++ {
		hsT, nextT := hs[k].TimeS, hs[k+1].TimeS
		toT, ok := toeOffWithin(to, hsT, nextT)
		if !ok {
			continue
		}
		stance := toT - hsT
		cycle := nextT - hsT
		if stance >= e.cfg.StanceMinS && stance <= e.cfg.StanceMaxS &&
			cycle >= e.cfg.CycleMinS && cycle <= e.cfg.CycleMaxS {
			pcts = append(pcts, stance/cycle*100)
		}
	}
	if len(pcts) == 0 {
		return e.cfg.DefaultStancePct
	}
	return mean(pcts)
}

func toeOffWithin(to []ContactEvent, after, before float64) (float64, bool) {
	for _, t := range to {
		if t.TimeS > after && t.TimeS < before {
			return t.TimeS, true
		}
	}
	return 0, false
}

// doubleSupport prefers the direct overlap of left and right stance
// intervals per cycle; when that estimate is implausibly low it falls back
// to the algebraic left+right-100, clamped to [0, 40].
func (e *GaitParameterEngine) doubleSupport(det *EventDetection, leftStancePct, rightStancePct float64) float64 {
	overlap := e.stanceOverlapPct(det.Left, det.Right)
	if overlap >= e.cfg.DoubleSupportFloorPct {
		return overlap
	}
	return clamp(leftStancePct+rightStancePct-100, 0, 40)
}

func (e *GaitParameterEngine) stanceOverlapPct(left, right SideEvents) float64 {
	l := stanceIntervals(left)
	r := stanceIntervals(right)
	cycles := len(left.HeelStrikes) - 1
	if rc := len(right.HeelStrikes) - 1; rc < cycles {
		cycles = rc
	}
	if len(l) == 0 || len(r) == 0 || cycles <= 0 {
		return 0
	}
	var pcts []float64
	for i := 0; i < cycles; i++ {
		if i >= len(l) || i >= len(r) {
			break
		}
		o := math.Min(l[i][1], r[i][1]) - math.Max(l[i][0], r[i][0])
		if o < 0 {
			o = 0
		}
		cycle := math.Min(
			left.HeelStrikes[i+1].TimeS-left.HeelStrikes[i].TimeS,
			right.HeelStrikes[i+1].TimeS-right.HeelStrikes[i].TimeS,
		)
		if cycle > 0 {
			pcts = append(pcts, o/cycle*100)
		}
	}
	return mean(pcts)
}

// stanceIntervals pairs each heel-strike with the toe-off inside its cycle.
func stanceIntervals(side SideEvents) [][2]float64 {
	hs, to := side.HeelStrikes, side.ToeOffs
	var iv [][2]float64
	n := len(to)
	if m := len(hs) - 1; m < n {
		n = m
	}
	for k := 0; k < n; k++ {
		if hs[k].TimeS < to[k].TimeS && to[k].TimeS < hs[k+1].TimeS {
			iv = append(iv, [2]float64{hs[k].TimeS, to[k].TimeS})
		}
	}
	return iv
}

// swingTimes collects toe-off to next same-side heel-strike durations.
func swingTimes(side SideEvents) []float64 {
	hs, to := side.HeelStrikes, side.ToeOffs
	var times []float64
	n := len(to)
	if m := len(hs) - 1; m < n {
		n = m
	}
	for i := 0; i < n; i++ {
		if hs[i].TimeS < to[i].TimeS && to[i].TimeS < hs[i+1].TimeS {
			times = append(times, hs[i+1].TimeS-to[i].TimeS)
		}
	}
	return times
}

// turnTime finds the first sign reversal of the AP COP velocity and measures
// the surrounding window where |v| stays below TurnVelocityFrac of its peak.
func (e *GaitParameterEngine) turnTime(trajectory []CopSample) float64 {
	if len(trajectory) < 3 {
		return 0
	}
	xs := make([]float64, len(trajectory))
	ts := make([]float64, len(trajectory))
	for i, c := range trajectory {
		xs[i] = c.X
		ts[i] = c.TimeS
	}
	v := gradient(xs, ts)

	flip := -1
	for i := 1; i < len(v); i++ {
		if v[i]*v[i-1] < 0 {
			flip = i
			break
		}
	}
	if flip < 0 {
		return 0
	}

	var peak float64
	for _, vi := range v {
		if a := math.Abs(vi); a > peak {
			peak = a
		}
	}
	thr := math.Max(0.05, e.cfg.TurnVelocityFrac*peak)

	start, end := flip, flip
	for start > 0 && math.Abs(v[start-1]) < thr {
		start--
	}
	for end < len(v)-1 && math.Abs(v[end+1]) < thr {
		end++
	}
	return math.Max(0, ts[end]-ts[start])
}

// applyWalkwayCorrection rescales the reported step lengths of a round-trip
// walkway test to total course distance over detected step count. The
// sensing mat covers only part of the walked course, so raw on-mat AP
// displacement underestimates true step length.
func (e *GaitParameterEngine) applyWalkwayCorrection(p *GaitParameters) {
	if p.StepCount == 0 {
		return
	}
	totalM := 2 * e.cfg.WalkwayOneWayM
	targetCm := totalM * 100 / float64(p.StepCount)
	if p.AverageStepLengthCm > 0 {
		scale := targetCm / p.AverageStepLengthCm
		p.Left.AverageStepLengthM *= scale
		p.Right.AverageStepLengthM *= scale
	} else {
		// No on-mat estimate to scale; split the corrected length evenly.
		p.Left.AverageStepLengthM = targetCm / 100
		p.Right.AverageStepLengthM = targetCm / 100
	}
	p.AverageStepLengthCm = targetCm
}

func mergeByTime(a, b []ContactEvent) []ContactEvent {
	merged := make([]ContactEvent, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].TimeS < merged[j].TimeS })
	return merged
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
