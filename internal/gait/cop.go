package gait

// CopSample is the pressure-weighted centroid of one frame in physical
// coordinates. Frames with no cell above the inclusion threshold produce no
// sample, so a COP trajectory may hold fewer entries than the frame sequence.
type CopSample struct {
	X             float64 `json:"x"`  // AP position (m)
	Y             float64 `json:"y"`  // ML position (m)
	TotalPressure float64 `json:"tp"` // sum of included cell values
	FrameIndex    int     `json:"frame"`
	TimeS         float64 `json:"time"`
}

// ComputeCOP returns the centre of pressure of a frame: the pressure-weighted
// centroid over cells strictly above threshold, scaled to metres by the
// geometry. The second return is false when no cell qualifies; callers must
// treat a sparse trajectory as normal, not an error.
func ComputeCOP(f PressureFrame, geo HardwareGeometry, threshold float64) (CopSample, bool) {
	var total, wx, wy float64
	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			p := f.At(row, col)
			if p <= threshold {
				continue
			}
			total += p
			wx += float64(col) * geo.apScaleM * p
			wy += float64(row) * geo.mlScaleM * p
		}
	}
	if total <= 0 {
		return CopSample{}, false
	}
	return CopSample{
		X:             wx / total,
		Y:             wy / total,
		TotalPressure: total,
		FrameIndex:    f.Index,
		TimeS:         f.TimeS,
	}, true
}

// ComputeTrajectory runs ComputeCOP over a frame sequence. The second return
// is the per-frame total pressure series, zero-filled where no cell exceeded
// the threshold, aligned with the frame indices.
func ComputeTrajectory(frames []PressureFrame, geo HardwareGeometry, threshold float64) ([]CopSample, []float64) {
	trajectory := make([]CopSample, 0, len(frames))
	totals := make([]float64, len(frames))
	for i, f := range frames {
		cop, ok := ComputeCOP(f, geo, threshold)
		if !ok {
			continue
		}
		trajectory = append(trajectory, cop)
		totals[i] = cop.TotalPressure
	}
	return trajectory, totals
}
