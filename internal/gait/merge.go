package gait

// neutralStancePct is the stance phase reported when no walking data exists,
// matching DefaultGaitEngineConfig().DefaultStancePct.
const neutralStancePct = 62.0

// MergeGaitParameters combines per-recording gait parameters from one session
// into a single summary. Intensive figures (lengths, speeds, cadence, phase
// percentages) are weighted by each recording's step count so short fragments
// do not dominate; step counts themselves are summed. Recordings that were
// not walking or detected zero steps contribute nothing. With no walking
// input at all the neutral defaults are returned.
func MergeGaitParameters(results []GaitParameters) GaitParameters {
	var acc GaitParameters
	var totalSteps float64
	for _, r := range results {
		if !r.IsWalking || r.StepCount == 0 {
			continue
		}
		w := float64(r.StepCount)
		totalSteps += w
		acc.StepCount += r.StepCount

		acc.AverageStepLengthCm += w * r.AverageStepLengthCm
		acc.AverageVelocityMps += w * r.AverageVelocityMps
		acc.CadenceStepsPerMin += w * r.CadenceStepsPerMin
		acc.StancePhasePct += w * r.StancePhasePct
		acc.SwingPhasePct += w * r.SwingPhasePct
		acc.DoubleSupportPct += w * r.DoubleSupportPct
		acc.LeftStancePct += w * r.LeftStancePct
		acc.RightStancePct += w * r.RightStancePct
		acc.TurnTimeS += w * r.TurnTimeS

		acc.Left.AverageStepLengthM += w * r.Left.AverageStepLengthM
		acc.Left.Cadence += w * r.Left.Cadence
		acc.Left.AvgSwingTimeS += w * r.Left.AvgSwingTimeS
		acc.Left.SwingSpeedMps += w * r.Left.SwingSpeedMps
		acc.Right.AverageStepLengthM += w * r.Right.AverageStepLengthM
		acc.Right.Cadence += w * r.Right.Cadence
		acc.Right.AvgSwingTimeS += w * r.Right.AvgSwingTimeS
		acc.Right.SwingSpeedMps += w * r.Right.SwingSpeedMps
	}

	if totalSteps == 0 {
		return GaitParameters{
			StancePhasePct: neutralStancePct,
			SwingPhasePct:  100 - neutralStancePct,
			LeftStancePct:  neutralStancePct,
			RightStancePct: neutralStancePct,
		}
	}

	acc.IsWalking = true
	acc.AverageStepLengthCm /= totalSteps
	acc.AverageVelocityMps /= totalSteps
	acc.CadenceStepsPerMin /= totalSteps
	acc.StancePhasePct /= totalSteps
	acc.SwingPhasePct /= totalSteps
	acc.DoubleSupportPct /= totalSteps
	acc.LeftStancePct /= totalSteps
	acc.RightStancePct /= totalSteps
	acc.TurnTimeS /= totalSteps

	acc.Left.AverageStepLengthM /= totalSteps
	acc.Left.Cadence /= totalSteps
	acc.Left.AvgSwingTimeS /= totalSteps
	acc.Left.SwingSpeedMps /= totalSteps
	acc.Right.AverageStepLengthM /= totalSteps
	acc.Right.Cadence /= totalSteps
	acc.Right.AvgSwingTimeS /= totalSteps
	acc.Right.SwingSpeedMps /= totalSteps

	return acc
}
