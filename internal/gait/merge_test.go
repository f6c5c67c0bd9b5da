package gait

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestMergeGaitParametersWeighted(t *testing.T) {
	a := GaitParameters{
		IsWalking:           true,
		StepCount:           10,
		AverageStepLengthCm: 60,
		AverageVelocityMps:  1.2,
		CadenceStepsPerMin:  100,
		StancePhasePct:      60,
		SwingPhasePct:       40,
		LeftStancePct:       60,
		RightStancePct:      60,
	}
	b := GaitParameters{
		IsWalking:           true,
		StepCount:           30,
		AverageStepLengthCm: 40,
		AverageVelocityMps:  0.8,
		CadenceStepsPerMin:  80,
		StancePhasePct:      64,
		SwingPhasePct:       36,
		LeftStancePct:       64,
		RightStancePct:      64,
	}

	m := MergeGaitParameters([]GaitParameters{a, b})

	// Intensive fields average weighted by step count: e.g. step length
	// (10*60 + 30*40) / 40 = 45.
	want := GaitParameters{
		IsWalking:           true,
		StepCount:           40,
		AverageStepLengthCm: 45,
		AverageVelocityMps:  0.9,
		CadenceStepsPerMin:  85,
		StancePhasePct:      63,
		SwingPhasePct:       37,
		LeftStancePct:       63,
		RightStancePct:      63,
	}
	if diff := cmp.Diff(want, m, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("merged parameters mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeGaitParametersSkipsNonWalking(t *testing.T) {
	walking := GaitParameters{IsWalking: true, StepCount: 8, AverageStepLengthCm: 50}
	seated := GaitParameters{IsWalking: false, StancePhasePct: 62}

	m := MergeGaitParameters([]GaitParameters{seated, walking, seated})
	if m.StepCount != 8 {
		t.Errorf("StepCount = %d, want 8", m.StepCount)
	}
	if m.AverageStepLengthCm != 50 {
		t.Errorf("AverageStepLengthCm = %f, want 50 (non-walking records excluded)", m.AverageStepLengthCm)
	}
}

func TestMergeGaitParametersEmpty(t *testing.T) {
	for _, in := range [][]GaitParameters{nil, {{IsWalking: false}}} {
		m := MergeGaitParameters(in)
		if m.IsWalking {
			t.Error("IsWalking = true for no walking input")
		}
		if m.StancePhasePct != 62 || m.SwingPhasePct != 38 {
			t.Errorf("phases = %f/%f, want neutral 62/38", m.StancePhasePct, m.SwingPhasePct)
		}
	}
}
