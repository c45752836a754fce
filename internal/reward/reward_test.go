package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultConfig() Config {
	return Config{RecommendationBonus: 0.15, IdealMax: 60}
}

func TestComputeCompletedFullDuration(t *testing.T) {
	r := Compute(Outcome{CompletionType: Completed, SelectedMinutes: 20, FocusedMinutes: 20}, defaultConfig())
	assert.InDelta(t, 1.0, r, 1e-9)
}

func TestComputeCompletedPartialDuration(t *testing.T) {
	r := Compute(Outcome{CompletionType: Completed, SelectedMinutes: 20, FocusedMinutes: 10}, defaultConfig())
	assert.InDelta(t, 0.85, r, 1e-9)
}

func TestComputeSkippedFocus(t *testing.T) {
	r := Compute(Outcome{CompletionType: SkippedFocus, SelectedMinutes: 20, FocusedMinutes: 10}, defaultConfig())
	assert.InDelta(t, 0.20, r, 1e-9)
}

func TestComputeSkippedBreak(t *testing.T) {
	r := Compute(Outcome{CompletionType: SkippedBreak, SelectedMinutes: 20, FocusedMinutes: 20}, defaultConfig())
	assert.InDelta(t, 0.60, r, 1e-9)
}

func TestComputeAcceptedRecommendationBonus(t *testing.T) {
	withBonus := Compute(Outcome{CompletionType: SkippedFocus, AcceptedRecommendation: true, RecommendedMinutes: 20, FocusedMinutes: 10}, defaultConfig())
	withoutBonus := Compute(Outcome{CompletionType: SkippedFocus, SelectedMinutes: 20, FocusedMinutes: 10}, defaultConfig())
	assert.InDelta(t, withoutBonus+0.15, withBonus, 1e-9)
}

func TestComputeOverIdealMaxPenalty(t *testing.T) {
	r := Compute(Outcome{CompletionType: Completed, SelectedMinutes: 120, FocusedMinutes: 120}, defaultConfig())
	assert.Less(t, r, 1.0)
}

func TestComputeClampsToZeroOne(t *testing.T) {
	r := Compute(Outcome{CompletionType: SkippedFocus, SelectedMinutes: 0, FocusedMinutes: 0}, defaultConfig())
	assert.GreaterOrEqual(t, r, 0.0)
	assert.LessOrEqual(t, r, 1.0)
}

func TestComputeUnrecognizedCompletionTypeIsZeroBase(t *testing.T) {
	r := Compute(Outcome{CompletionType: "bogus", SelectedMinutes: 20, FocusedMinutes: 20}, defaultConfig())
	assert.Equal(t, 0.0, r)
}

func TestScaleToCapacityPassesThroughWhenUnknown(t *testing.T) {
	got := ScaleToCapacity(0.9, 20, 0)
	assert.Equal(t, 0.9, got)
}

func TestScaleToCapacityScalesDownWhenOverCapacity(t *testing.T) {
	got := ScaleToCapacity(1.0, 40, 20)
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestScaleToCapacityNeverExceedsOne(t *testing.T) {
	got := ScaleToCapacity(1.0, 10, 40)
	assert.LessOrEqual(t, got, 1.0)
}

func TestPenaliseRejectionReturnsBoundedNegative(t *testing.T) {
	got := PenaliseRejection(-0.30)
	assert.Equal(t, -0.30, got)
}
