// Package reward implements the deterministic session-outcome-to-scalar
// function that feeds every posterior update.
package reward

import "math"

// CompletionType enumerates the three outcomes a session can report.
type CompletionType string

const (
	Completed    CompletionType = "completed"
	SkippedFocus CompletionType = "skippedFocus"
	SkippedBreak CompletionType = "skippedBreak"
)

// Outcome carries the raw session outcome fed into Compute.
type Outcome struct {
	CompletionType         CompletionType
	AcceptedRecommendation bool
	FocusedMinutes         int
	SelectedMinutes        int
	RecommendedMinutes     int
}

// Config holds the tunable constants Compute consults.
type Config struct {
	RecommendationBonus float64
	IdealMax            float64
}

// Compute converts a raw session outcome into a reward in [0, 1]. Branches
// outside {skippedFocus, skippedBreak, completed} (an unrecognized
// completion type) produce a base reward of 0 before bonuses/penalties.
func Compute(o Outcome, cfg Config) float64 {
	target := o.SelectedMinutes
	if o.AcceptedRecommendation {
		target = o.RecommendedMinutes
	}

	var ratio float64
	if target > 0 {
		ratio = math.Min(1, float64(o.FocusedMinutes)/float64(target))
	}

	var r float64
	switch o.CompletionType {
	case SkippedFocus:
		r = 0.40 * ratio
	case SkippedBreak:
		r = 0.30 + 0.30*ratio
	case Completed:
		r = 0.70 + 0.30*ratio
	default:
		r = 0
	}

	if o.AcceptedRecommendation {
		r += cfg.RecommendationBonus
	}

	if float64(target) > cfg.IdealMax {
		over := (float64(target) - cfg.IdealMax) / cfg.IdealMax
		if over > 1 {
			over = 1
		}
		r -= 0.10 * over
	}

	return clamp01(r)
}

// ScaleToCapacity scales a completed-session reward toward the user's recent
// capacity before it is written to the posterior. Applied only along the
// completed-session observation path. averageCapacity <= 0 means capacity is
// unknown and the reward passes through unscaled.
func ScaleToCapacity(r float64, focusedMinutes int, averageCapacity float64) float64 {
	if averageCapacity <= 0 {
		return r
	}
	scale := averageCapacity / float64(focusedMinutes)
	if focusedMinutes == 0 {
		scale = 0
	}
	if scale > 1 {
		scale = 1
	}
	if scale < 0 {
		scale = 0
	}
	return clamp01(r * scale)
}

// PenaliseRejection returns the bounded negative weight written when a user
// dismisses an offered recommendation outright.
func PenaliseRejection(rejectionPenalty float64) float64 {
	return rejectionPenalty
}

func clamp01(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
