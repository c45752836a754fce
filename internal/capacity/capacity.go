// Package capacity implements the CapacityTracker: a rolling window of
// recent sessions per context, its derived stats, and the capacity-based
// adjustment applied to a model-selected recommendation.
package capacity

import (
	"math"

	"github.com/focusadapt/recommender/internal/storage"
	"golang.org/x/exp/slices"
)

// Tracker holds the window size and stretch thresholds used by
// AdjustForCapacity.
type Tracker struct {
	Window               int
	StretchThresholdMid  float64
	StretchThresholdHigh float64
}

// New creates a Tracker with the given window size and stretch thresholds.
func New(window int, stretchMid, stretchHigh float64) *Tracker {
	return &Tracker{Window: window, StretchThresholdMid: stretchMid, StretchThresholdHigh: stretchHigh}
}

// Record appends a session outcome to the window (evicting the oldest entry
// past the window size) and recomputes the derived stats.
func (t *Tracker) Record(stats storage.CapacityStats, rec storage.SessionRecord) storage.CapacityStats {
	sessions := append(slices.Clone(stats.RecentSessions), rec)
	if len(sessions) > t.Window {
		sessions = sessions[len(sessions)-t.Window:]
	}
	stats.RecentSessions = sessions
	stats.AverageCapacity = averageCapacity(sessions)
	stats.CompletionRate = completionRate(sessions)
	stats.Trend = trend(sessions)
	return stats
}

func averageCapacity(sessions []storage.SessionRecord) float64 {
	if len(sessions) == 0 {
		return 0
	}
	var sum int
	for _, s := range sessions {
		sum += s.Actual
	}
	return float64(sum) / float64(len(sessions))
}

func completionRate(sessions []storage.SessionRecord) float64 {
	if len(sessions) == 0 {
		return 0
	}
	var completed int
	for _, s := range sessions {
		if s.Completed {
			completed++
		}
	}
	return float64(completed) / float64(len(sessions))
}

// trend fits a least-squares slope to actual[i]/selected[i] over the window
// indices. Requires at least 3 sessions, else "stable".
func trend(sessions []storage.SessionRecord) storage.Trend {
	n := len(sessions)
	if n < 3 {
		return storage.TrendStable
	}

	ratios := make([]float64, n)
	for i, s := range sessions {
		if s.Selected == 0 {
			ratios[i] = 0
			continue
		}
		ratios[i] = float64(s.Actual) / float64(s.Selected)
	}

	slope := leastSquaresSlope(ratios)
	switch {
	case slope > 0.05:
		return storage.TrendGrowing
	case slope < -0.05:
		return storage.TrendDeclining
	default:
		return storage.TrendStable
	}
}

// leastSquaresSlope fits y = a + b*x over x = 0..n-1 and returns b.
func leastSquaresSlope(ys []float64) float64 {
	n := float64(len(ys))
	if n == 0 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// roundTo5 rounds x to the nearest multiple of 5, ties resolved upward.
func roundTo5(x float64) int {
	return int(math.Floor(x/5+0.5) * 5)
}

// AdjustForCapacity applies the capacity-adjustment rule to a model-selected
// recommendation. Returns the (possibly unchanged) recommendation and
// whether the capacity step actually changed the value (used by the
// Recommender to set the "capacity" source label).
func (t *Tracker) AdjustForCapacity(modelRec int, stats storage.CapacityStats, energy storage.EnergyLevel) (int, bool) {
	if len(stats.RecentSessions) < 3 {
		return modelRec, false
	}

	if stats.CompletionRate < 0.5 {
		clamped := roundTo5(stats.AverageCapacity)
		if clamped < 10 {
			clamped = 10
		}
		return clamped, clamped != modelRec
	}

	if energy == storage.EnergyLow {
		return modelRec, false
	}

	threshold := t.StretchThresholdMid
	if energy == storage.EnergyHigh {
		threshold = t.StretchThresholdHigh
	}

	if stats.CompletionRate >= threshold && (stats.Trend == storage.TrendStable || stats.Trend == storage.TrendGrowing) {
		return modelRec + 5, true
	}

	return modelRec, false
}
