// Package zone implements the ZoneGovernor: it restricts the Recommender's
// action space to a regime the user is currently operating in and migrates
// between regimes on sustained drift.
package zone

import (
	"sort"

	"github.com/focusadapt/recommender/internal/storage"
	"golang.org/x/exp/slices"
)

// Governor holds the window sizes and transition thresholds that drive zone
// migration. SelectionsWindow bounds the persisted selections queue (10);
// TransitionWindow is the number of most-recent selections the transition
// rule averages over (5) — the two are independent knobs.
type Governor struct {
	SelectionsWindow  int
	TransitionWindow  int
	TransitionUpAvg   float64
	TransitionDownAvg float64
}

// New creates a Governor with the given window sizes and hysteresis bounds.
func New(selectionsWindow, transitionWindow int, transitionUpAvg, transitionDownAvg float64) *Governor {
	return &Governor{
		SelectionsWindow:  selectionsWindow,
		TransitionWindow:  transitionWindow,
		TransitionUpAvg:   transitionUpAvg,
		TransitionDownAvg: transitionDownAvg,
	}
}

// DetectInitialZone assigns the starting zone for a context that has never
// been seen before. heuristicMinutes <= 25 -> short; >= 35 -> long;
// otherwise short for low energy, long otherwise.
func DetectInitialZone(heuristicMinutes int, energy storage.EnergyLevel) storage.Zone {
	switch {
	case heuristicMinutes <= 25:
		return storage.ZoneShort
	case heuristicMinutes >= 35:
		return storage.ZoneLong
	case energy == storage.EnergyLow:
		return storage.ZoneShort
	default:
		return storage.ZoneLong
	}
}

// Init returns a freshly-materialized ZoneData for a context seen for the
// first time.
func Init(heuristicMinutes int, energy storage.EnergyLevel) storage.ZoneData {
	return storage.ZoneData{
		Zone:       DetectInitialZone(heuristicMinutes, energy),
		Confidence: 0,
	}
}

// ArmSet returns the sorted union of the zone's base arms and its admitted
// dynamic arms.
func ArmSet(zd storage.ZoneData) []int {
	return storage.SortedUnionArms(zd.Zone, zd.DynamicArms)
}

// RecordSelection appends a chosen arm to the selections queue (evicting the
// oldest entry beyond the window), recomputes confidence, and applies the
// transition rule. If arm falls outside the current zone's base-or-dynamic
// set, it is admitted as a dynamic arm first.
func (g *Governor) RecordSelection(zd storage.ZoneData, arm int, selectionsWindow int) storage.ZoneData {
	if selectionsWindow <= 0 {
		selectionsWindow = g.SelectionsWindow
	}

	if !slices.Contains(storage.BaseArms(zd.Zone), arm) && !slices.Contains(zd.DynamicArms, arm) {
		zd.DynamicArms = append(slices.Clone(zd.DynamicArms), arm)
		sort.Ints(zd.DynamicArms)
	}

	selections := append(slices.Clone(zd.Selections), arm)
	if len(selections) > selectionsWindow {
		selections = selections[len(selections)-selectionsWindow:]
	}
	zd.Selections = selections

	zd.Confidence = confidence(len(selections))
	zd.TransitionReady = len(selections) >= g.TransitionWindow

	if len(selections) >= g.TransitionWindow {
		recent := selections
		if len(recent) > g.TransitionWindow {
			recent = recent[len(recent)-g.TransitionWindow:]
		}
		avg := average(recent)
		switch {
		case zd.Zone == storage.ZoneShort && avg >= g.TransitionUpAvg:
			zd.Zone = storage.ZoneLong
		case zd.Zone == storage.ZoneLong && avg <= g.TransitionDownAvg:
			zd.Zone = storage.ZoneShort
		}
	}

	return zd
}

// confidence is min(1, |selections| / 5).
func confidence(n int) float64 {
	c := float64(n) / 5.0
	if c > 1 {
		return 1
	}
	return c
}

func average(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum int
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}
