package storage

import (
	"sort"
	"strings"
	"time"
)

// #region energy

// EnergyLevel is the user's self-reported energy at recommendation time.
type EnergyLevel string

const (
	EnergyUnset EnergyLevel = "unset"
	EnergyLow   EnergyLevel = "low"
	EnergyMid   EnergyLevel = "mid"
	EnergyHigh  EnergyLevel = "high"
)

// rank orders energy levels low < mid < high for the cross-energy floor rule.
// Unset has no rank and never participates in the floor comparison.
func (e EnergyLevel) rank() int {
	switch e {
	case EnergyLow:
		return 0
	case EnergyMid:
		return 1
	case EnergyHigh:
		return 2
	default:
		return -1
	}
}

// LowerLevels returns every energy level strictly below e, ordered low-to-high.
// Returns nil for EnergyLow and EnergyUnset.
func (e EnergyLevel) LowerLevels() []EnergyLevel {
	switch e {
	case EnergyMid:
		return []EnergyLevel{EnergyLow}
	case EnergyHigh:
		return []EnergyLevel{EnergyLow, EnergyMid}
	default:
		return nil
	}
}

// #endregion energy

// #region context

// Context is the (task kind, energy level) pair that identifies one
// learning context. TaskType should be passed through NormalizeTaskType
// before constructing a Context that will be used as a storage key.
type Context struct {
	TaskType    string
	EnergyLevel EnergyLevel
}

// NormalizeTaskType trims whitespace and leading-letter-cases the task type.
// An empty result is equivalent to "unset" task type.
func NormalizeTaskType(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	r := []rune(trimmed)
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}

// Key returns the deterministic context key used to address ModelState,
// ZoneData and CapacityStats: "${taskType}|${energyLevel}".
func (c Context) Key() string {
	return c.TaskType + "|" + string(c.EnergyLevel)
}

// BreakKey returns the key of this context's paired break posterior:
// "${taskType}-break|${energyLevel}".
func (c Context) BreakKey() string {
	return c.TaskType + "-break|" + string(c.EnergyLevel)
}

// #endregion context

// #region arms

// Zone restricts the Recommender to a regime of the 10-60 minute range.
type Zone string

const (
	ZoneShort Zone = "short"
	ZoneLong  Zone = "long"
)

// ArmsShort, ArmsLong and BreakArms are the fixed base arm sets.
// Short and long overlap at 25 and 30 so a zone transition never orphans a
// user mid-preference.
var (
	ArmsShort = []int{10, 15, 20, 25, 30}
	ArmsLong  = []int{25, 30, 35, 40, 45, 50, 55, 60}
	BreakArms = []int{5, 10, 15, 20}
)

// BaseArms returns the base arm set for a zone.
func BaseArms(z Zone) []int {
	if z == ZoneLong {
		return ArmsLong
	}
	return ArmsShort
}

// SortedUnionArms returns the sorted, de-duplicated union of a zone's base
// arms with a set of admitted dynamic arms.
func SortedUnionArms(z Zone, dynamicArms []int) []int {
	seen := make(map[int]struct{})
	for _, a := range BaseArms(z) {
		seen[a] = struct{}{}
	}
	for _, a := range dynamicArms {
		seen[a] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Ints(out)
	return out
}

// PermittedBreaks returns BREAK_ARMS filtered by a <= max(5, floor(focusMinutes/3)).
func PermittedBreaks(focusMinutes int) []int {
	ceiling := focusMinutes / 3
	if ceiling < 5 {
		ceiling = 5
	}
	out := make([]int, 0, len(BreakArms))
	for _, a := range BreakArms {
		if a <= ceiling {
			out = append(out, a)
		}
	}
	return out
}

// #endregion arms

// #region posterior

// ArmPosterior is a Beta(alpha, beta) belief about one arm's success rate.
type ArmPosterior struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// N returns the observation count n(a) = alpha + beta - alpha0 - beta0.
func (p ArmPosterior) N(alpha0, beta0 float64) float64 {
	n := p.Alpha + p.Beta - alpha0 - beta0
	if n < 0 {
		return 0
	}
	return n
}

// Mean returns the posterior mean alpha/(alpha+beta).
func (p ArmPosterior) Mean() float64 {
	total := p.Alpha + p.Beta
	if total == 0 {
		return 0
	}
	return p.Alpha / total
}

// ContextPosteriors maps arm-minutes to its posterior for one context.
type ContextPosteriors map[int]ArmPosterior

// ModelState is the full persisted posterior table: contextKey -> arm -> posterior.
type ModelState map[string]ContextPosteriors

// TotalObservations returns N(C) = sum over arms present in C.
func TotalObservations(posteriors ContextPosteriors, alpha0, beta0 float64) float64 {
	var total float64
	for _, p := range posteriors {
		total += p.N(alpha0, beta0)
	}
	return total
}

// #endregion posterior

// #region zone-data

// ZoneData is the per-context zone state.
type ZoneData struct {
	Zone            Zone    `json:"zone"`
	Confidence      float64 `json:"confidence"`
	Selections      []int   `json:"selections"`
	DynamicArms     []int   `json:"dynamic_arms"`
	TransitionReady bool    `json:"transition_ready"`
}

// ZonesState maps contextKey -> ZoneData.
type ZonesState map[string]ZoneData

// #endregion zone-data

// #region capacity-data

// SessionRecord is one completed-or-skipped session's capacity datapoint.
// TimeOfDay is persisted for historical compatibility but never interpreted
// by any component.
type SessionRecord struct {
	Selected  int       `json:"selected"`
	Actual    int       `json:"actual"`
	Completed bool      `json:"completed"`
	Timestamp time.Time `json:"timestamp"`
	TimeOfDay string    `json:"time_of_day,omitempty"`
}

// Trend categorizes the slope of actual/selected over the capacity window.
type Trend string

const (
	TrendGrowing   Trend = "growing"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// CapacityStats is the per-context capacity window and its derived stats.
type CapacityStats struct {
	RecentSessions  []SessionRecord `json:"recent_sessions"`
	AverageCapacity float64         `json:"average_capacity"`
	CompletionRate  float64         `json:"completion_rate"`
	Trend           Trend           `json:"trend"`
}

// CapacityState maps contextKey -> CapacityStats.
type CapacityState map[string]CapacityStats

// #endregion capacity-data

// #region snapshot

// Snapshot is the whole-state export/import blob for backup/restore.
type Snapshot struct {
	SnapshotID string        `json:"snapshot_id"`
	ExportedAt time.Time     `json:"exported_at"`
	Model      ModelState    `json:"model"`
	Zones      ZonesState    `json:"zones"`
	Capacity   CapacityState `json:"capacity"`
}

// #endregion snapshot
