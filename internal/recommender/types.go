package recommender

import "github.com/focusadapt/recommender/internal/reward"

// Source labels the provenance of a returned recommendation.
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceBlended   Source = "blended"
	SourceLearned   Source = "learned"
	SourceCapacity  Source = "capacity"
)

// FocusRecommendation is the output of RecommendFocus.
type FocusRecommendation struct {
	Minutes int
	Source  Source
}

// BreakRecommendation is the output of RecommendBreak.
type BreakRecommendation struct {
	Minutes int
	Source  Source
}

// SessionOutcome is the input to ObserveOutcome.
type SessionOutcome struct {
	CompletionType          reward.CompletionType
	AcceptedRecommendation  bool
	SelectedFocusMinutes    int
	SelectedBreakMinutes    int
	FocusedMinutes          int
	RecommendedFocusMinutes int
	TimeOfDay               string // persisted, never interpreted
}
