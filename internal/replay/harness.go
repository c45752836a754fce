// Package replay re-runs a recorded sequence of recommend/observe turns
// through a fresh Recommender so a saved interaction log can be diffed
// against what the current model would now produce.
package replay

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/focusadapt/recommender/internal/config"
	"github.com/focusadapt/recommender/internal/recommender"
	"github.com/focusadapt/recommender/internal/storage"
)

// Turn is one recorded recommend-then-observe cycle.
type Turn struct {
	TurnID              string
	Context             storage.Context
	HeuristicFocus      int
	HeuristicBreak      int
	DynamicArms         []int
	Outcome             recommender.SessionOutcome
	RecordedFocusArm    int
	RecordedFocusSource string
}

// Result captures what the Recommender produced for one replayed turn,
// alongside whatever was recorded at capture time.
type Result struct {
	TurnID         string
	FocusRec       recommender.FocusRecommendation
	BreakRec       recommender.BreakRecommendation
	Diverged       bool
	RecordedFocus  int
	RecordedSource string
}

// Summary aggregates a replay run.
type Summary struct {
	TotalTurns int
	Diverged   int
	BySource   map[recommender.Source]int
}

// Run replays turns in order against rec, an already-constructed Recommender
// (typically backed by an in-memory store seeded with no prior state), and
// returns one Result per turn plus an aggregate Summary.
func Run(ctx context.Context, rec *recommender.Recommender, turns []Turn) ([]Result, Summary) {
	results := make([]Result, 0, len(turns))
	summary := Summary{BySource: map[recommender.Source]int{}}

	for _, t := range turns {
		focusRec := rec.RecommendFocus(ctx, t.Context, t.HeuristicFocus, t.DynamicArms)
		breakRec := rec.RecommendBreak(ctx, t.Context, t.HeuristicBreak, focusRec.Minutes)
		rec.ObserveOutcome(ctx, t.Context, t.Outcome)

		diverged := t.RecordedFocusArm != 0 && focusRec.Minutes != t.RecordedFocusArm
		if diverged {
			summary.Diverged++
		}
		summary.TotalTurns++
		summary.BySource[focusRec.Source]++

		results = append(results, Result{
			TurnID:         t.TurnID,
			FocusRec:       focusRec,
			BreakRec:       breakRec,
			Diverged:       diverged,
			RecordedFocus:  t.RecordedFocusArm,
			RecordedSource: t.RecordedFocusSource,
		})
	}

	return results, summary
}

// NewInMemoryRecommender builds a Recommender over a fresh in-memory SQLite
// store, for replay runs that must not touch the caller's persisted state.
func NewInMemoryRecommender(seed int64, cfg config.Tunables, logger zerolog.Logger) (*recommender.Recommender, *storage.Store, error) {
	store, err := storage.NewStore(":memory:", logger)
	if err != nil {
		return nil, nil, err
	}
	return recommender.New(store, seed, cfg, logger), store, nil
}
