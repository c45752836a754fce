package replay

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/focusadapt/recommender/internal/config"
	"github.com/focusadapt/recommender/internal/recommender"
	"github.com/focusadapt/recommender/internal/reward"
	"github.com/focusadapt/recommender/internal/storage"
)

func TestRunReplaysTurnsAndAggregatesSummary(t *testing.T) {
	ctx := context.Background()
	rec, store, err := NewInMemoryRecommender(1, config.Default(), zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	c := storage.Context{TaskType: "Writing", EnergyLevel: storage.EnergyMid}
	turns := []Turn{
		{
			TurnID:         "t1",
			Context:        c,
			HeuristicFocus: 20,
			HeuristicBreak: 5,
			Outcome: recommender.SessionOutcome{
				CompletionType:       reward.Completed,
				SelectedFocusMinutes: 20,
				SelectedBreakMinutes: 5,
				FocusedMinutes:       20,
			},
			RecordedFocusArm:    20,
			RecordedFocusSource: string(recommender.SourceHeuristic),
		},
		{
			TurnID:         "t2",
			Context:        c,
			HeuristicFocus: 20,
			HeuristicBreak: 5,
			Outcome: recommender.SessionOutcome{
				CompletionType:       reward.Completed,
				SelectedFocusMinutes: 20,
				SelectedBreakMinutes: 5,
				FocusedMinutes:       20,
			},
		},
	}

	results, summary := Run(ctx, rec, turns)
	require.Len(t, results, 2)
	require.Equal(t, 2, summary.TotalTurns)
	require.Equal(t, "t1", results[0].TurnID)
	require.False(t, results[1].Diverged, "a turn with no recorded focus arm can never diverge")
}

func TestRunFlagsDivergenceFromRecordedArm(t *testing.T) {
	ctx := context.Background()
	rec, store, err := NewInMemoryRecommender(1, config.Default(), zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	c := storage.Context{TaskType: "Writing", EnergyLevel: storage.EnergyMid}
	turns := []Turn{{
		TurnID:         "t1",
		Context:        c,
		HeuristicFocus: 20,
		HeuristicBreak: 5,
		Outcome: recommender.SessionOutcome{
			CompletionType:       reward.Completed,
			SelectedFocusMinutes: 20,
			SelectedBreakMinutes: 5,
			FocusedMinutes:       20,
		},
		RecordedFocusArm: 999,
	}}

	results, summary := Run(ctx, rec, turns)
	require.True(t, results[0].Diverged)
	require.Equal(t, 1, summary.Diverged)
}

func TestLoadFixtureAndToTurnsRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.json")
	const contents = `{
		"description": "sample",
		"turns": [{
			"turn_id": "t1",
			"task_type": "Writing",
			"energy_level": "mid",
			"heuristic_focus": 20,
			"heuristic_break": 5,
			"outcome": {
				"completion_type": "completed",
				"selected_focus_minutes": 20,
				"selected_break_minutes": 5,
				"focused_minutes": 20
			},
			"recorded_focus": 20,
			"recorded_source": "heuristic"
		}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	f, err := LoadFixture(path)
	require.NoError(t, err)
	require.Equal(t, "sample", f.Description)

	turns := f.ToTurns()
	require.Len(t, turns, 1)
	require.Equal(t, storage.EnergyMid, turns[0].Context.EnergyLevel)
	require.Equal(t, reward.Completed, turns[0].Outcome.CompletionType)
	require.Equal(t, 20, turns[0].RecordedFocusArm)
}

func TestLoadFixtureMissingFileReturnsError(t *testing.T) {
	_, err := LoadFixture(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestNewInMemoryRecommenderIsUsable(t *testing.T) {
	rec, store, err := NewInMemoryRecommender(1, config.Default(), zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	got := rec.RecommendFocus(context.Background(), storage.Context{TaskType: "Writing", EnergyLevel: storage.EnergyMid}, 20, nil)
	require.Equal(t, recommender.SourceHeuristic, got.Source)
}
