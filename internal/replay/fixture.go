package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/focusadapt/recommender/internal/recommender"
	"github.com/focusadapt/recommender/internal/reward"
	"github.com/focusadapt/recommender/internal/storage"
)

// Fixture is the top-level JSON structure for a replay fixture file.
type Fixture struct {
	Description string        `json:"description"`
	Turns       []FixtureTurn `json:"turns"`
}

// FixtureTurn mirrors Turn with JSON tags and a plain-string context so
// fixtures stay human-editable.
type FixtureTurn struct {
	TurnID         string         `json:"turn_id"`
	TaskType       string         `json:"task_type"`
	EnergyLevel    string         `json:"energy_level"`
	HeuristicFocus int            `json:"heuristic_focus"`
	HeuristicBreak int            `json:"heuristic_break"`
	DynamicArms    []int          `json:"dynamic_arms,omitempty"`
	Outcome        FixtureOutcome `json:"outcome"`
	RecordedFocus  int            `json:"recorded_focus,omitempty"`
	RecordedSource string         `json:"recorded_source,omitempty"`
}

// FixtureOutcome mirrors recommender.SessionOutcome with JSON tags.
type FixtureOutcome struct {
	CompletionType          string `json:"completion_type"`
	AcceptedRecommendation  bool   `json:"accepted_recommendation"`
	SelectedFocusMinutes    int    `json:"selected_focus_minutes"`
	SelectedBreakMinutes    int    `json:"selected_break_minutes"`
	FocusedMinutes          int    `json:"focused_minutes"`
	RecommendedFocusMinutes int    `json:"recommended_focus_minutes"`
	TimeOfDay               string `json:"time_of_day,omitempty"`
}

// LoadFixture reads and parses a JSON replay fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToTurns converts every FixtureTurn in the fixture into a domain Turn.
func (f *Fixture) ToTurns() []Turn {
	turns := make([]Turn, 0, len(f.Turns))
	for _, ft := range f.Turns {
		turns = append(turns, ft.ToTurn())
	}
	return turns
}

// ToTurn converts a FixtureTurn to a domain Turn.
func (ft *FixtureTurn) ToTurn() Turn {
	return Turn{
		TurnID:         ft.TurnID,
		Context:        storage.Context{TaskType: storage.NormalizeTaskType(ft.TaskType), EnergyLevel: storage.EnergyLevel(ft.EnergyLevel)},
		HeuristicFocus: ft.HeuristicFocus,
		HeuristicBreak: ft.HeuristicBreak,
		DynamicArms:    ft.DynamicArms,
		Outcome: recommender.SessionOutcome{
			CompletionType:          reward.CompletionType(ft.Outcome.CompletionType),
			AcceptedRecommendation:  ft.Outcome.AcceptedRecommendation,
			SelectedFocusMinutes:    ft.Outcome.SelectedFocusMinutes,
			SelectedBreakMinutes:    ft.Outcome.SelectedBreakMinutes,
			FocusedMinutes:          ft.Outcome.FocusedMinutes,
			RecommendedFocusMinutes: ft.Outcome.RecommendedFocusMinutes,
			TimeOfDay:               ft.Outcome.TimeOfDay,
		},
		RecordedFocusArm:    ft.RecordedFocus,
		RecordedFocusSource: ft.RecordedSource,
	}
}
