// Package config loads the Recommender's tunable constants, falling back to
// fixed defaults when no override file is present.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tunables holds every constant the Recommender and its components consult.
// Zero-valued fields in an override file are treated as "not set" and the
// default is kept — there is no legitimate reason to tune a threshold to
// exactly zero.
type Tunables struct {
	AlphaPrior             float64 `yaml:"alpha_prior"`
	BetaPrior              float64 `yaml:"beta_prior"`
	EarlyThreshold         int     `yaml:"early_threshold"`
	CapacityWindow         int     `yaml:"capacity_window"`
	SelectionsWindow       int     `yaml:"selections_window"`
	TransitionWindow       int     `yaml:"transition_window"`
	TransitionUpAvg        float64 `yaml:"transition_up_avg"`
	TransitionDownAvg      float64 `yaml:"transition_down_avg"`
	StretchThresholdMid    float64 `yaml:"stretch_threshold_mid"`
	StretchThresholdHigh   float64 `yaml:"stretch_threshold_high"`
	SpilloverThreshold     float64 `yaml:"spillover_threshold"`
	SpilloverFactor        float64 `yaml:"spillover_factor"`
	RejectionPenalty       float64 `yaml:"rejection_penalty"`
	IdealMax               float64 `yaml:"ideal_max"`
	RecommendationBonus    float64 `yaml:"recommendation_bonus"`
	LearnedMinObservations int     `yaml:"learned_min_observations"`
}

// Default returns the bit-exact built-in constants.
func Default() Tunables {
	return Tunables{
		AlphaPrior:             1.0,
		BetaPrior:              1.5,
		EarlyThreshold:         3,
		CapacityWindow:         10,
		SelectionsWindow:       10,
		TransitionWindow:       5,
		TransitionUpAvg:        30,
		TransitionDownAvg:      25,
		StretchThresholdMid:    0.95,
		StretchThresholdHigh:   0.85,
		SpilloverThreshold:     0.80,
		SpilloverFactor:        0.30,
		RejectionPenalty:       -0.30,
		IdealMax:               60,
		RecommendationBonus:    0.15,
		LearnedMinObservations: 5,
	}
}

// Load reads a YAML override file and merges it onto the defaults. A missing
// path returns the defaults unchanged and no error — an absent config file
// is the common case, not a failure.
func Load(path string) (Tunables, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("read config %s: %w", path, err)
	}

	var override Tunables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return t, fmt.Errorf("parse config %s: %w", path, err)
	}
	mergeNonZero(&t, override)
	return t, nil
}

func mergeNonZero(t *Tunables, o Tunables) {
	if o.AlphaPrior != 0 {
		t.AlphaPrior = o.AlphaPrior
	}
	if o.BetaPrior != 0 {
		t.BetaPrior = o.BetaPrior
	}
	if o.EarlyThreshold != 0 {
		t.EarlyThreshold = o.EarlyThreshold
	}
	if o.CapacityWindow != 0 {
		t.CapacityWindow = o.CapacityWindow
	}
	if o.SelectionsWindow != 0 {
		t.SelectionsWindow = o.SelectionsWindow
	}
	if o.TransitionWindow != 0 {
		t.TransitionWindow = o.TransitionWindow
	}
	if o.TransitionUpAvg != 0 {
		t.TransitionUpAvg = o.TransitionUpAvg
	}
	if o.TransitionDownAvg != 0 {
		t.TransitionDownAvg = o.TransitionDownAvg
	}
	if o.StretchThresholdMid != 0 {
		t.StretchThresholdMid = o.StretchThresholdMid
	}
	if o.StretchThresholdHigh != 0 {
		t.StretchThresholdHigh = o.StretchThresholdHigh
	}
	if o.SpilloverThreshold != 0 {
		t.SpilloverThreshold = o.SpilloverThreshold
	}
	if o.SpilloverFactor != 0 {
		t.SpilloverFactor = o.SpilloverFactor
	}
	if o.RejectionPenalty != 0 {
		t.RejectionPenalty = o.RejectionPenalty
	}
	if o.IdealMax != 0 {
		t.IdealMax = o.IdealMax
	}
	if o.RecommendationBonus != 0 {
		t.RecommendationBonus = o.RecommendationBonus
	}
	if o.LearnedMinObservations != 0 {
		t.LearnedMinObservations = o.LearnedMinObservations
	}
}
