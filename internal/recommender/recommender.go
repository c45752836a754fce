// Package recommender implements the orchestrator that wires Storage,
// Sampler, ZoneGovernor, CapacityTracker and the reward function together
// behind the external recommend/observe operations.
package recommender

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/focusadapt/recommender/internal/capacity"
	"github.com/focusadapt/recommender/internal/config"
	"github.com/focusadapt/recommender/internal/reward"
	"github.com/focusadapt/recommender/internal/sampler"
	"github.com/focusadapt/recommender/internal/storage"
	"github.com/focusadapt/recommender/internal/zone"
)

// Recommender is the orchestrator. It owns its Storage handle explicitly
// rather than reaching for global state, so a process can run more than one
// independently-seeded instance side by side.
type Recommender struct {
	store    *storage.Store
	sampler  *sampler.Sampler
	zoneGov  *zone.Governor
	capTrack *capacity.Tracker
	cfg      config.Tunables
	log      zerolog.Logger
	keys     *keyMutex
}

// New wires a Recommender from a Store, a deterministic RNG seed, and a set
// of tunable constants.
func New(store *storage.Store, seed int64, cfg config.Tunables, logger zerolog.Logger) *Recommender {
	return &Recommender{
		store:    store,
		sampler:  sampler.New(seed, cfg.AlphaPrior, cfg.BetaPrior, cfg.EarlyThreshold),
		zoneGov:  zone.New(cfg.SelectionsWindow, cfg.TransitionWindow, cfg.TransitionUpAvg, cfg.TransitionDownAvg),
		capTrack: capacity.New(cfg.CapacityWindow, cfg.StretchThresholdMid, cfg.StretchThresholdHigh),
		cfg:      cfg,
		log:      logger,
		keys:     newKeyMutex(),
	}
}

// RecommendFocus resolves the zone and arm set for the context, admits any
// newly-seen dynamic arms, then returns a heuristic, blended, learned or
// capacity-adjusted focus duration.
func (r *Recommender) RecommendFocus(ctx context.Context, c storage.Context, heuristicMinutes int, dynamicArms []int) FocusRecommendation {
	unlock := r.keys.Lock(c.Key())
	defer unlock()

	zd := r.loadOrInitZone(ctx, c, heuristicMinutes)
	if len(dynamicArms) > 0 {
		zd = admitDynamicArms(zd, dynamicArms)
		r.saveZone(ctx, c.Key(), zd)
	}
	arms := zone.ArmSet(zd)

	stats := r.loadCapacity(ctx, c.Key())

	posteriors := r.store.LoadModel(ctx)[c.Key()]
	n := storage.TotalObservations(posteriors, r.cfg.AlphaPrior, r.cfg.BetaPrior)

	if n < 2 {
		result := FocusRecommendation{Minutes: clampToRange(heuristicMinutes, arms), Source: SourceHeuristic}
		r.audit(ctx, c.Key(), "recommend_focus", result.Minutes, 0, string(result.Source))
		return result
	}

	materialized := r.sampler.EnsureContext(posteriors, arms)
	if len(materialized) != len(posteriors) {
		r.saveModel(ctx, c.Key(), materialized)
	}

	modelRec := r.sampler.GetBestAction(materialized, arms)
	adjusted, capacityChanged := r.capTrack.AdjustForCapacity(modelRec, stats, c.EnergyLevel)
	adjusted = r.applyCrossEnergyFloor(ctx, c, adjusted)
	adjusted = clampToRange(adjusted, arms)

	source := SourceBlended
	switch {
	case capacityChanged:
		source = SourceCapacity
	case n >= float64(r.cfg.LearnedMinObservations):
		source = SourceLearned
	}

	result := FocusRecommendation{Minutes: adjusted, Source: source}
	r.audit(ctx, c.Key(), "recommend_focus", result.Minutes, 0, string(result.Source))
	return result
}

// applyCrossEnergyFloor raises adjusted to match the best-known arm of any
// lower energy level for the same task, so a duration proven sustainable at
// low energy is never withheld at mid or high energy.
func (r *Recommender) applyCrossEnergyFloor(ctx context.Context, c storage.Context, adjusted int) int {
	lowers := c.EnergyLevel.LowerLevels()
	if len(lowers) == 0 {
		return adjusted
	}

	model := r.store.LoadModel(ctx)
	for _, lowerEnergy := range lowers {
		lowerKey := storage.Context{TaskType: c.TaskType, EnergyLevel: lowerEnergy}.Key()
		bestArm, bestMean := -1, -1.0
		for arm, p := range model[lowerKey] {
			if m := p.Mean(); m > bestMean {
				bestMean = m
				bestArm = arm
			}
		}
		if bestArm > adjusted {
			adjusted = bestArm
		}
	}
	return adjusted
}

// RecommendBreak returns a break duration drawn from the permitted-break set
// for the given focus duration.
func (r *Recommender) RecommendBreak(ctx context.Context, c storage.Context, heuristicBreak, focusMinutes int) BreakRecommendation {
	unlock := r.keys.Lock(c.Key())
	defer unlock()

	permitted := storage.PermittedBreaks(focusMinutes)
	breakKey := c.BreakKey()

	posteriors := r.store.LoadModel(ctx)[breakKey]
	n := storage.TotalObservations(posteriors, r.cfg.AlphaPrior, r.cfg.BetaPrior)

	var result BreakRecommendation
	if n < 2 {
		result = BreakRecommendation{Minutes: minInt(heuristicBreak, maxInts(permitted)), Source: SourceHeuristic}
	} else {
		materialized := r.sampler.EnsureContext(posteriors, permitted)
		if len(materialized) != len(posteriors) {
			r.saveModel(ctx, breakKey, materialized)
		}
		result = BreakRecommendation{Minutes: r.sampler.GetBestAction(materialized, permitted), Source: SourceLearned}
	}

	r.audit(ctx, breakKey, "recommend_break", result.Minutes, 0, string(result.Source))
	return result
}

// ObserveOutcome folds a reported session outcome into the focus posterior,
// the break posterior, the zone governor and the capacity tracker. An
// outcome with a negative duration or an unrecognized completion type is
// logged and dropped without touching any state.
func (r *Recommender) ObserveOutcome(ctx context.Context, c storage.Context, outcome SessionOutcome) {
	unlock := r.keys.Lock(c.Key())
	defer unlock()

	if !validOutcome(outcome) {
		r.log.Warn().Str("context_key", c.Key()).Msg("observe_outcome: invalid outcome, dropping observation")
		return
	}

	stats := r.loadCapacity(ctx, c.Key())

	rewardValue := reward.Compute(reward.Outcome{
		CompletionType:         outcome.CompletionType,
		AcceptedRecommendation: outcome.AcceptedRecommendation,
		FocusedMinutes:         outcome.FocusedMinutes,
		SelectedMinutes:        outcome.SelectedFocusMinutes,
		RecommendedMinutes:     outcome.RecommendedFocusMinutes,
	}, reward.Config{RecommendationBonus: r.cfg.RecommendationBonus, IdealMax: r.cfg.IdealMax})

	if outcome.CompletionType == reward.Completed {
		rewardValue = reward.ScaleToCapacity(rewardValue, outcome.FocusedMinutes, stats.AverageCapacity)
	}

	switch outcome.CompletionType {
	case reward.Completed, reward.SkippedBreak:
		r.updatePosterior(ctx, c.Key(), outcome.SelectedFocusMinutes, rewardValue)
	}

	var zd storage.ZoneData
	if outcome.CompletionType == reward.Completed {
		r.updatePosterior(ctx, c.BreakKey(), outcome.SelectedBreakMinutes, rewardValue)

		zd = r.loadOrInitZone(ctx, c, outcome.SelectedFocusMinutes)
		zd = r.zoneGov.RecordSelection(zd, outcome.SelectedFocusMinutes, r.cfg.SelectionsWindow)
		r.saveZone(ctx, c.Key(), zd)

		r.applySpillover(ctx, c, zd, outcome.SelectedFocusMinutes, rewardValue)
	}

	newStats := r.capTrack.Record(stats, storage.SessionRecord{
		Selected:  outcome.SelectedFocusMinutes,
		Actual:    outcome.FocusedMinutes,
		Completed: outcome.CompletionType != reward.SkippedFocus,
		Timestamp: time.Now(),
		TimeOfDay: outcome.TimeOfDay,
	})
	if err := r.store.SaveCapacityContext(ctx, c.Key(), newStats); err != nil {
		r.log.Warn().Err(err).Str("context_key", c.Key()).Msg("observe_outcome: failed to persist capacity state")
	}

	r.audit(ctx, c.Key(), "observe_outcome", outcome.SelectedFocusMinutes, rewardValue, string(outcome.CompletionType))
}

// applySpillover carries a fraction of a strongly-rewarded completion into
// the next arm above the one actually selected, within the same zone's arm
// set, so a user who comfortably clears an arm nudges the model toward the
// next duration up without waiting to be offered it directly.
func (r *Recommender) applySpillover(ctx context.Context, c storage.Context, zd storage.ZoneData, selectedArm int, rewardValue float64) {
	if rewardValue < r.cfg.SpilloverThreshold {
		return
	}
	next := nextArmAbove(zone.ArmSet(zd), selectedArm)
	if next == -1 {
		return
	}
	r.updatePosterior(ctx, c.Key(), next, rewardValue*r.cfg.SpilloverFactor)
}

// PenaliseRejection writes the bounded negative weight for an offered
// recommendation the user dismissed outright.
func (r *Recommender) PenaliseRejection(ctx context.Context, c storage.Context, rejectedArm int) {
	unlock := r.keys.Lock(c.Key())
	defer unlock()

	penalty := reward.PenaliseRejection(r.cfg.RejectionPenalty)
	r.updatePosterior(ctx, c.Key(), rejectedArm, penalty)
	r.audit(ctx, c.Key(), "penalise_rejection", rejectedArm, penalty, "rejected")
}

// ExportState returns a full snapshot of model, zone and capacity state.
func (r *Recommender) ExportState(ctx context.Context) storage.Snapshot {
	return r.store.Export(ctx)
}

// ImportState atomically replaces all persisted state with a snapshot.
func (r *Recommender) ImportState(ctx context.Context, snap storage.Snapshot) error {
	return r.store.Import(ctx, snap)
}

// ClearAllData wipes model, zone and capacity state for every context.
func (r *Recommender) ClearAllData(ctx context.Context) error {
	return r.store.ClearAll(ctx)
}

// #region storage helpers

func (r *Recommender) loadOrInitZone(ctx context.Context, c storage.Context, heuristicMinutes int) storage.ZoneData {
	if zd, ok := r.store.LoadZones(ctx)[c.Key()]; ok {
		return zd
	}
	zd := zone.Init(heuristicMinutes, c.EnergyLevel)
	r.saveZone(ctx, c.Key(), zd)
	return zd
}

func (r *Recommender) saveZone(ctx context.Context, key string, zd storage.ZoneData) {
	if err := r.store.SaveZoneContext(ctx, key, zd); err != nil {
		r.log.Warn().Err(err).Str("context_key", key).Msg("failed to persist zone state")
	}
}

func (r *Recommender) saveModel(ctx context.Context, key string, posteriors storage.ContextPosteriors) {
	if err := r.store.SaveModelContext(ctx, key, posteriors); err != nil {
		r.log.Warn().Err(err).Str("context_key", key).Msg("failed to persist model state")
	}
}

func (r *Recommender) loadCapacity(ctx context.Context, key string) storage.CapacityStats {
	return r.store.LoadCapacity(ctx)[key]
}

func (r *Recommender) updatePosterior(ctx context.Context, key string, arm int, rewardValue float64) {
	posteriors := r.store.LoadModel(ctx)[key]
	updated := r.sampler.UpdateModel(posteriors, arm, rewardValue)
	r.saveModel(ctx, key, updated)
}

func (r *Recommender) audit(ctx context.Context, key, op string, arm int, rewardValue float64, source string) {
	r.store.LogAudit(ctx, storage.AuditEntry{
		ContextKey: key,
		Operation:  op,
		ArmMinutes: arm,
		Reward:     rewardValue,
		Source:     source,
	})
}

// #endregion storage helpers

// #region pure helpers

func admitDynamicArms(zd storage.ZoneData, newArms []int) storage.ZoneData {
	existing := zone.ArmSet(zd)
	for _, a := range newArms {
		if !slices.Contains(existing, a) {
			zd.DynamicArms = append(zd.DynamicArms, a)
			existing = append(existing, a)
		}
	}
	slices.Sort(zd.DynamicArms)
	return zd
}

func validOutcome(o SessionOutcome) bool {
	if o.FocusedMinutes < 0 || o.SelectedFocusMinutes < 0 || o.SelectedBreakMinutes < 0 || o.RecommendedFocusMinutes < 0 {
		return false
	}
	switch o.CompletionType {
	case reward.Completed, reward.SkippedFocus, reward.SkippedBreak:
		return true
	default:
		return false
	}
}

func clampToRange(value int, arms []int) int {
	if len(arms) == 0 {
		return value
	}
	lo, hi := arms[0], arms[0]
	for _, a := range arms {
		if a < lo {
			lo = a
		}
		if a > hi {
			hi = a
		}
	}
	switch {
	case value < lo:
		return lo
	case value > hi:
		return hi
	default:
		return value
	}
}

func nextArmAbove(arms []int, selected int) int {
	best := -1
	for _, a := range arms {
		if a > selected && (best == -1 || a < best) {
			best = a
		}
	}
	return best
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInts(xs []int) int {
	m := xs[0]
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

// #endregion pure helpers
