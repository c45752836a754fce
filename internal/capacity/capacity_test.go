package capacity

import (
	"testing"
	"time"

	"github.com/focusadapt/recommender/internal/storage"
)

func rec(selected, actual int, completed bool) storage.SessionRecord {
	return storage.SessionRecord{Selected: selected, Actual: actual, Completed: completed, Timestamp: time.Now()}
}

func TestRecordEvictsOldestPastWindow(t *testing.T) {
	tr := New(3, 0.95, 0.85)
	var stats storage.CapacityStats
	for _, a := range []int{10, 15, 20, 25} {
		stats = tr.Record(stats, rec(a, a, true))
	}
	if len(stats.RecentSessions) != 3 {
		t.Fatalf("expected window capped at 3, got %d", len(stats.RecentSessions))
	}
	if stats.RecentSessions[0].Actual != 15 {
		t.Fatalf("expected oldest session evicted, got %+v", stats.RecentSessions)
	}
}

func TestRecordComputesCompletionRate(t *testing.T) {
	tr := New(10, 0.95, 0.85)
	var stats storage.CapacityStats
	stats = tr.Record(stats, rec(20, 20, true))
	stats = tr.Record(stats, rec(20, 10, false))
	if stats.CompletionRate != 0.5 {
		t.Fatalf("expected completion rate 0.5, got %v", stats.CompletionRate)
	}
}

func TestTrendRequiresThreeSessions(t *testing.T) {
	tr := New(10, 0.95, 0.85)
	var stats storage.CapacityStats
	stats = tr.Record(stats, rec(20, 20, true))
	stats = tr.Record(stats, rec(20, 25, true))
	if stats.Trend != storage.TrendStable {
		t.Fatalf("expected stable trend below 3 sessions, got %s", stats.Trend)
	}
}

func TestTrendDetectsGrowth(t *testing.T) {
	tr := New(10, 0.95, 0.85)
	var stats storage.CapacityStats
	for _, ratio := range []struct{ selected, actual int }{
		{20, 10}, {20, 14}, {20, 18}, {20, 22},
	} {
		stats = tr.Record(stats, rec(ratio.selected, ratio.actual, true))
	}
	if stats.Trend != storage.TrendGrowing {
		t.Fatalf("expected growing trend, got %s", stats.Trend)
	}
}

func TestAdjustForCapacityPassthroughBelowThreeSessions(t *testing.T) {
	tr := New(10, 0.95, 0.85)
	stats := storage.CapacityStats{RecentSessions: []storage.SessionRecord{rec(20, 20, true)}}
	got, changed := tr.AdjustForCapacity(25, stats, storage.EnergyMid)
	if changed || got != 25 {
		t.Fatalf("expected passthrough, got %d changed=%v", got, changed)
	}
}

func TestAdjustForCapacityClampsOnLowCompletion(t *testing.T) {
	tr := New(10, 0.95, 0.85)
	stats := storage.CapacityStats{
		RecentSessions:  []storage.SessionRecord{rec(30, 12, false), rec(30, 14, false), rec(30, 13, true)},
		AverageCapacity: 13,
		CompletionRate:  1.0 / 3.0,
	}
	got, changed := tr.AdjustForCapacity(30, stats, storage.EnergyMid)
	if got != 15 {
		t.Fatalf("expected clamp to nearest 5 (15), got %d", got)
	}
	if !changed {
		t.Fatalf("expected changed=true")
	}
}

func TestAdjustForCapacityClampsFloorAtTen(t *testing.T) {
	tr := New(10, 0.95, 0.85)
	stats := storage.CapacityStats{
		RecentSessions:  []storage.SessionRecord{rec(20, 3, false), rec(20, 4, false), rec(20, 2, false)},
		AverageCapacity: 3,
		CompletionRate:  0,
	}
	got, _ := tr.AdjustForCapacity(20, stats, storage.EnergyMid)
	if got != 10 {
		t.Fatalf("expected floor at 10, got %d", got)
	}
}

func TestAdjustForCapacityNeverStretchesAtLowEnergy(t *testing.T) {
	tr := New(10, 0.95, 0.85)
	stats := storage.CapacityStats{
		RecentSessions:  []storage.SessionRecord{rec(20, 20, true), rec(20, 20, true), rec(20, 20, true)},
		AverageCapacity: 20,
		CompletionRate:  1.0,
		Trend:           storage.TrendStable,
	}
	got, changed := tr.AdjustForCapacity(20, stats, storage.EnergyLow)
	if changed || got != 20 {
		t.Fatalf("expected no stretch at low energy, got %d changed=%v", got, changed)
	}
}

func TestAdjustForCapacityStretchesOnSustainedHighCompletion(t *testing.T) {
	tr := New(10, 0.95, 0.85)
	stats := storage.CapacityStats{
		RecentSessions:  []storage.SessionRecord{rec(20, 20, true), rec(20, 20, true), rec(20, 20, true)},
		AverageCapacity: 20,
		CompletionRate:  1.0,
		Trend:           storage.TrendGrowing,
	}
	got, changed := tr.AdjustForCapacity(20, stats, storage.EnergyMid)
	if !changed || got != 25 {
		t.Fatalf("expected stretch to 25, got %d changed=%v", got, changed)
	}
}
