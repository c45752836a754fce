package storage

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:", zerolog.Nop())
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadModelEmptyOnColdStart(t *testing.T) {
	store := newTestStore(t)
	got := store.LoadModel(context.Background())
	if len(got) != 0 {
		t.Fatalf("expected empty model state, got %v", got)
	}
}

func TestSaveAndLoadModelContextRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	posteriors := ContextPosteriors{20: {Alpha: 3, Beta: 2}}

	if err := store.SaveModelContext(ctx, "Writing|mid", posteriors); err != nil {
		t.Fatalf("save: %v", err)
	}
	got := store.LoadModel(ctx)["Writing|mid"]
	if got[20] != posteriors[20] {
		t.Fatalf("expected round-tripped posterior, got %+v", got)
	}
}

func TestSaveModelContextUpsertsOnConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_ = store.SaveModelContext(ctx, "Writing|mid", ContextPosteriors{20: {Alpha: 1, Beta: 1}})
	_ = store.SaveModelContext(ctx, "Writing|mid", ContextPosteriors{20: {Alpha: 9, Beta: 9}})

	got := store.LoadModel(ctx)["Writing|mid"]
	if got[20].Alpha != 9 {
		t.Fatalf("expected upsert to overwrite prior value, got %+v", got)
	}
}

func TestSaveAndLoadZoneContextRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	zd := ZoneData{Zone: ZoneLong, Confidence: 0.6, Selections: []int{30, 35}}

	if err := store.SaveZoneContext(ctx, "Writing|mid", zd); err != nil {
		t.Fatalf("save: %v", err)
	}
	got := store.LoadZones(ctx)["Writing|mid"]
	if got.Zone != ZoneLong || got.Confidence != 0.6 {
		t.Fatalf("expected round-tripped zone data, got %+v", got)
	}
}

func TestSaveAndLoadCapacityContextRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	cs := CapacityStats{AverageCapacity: 22, CompletionRate: 0.8, Trend: TrendGrowing}

	if err := store.SaveCapacityContext(ctx, "Writing|mid", cs); err != nil {
		t.Fatalf("save: %v", err)
	}
	got := store.LoadCapacity(ctx)["Writing|mid"]
	if got.AverageCapacity != 22 || got.Trend != TrendGrowing {
		t.Fatalf("expected round-tripped capacity stats, got %+v", got)
	}
}

func TestClearAllWipesEveryTable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_ = store.SaveModelContext(ctx, "k", ContextPosteriors{20: {Alpha: 1, Beta: 1}})
	_ = store.SaveZoneContext(ctx, "k", ZoneData{Zone: ZoneShort})
	_ = store.SaveCapacityContext(ctx, "k", CapacityStats{})

	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if len(store.LoadModel(ctx)) != 0 || len(store.LoadZones(ctx)) != 0 || len(store.LoadCapacity(ctx)) != 0 {
		t.Fatalf("expected all tables empty after ClearAll")
	}
}

func TestExportImportRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_ = store.SaveModelContext(ctx, "k", ContextPosteriors{20: {Alpha: 4, Beta: 1}})
	_ = store.SaveZoneContext(ctx, "k", ZoneData{Zone: ZoneLong})
	_ = store.SaveCapacityContext(ctx, "k", CapacityStats{AverageCapacity: 30})

	snap := store.Export(ctx)
	if snap.SnapshotID == "" {
		t.Fatalf("expected a non-empty snapshot id")
	}

	other := newTestStore(t)
	if err := other.Import(ctx, snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	got := other.LoadModel(ctx)["k"]
	if got[20].Alpha != 4 {
		t.Fatalf("expected imported posterior, got %+v", got)
	}
}

func TestLogAuditNeverBlocksOnFailure(t *testing.T) {
	store := newTestStore(t)
	store.LogAudit(context.Background(), AuditEntry{ContextKey: "k", Operation: "recommend_focus", ArmMinutes: 20})
}
