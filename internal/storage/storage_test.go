package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/manishw7/air-quality-intelligence/internal/api"
)

func sampleBundle(mean float64) api.EdaBundle {
	var bundle api.EdaBundle
	bundle.TimeSeries.Stats.Mean = &mean
	bundle.TimeSeries.AqiOverTime = api.Series{Labels: []string{"2025-01-01"}, Values: []float64{mean}}
	bundle.TableData = api.TableData{Columns: []string{"Datetime", "AQI"}}
	return bundle
}

func TestSaveThenListReturnsNewestFirst(t *testing.T) {
	t.Parallel()

	store, err := NewStore(filepath.Join(t.TempDir(), "snaps"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	first, err := store.Save("2024-01-01", "2024-06-30", sampleBundle(80))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := store.Save("2025-01-01", "2025-06-30", sampleBundle(95))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Same-second saves share a SavedAt stamp; force an order.
	if first.SavedAt == second.SavedAt {
		t.Skip("clock did not advance between saves")
	}

	summaries, err := store.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(summaries))
	}
	if summaries[0].Start != "2025-01-01" {
		t.Fatalf("expected newest snapshot first, got %+v", summaries[0])
	}
}

func TestLoadRoundTripsBundle(t *testing.T) {
	t.Parallel()

	store, err := NewStore(filepath.Join(t.TempDir(), "snaps"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	summary, err := store.Save("2025-01-01", "2025-06-30", sampleBundle(92.1))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	snapshot, err := store.Load(summary.Directory)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snapshot.Summary.Start != "2025-01-01" || snapshot.Summary.End != "2025-06-30" {
		t.Fatalf("unexpected summary: %+v", snapshot.Summary)
	}
	if snapshot.Bundle.TimeSeries.Stats.Mean == nil || *snapshot.Bundle.TimeSeries.Stats.Mean != 92.1 {
		t.Fatalf("bundle stats did not round-trip: %+v", snapshot.Bundle.TimeSeries.Stats)
	}
	if len(snapshot.Bundle.TimeSeries.AqiOverTime.Labels) != 1 {
		t.Fatalf("bundle series did not round-trip")
	}
}

func TestListSkipsCorruptEntries(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "snaps")
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Save("2025-01-01", "2025-06-30", sampleBundle(50)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	corrupt := filepath.Join(dir, "broken")
	if err := os.MkdirAll(corrupt, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(corrupt, "summary.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	summaries, err := store.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected corrupt entry skipped, got %d summaries", len(summaries))
	}
}

func TestLoadMissingSnapshotFails(t *testing.T) {
	t.Parallel()

	store, err := NewStore(filepath.Join(t.TempDir(), "snaps"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Load("does-not-exist"); err == nil {
		t.Fatalf("expected error for missing snapshot")
	}
}
