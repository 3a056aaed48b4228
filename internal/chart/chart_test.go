package chart

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRegistryReplaceDisposesPriorHandle(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	first := registry.Replace("main", New(Line))
	second := registry.Replace("main", New(Line))

	if !first.Disposed() {
		t.Fatalf("expected prior handle to be disposed on replace")
	}
	if second.Disposed() {
		t.Fatalf("replacement handle must be live")
	}
	if registry.LiveCount() != 1 {
		t.Fatalf("expected exactly one live handle, got %d", registry.LiveCount())
	}
}

func TestRegistryDisposeGroupClearsOnlyPrefix(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Replace("main", New(Line))
	edaOverTime := registry.Replace("eda/aqi_over_time", New(Line))
	edaByMonth := registry.Replace("eda/by_month", New(Bar))

	registry.DisposeGroup("eda/")

	if !edaOverTime.Disposed() || !edaByMonth.Disposed() {
		t.Fatalf("expected all eda handles disposed")
	}
	if registry.Get("main") == nil || registry.Get("main").Disposed() {
		t.Fatalf("main slot must be untouched by group disposal")
	}
	if registry.LiveCount() != 1 {
		t.Fatalf("expected one live handle after group disposal, got %d", registry.LiveCount())
	}
}

func TestRepeatedGroupReplaceKeepsSlotCountStable(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	slots := []string{"eda/aqi_over_time", "eda/categories", "eda/dist", "eda/by_month"}
	for run := 0; run < 3; run++ {
		registry.DisposeGroup("eda/")
		for _, slot := range slots {
			registry.Replace(slot, New(Bar))
		}
	}
	if registry.LiveCount() != len(slots) {
		t.Fatalf("expected %d live handles after repeated runs, got %d", len(slots), registry.LiveCount())
	}
}

func TestDisposedHandleRendersNothing(t *testing.T) {
	t.Parallel()

	handle := New(Line)
	handle.SetData([]string{"a", "b"}, []Dataset{{Label: "Historical", Values: []float64{1, 2}}})
	handle.Dispose()

	if handle.Render(40) != "" {
		t.Fatalf("disposed handle must render empty output")
	}
}

func TestLineRenderShowsEachDatasetLabel(t *testing.T) {
	t.Parallel()

	handle := New(Line)
	handle.SetData(
		[]string{"00:00", "23:00"},
		[]Dataset{
			{Label: "Historical AQI", Values: []float64{50, 80, 120}, Color: lipgloss.Color("#a78bfa")},
			{Label: "Forecasted AQI", Values: []float64{110, 90}, Color: lipgloss.Color("#6366f1")},
		},
	)
	out := handle.Render(48)

	if !strings.Contains(out, "Historical AQI") || !strings.Contains(out, "Forecasted AQI") {
		t.Fatalf("expected both series labels in output:\n%s", out)
	}
	if !strings.Contains(out, "00:00") || !strings.Contains(out, "23:00") {
		t.Fatalf("expected axis labels in output:\n%s", out)
	}
}

func TestBarRenderScalesToMaxValue(t *testing.T) {
	t.Parallel()

	handle := New(Bar)
	handle.SetData(
		[]string{"Jan", "Feb"},
		[]Dataset{{Label: "Avg AQI", Values: []float64{100, 50}}},
	)
	out := handle.Render(50)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected one row per value, got %d:\n%s", len(lines), out)
	}
	if strings.Count(lines[0], "█") <= strings.Count(lines[1], "█") {
		t.Fatalf("larger value must draw a longer bar:\n%s", out)
	}
}

func TestPieRenderShowsPercentages(t *testing.T) {
	t.Parallel()

	handle := New(Pie)
	handle.SetData(
		[]string{"Good", "Moderate"},
		[]Dataset{{Values: []float64{75, 25}}},
	)
	out := handle.Render(50)
	if !strings.Contains(out, "75.0%") || !strings.Contains(out, "25.0%") {
		t.Fatalf("expected percentage shares in output:\n%s", out)
	}
}

func TestSparklineRightAlignsShortSeries(t *testing.T) {
	t.Parallel()

	got := sparkline([]float64{50, 100}, 6, 100)
	if !strings.HasPrefix(got, "....") {
		t.Fatalf("expected leading padding dots, got %q", got)
	}
}

func TestLineRendersGapsForMissingSamples(t *testing.T) {
	t.Parallel()

	handle := New(Line)
	handle.SetData(
		[]string{"10:00", "12:00"},
		[]Dataset{{Label: "Perceived AQI", Values: []float64{10, math.NaN(), 20}}},
	)
	out := handle.Render(20)

	if !strings.Contains(out, "·") {
		t.Fatalf("expected a gap glyph for the missing sample:\n%s", out)
	}
	if !strings.Contains(out, "█") {
		t.Fatalf("expected the series maximum to still scale to full height:\n%s", out)
	}
	if strings.Contains(out, "NaN") {
		t.Fatalf("NaN leaked into rendered output:\n%s", out)
	}
}

func TestResampleSkipsMissingSamples(t *testing.T) {
	t.Parallel()

	values := []float64{10, math.NaN(), 20, 30}
	out := resample(values, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(out))
	}
	if out[0] != 10 {
		t.Fatalf("expected missing sample excluded from bucket average, got %v", out[0])
	}
	if out[1] != 25 {
		t.Fatalf("unexpected second bucket average %v", out[1])
	}
}
