// Package chart owns the terminal chart primitives: a handle per visual
// slot with explicit disposal, and line/bar/pie renderers over labeled
// series drawn with block glyphs.
package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Kind int

const (
	Line Kind = iota
	Bar
	Pie
)

// Dataset is one labeled series plus its drawing color. PieColors, when
// set, colors each value independently (category shares).
type Dataset struct {
	Label     string
	Values    []float64
	Color     lipgloss.Color
	PieColors []lipgloss.Color
}

// Handle is the owned drawing resource for one visual slot. At most one
// live handle exists per slot; creating a replacement must dispose the
// prior one first.
type Handle struct {
	kind     Kind
	labels   []string
	datasets []Dataset
	disposed bool
}

func New(kind Kind) *Handle {
	return &Handle{kind: kind}
}

// SetData replaces the full dataset; nothing is merged across renders.
func (h *Handle) SetData(labels []string, datasets []Dataset) {
	h.labels = append([]string(nil), labels...)
	h.datasets = append([]Dataset(nil), datasets...)
}

// Dispose releases the handle. Further renders produce nothing.
func (h *Handle) Dispose() {
	h.disposed = true
	h.labels = nil
	h.datasets = nil
}

func (h *Handle) Disposed() bool {
	return h.disposed
}

// Render draws the chart into a text block no wider than width.
func (h *Handle) Render(width int) string {
	if h.disposed {
		return ""
	}
	switch h.kind {
	case Bar:
		return renderBars(h.labels, h.datasets, width)
	case Pie:
		return renderProportions(h.labels, h.datasets, width)
	default:
		return renderLines(h.labels, h.datasets, width)
	}
}

const sparkGlyphs = "▁▂▃▄▅▆▇█"

// renderLines draws each dataset as its own labeled sparkline band. The
// vertical scale is shared across datasets so series are comparable.
func renderLines(labels []string, datasets []Dataset, width int) string {
	width = maxInt(16, width)
	sparkWidth := maxInt(8, width-2)

	maxValue := 0.0
	for _, dataset := range datasets {
		for _, value := range dataset.Values {
			if !math.IsNaN(value) && value > maxValue {
				maxValue = value
			}
		}
	}
	if maxValue <= 0 {
		maxValue = 1
	}

	lines := make([]string, 0, len(datasets)*2+1)
	for _, dataset := range datasets {
		if len(dataset.Values) == 0 {
			continue
		}
		style := lipgloss.NewStyle().Foreground(dataset.Color)
		lines = append(lines, style.Render(dataset.Label))
		lines = append(lines, style.Render(sparkline(dataset.Values, sparkWidth, maxValue)))
	}
	if len(labels) > 0 && len(lines) > 0 {
		lines = append(lines, axisLine(labels, sparkWidth))
	}
	if len(lines) == 0 {
		return "no data"
	}
	return strings.Join(lines, "\n")
}

// sparkline compresses a series into width glyph columns against a shared
// maximum. Short series right-align so the newest samples sit at the edge.
// NaN samples draw as gaps, keeping the rest of the series in position.
func sparkline(values []float64, width int, maxValue float64) string {
	glyphs := []rune(sparkGlyphs)
	window := values
	if len(window) > width {
		window = resample(window, width)
	}
	var builder strings.Builder
	for pad := len(window); pad < width; pad++ {
		builder.WriteByte('.')
	}
	for _, value := range window {
		if math.IsNaN(value) {
			builder.WriteRune('·')
			continue
		}
		normalized := clampFloat(value/maxValue, 0, 1)
		idx := int(math.Round(normalized * float64(len(glyphs)-1)))
		builder.WriteRune(glyphs[clampInt(idx, 0, len(glyphs)-1)])
	}
	return builder.String()
}

// resample reduces a series to width buckets by averaging each bucket.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	for bucket := 0; bucket < width; bucket++ {
		start := bucket * len(values) / width
		end := (bucket + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		sum := 0.0
		count := 0
		for _, value := range values[start:end] {
			if math.IsNaN(value) {
				continue
			}
			sum += value
			count++
		}
		if count == 0 {
			out[bucket] = math.NaN()
		} else {
			out[bucket] = sum / float64(count)
		}
	}
	return out
}

func axisLine(labels []string, width int) string {
	first := labels[0]
	last := labels[len(labels)-1]
	gap := width - len(first) - len(last)
	if gap < 1 {
		return truncate(first, width)
	}
	return first + strings.Repeat(" ", gap) + last
}

// renderBars draws the first dataset as horizontal label+meter rows.
func renderBars(labels []string, datasets []Dataset, width int) string {
	if len(datasets) == 0 || len(datasets[0].Values) == 0 {
		return "no data"
	}
	dataset := datasets[0]
	style := lipgloss.NewStyle().Foreground(dataset.Color)

	labelWidth := 0
	for _, label := range labels {
		if len(label) > labelWidth {
			labelWidth = len(label)
		}
	}
	labelWidth = clampInt(labelWidth, 3, 14)
	meterWidth := clampInt(width-labelWidth-10, 6, 40)

	maxValue := 0.0
	for _, value := range dataset.Values {
		if value > maxValue {
			maxValue = value
		}
	}
	if maxValue <= 0 {
		maxValue = 1
	}

	lines := make([]string, 0, len(dataset.Values))
	for idx, value := range dataset.Values {
		label := ""
		if idx < len(labels) {
			label = labels[idx]
		}
		filled := clampInt(int(math.Round(value/maxValue*float64(meterWidth))), 0, meterWidth)
		bar := strings.Repeat("█", filled) + strings.Repeat("·", meterWidth-filled)
		lines = append(lines, fmt.Sprintf("%-*s %s %6.1f", labelWidth, truncate(label, labelWidth), style.Render(bar), value))
	}
	return strings.Join(lines, "\n")
}

// renderProportions draws a share bar per label, colored per dataset
// entry when provided (one dataset, per-value colors via PieColors).
func renderProportions(labels []string, datasets []Dataset, width int) string {
	if len(datasets) == 0 || len(datasets[0].Values) == 0 {
		return "no data"
	}
	values := datasets[0].Values
	total := 0.0
	for _, value := range values {
		total += value
	}
	if total <= 0 {
		return "no data"
	}

	labelWidth := 0
	for _, label := range labels {
		if len(label) > labelWidth {
			labelWidth = len(label)
		}
	}
	labelWidth = clampInt(labelWidth, 3, 22)
	barWidth := clampInt(width-labelWidth-10, 6, 30)

	lines := make([]string, 0, len(values))
	for idx, value := range values {
		label := ""
		if idx < len(labels) {
			label = labels[idx]
		}
		share := value / total
		filled := clampInt(int(math.Round(share*float64(barWidth))), 0, barWidth)
		color := datasets[0].Color
		if idx < len(datasets[0].PieColors) {
			color = datasets[0].PieColors[idx]
		}
		bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) + strings.Repeat("·", barWidth-filled)
		lines = append(lines, fmt.Sprintf("%-*s %s %5.1f%%", labelWidth, truncate(label, labelWidth), bar, share*100))
	}
	return strings.Join(lines, "\n")
}

func truncate(raw string, maxLen int) string {
	runes := []rune(raw)
	if len(runes) <= maxLen {
		return raw
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

func clampFloat(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
