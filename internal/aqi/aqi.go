// Package aqi maps numeric AQI values onto the fixed severity scale used
// everywhere in the dashboard: band boundaries at 50/100/150/200/300 with
// inclusive upper bounds and an open-ended Hazardous band above 300.
package aqi

import (
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Category is one ordered severity band.
type Category string

const (
	Good          Category = "Good"
	Moderate      Category = "Moderate"
	Sensitive     Category = "Unhealthy for Sensitive Groups"
	Unhealthy     Category = "Unhealthy"
	VeryUnhealthy Category = "Very Unhealthy"
	Hazardous     Category = "Hazardous"
	Unknown       Category = "Unknown"
)

// fallbackColor renders unrecognized category labels as a visually
// neutral series rather than a defect.
const fallbackColor = lipgloss.Color("#808080")

var categoryColors = map[Category]lipgloss.Color{
	Good:          lipgloss.Color("#28a745"),
	Moderate:      lipgloss.Color("#ffc107"),
	Sensitive:     lipgloss.Color("#fd7e14"),
	Unhealthy:     lipgloss.Color("#dc3545"),
	VeryUnhealthy: lipgloss.Color("#8f3e97"),
	Hazardous:     lipgloss.Color("#7f0000"),
}

// Categorize buckets a rounded AQI value. Ties resolve to the lower band:
// 50 is Good, 51 is Moderate, 301 is Hazardous.
func Categorize(value float64) Category {
	if math.IsNaN(value) {
		return Unknown
	}
	rounded := int(math.Round(value))
	switch {
	case rounded <= 50:
		return Good
	case rounded <= 100:
		return Moderate
	case rounded <= 150:
		return Sensitive
	case rounded <= 200:
		return Unhealthy
	case rounded <= 300:
		return VeryUnhealthy
	default:
		return Hazardous
	}
}

// Color looks up the fixed color for a category label. Labels the client
// has never heard of get the neutral fallback.
func Color(label string) lipgloss.Color {
	if color, ok := categoryColors[Category(label)]; ok {
		return color
	}
	return fallbackColor
}

// Severity orders categories from Good (0) upward; Unknown sorts lowest.
func Severity(category Category) int {
	switch category {
	case Good:
		return 0
	case Moderate:
		return 1
	case Sensitive:
		return 2
	case Unhealthy:
		return 3
	case VeryUnhealthy:
		return 4
	case Hazardous:
		return 5
	default:
		return -1
	}
}
