package types

import "strings"

type ViewMode string

const (
	ViewModeNotes    ViewMode = "notes"
	ViewModeEnhanced ViewMode = "enhanced"
)

func ParseViewMode(raw string) ViewMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ViewModeEnhanced):
		return ViewModeEnhanced
	default:
		return ViewModeNotes
	}
}
