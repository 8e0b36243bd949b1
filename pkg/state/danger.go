package state

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DangerLevel is an ordered threat rating for the current scene.
type DangerLevel string

const (
	DangerSafe     DangerLevel = "safe"
	DangerLow      DangerLevel = "low"
	DangerMedium   DangerLevel = "medium"
	DangerHigh     DangerLevel = "high"
	DangerVeryHigh DangerLevel = "very high"
)

// DangerLevels lists every level from least to most dangerous.
var DangerLevels = []DangerLevel{DangerSafe, DangerLow, DangerMedium, DangerHigh, DangerVeryHigh}

// ParseDangerLevel accepts any casing and "very_high"/"very-high" spellings.
func ParseDangerLevel(s string) (DangerLevel, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	for _, d := range DangerLevels {
		if string(d) == norm {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: unknown danger level %q", ErrInvariant, s)
}

// Rank returns the position of d in DangerLevels, or -1 if unknown.
func (d DangerLevel) Rank() int {
	for i, l := range DangerLevels {
		if l == d {
			return i
		}
	}
	return -1
}

// Valid reports whether d is one of DangerLevels.
func (d DangerLevel) Valid() bool {
	return d.Rank() >= 0
}

// Less reports whether d is less dangerous than other.
func (d DangerLevel) Less(other DangerLevel) bool {
	return d.Rank() < other.Rank()
}

// Title is the display form, e.g. "Very High".
func (d DangerLevel) Title() string {
	return cases.Title(language.English).String(string(d))
}

// UnmarshalJSON normalizes the spelling of known levels and keeps unknown
// values as-is so Validate can reject them.
func (d *DangerLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if parsed, err := ParseDangerLevel(s); err == nil {
		*d = parsed
		return nil
	}
	*d = DangerLevel(s)
	return nil
}
