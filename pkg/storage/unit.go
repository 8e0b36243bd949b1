package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/chat"
	"github.com/jwebster45206/adventure-engine/pkg/state"
)

var (
	// ErrLoad is the parent of every failure to restore a persisted unit.
	ErrLoad = errors.New("load failed")
	// ErrNotFound means no unit exists under the requested name.
	ErrNotFound = fmt.Errorf("%w: unit not found", ErrLoad)
	// ErrMalformed means the unit exists but cannot be decoded or is invalid.
	ErrMalformed = fmt.Errorf("%w: unit is malformed", ErrLoad)
)

// TimestampLayout is appended to the character slug to build a unit name.
const TimestampLayout = "20060102-150405"

// Unit is one persisted snapshot of a session. Field order is the document order.
type Unit struct {
	Character actor.Character `json:"character"`
	GameState state.GameState `json:"game_state"`
	Context   []chat.Pair     `json:"context"`
}

// Validate checks a decoded unit before it is handed to a session. An
// unnamed character is valid; its units are filed under Slug("").
func (u *Unit) Validate() error {
	if err := u.GameState.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

var lower = cases.Lower(language.English)

// Slug lower-cases name and collapses every run of non-alphanumeric runes to
// a single underscore.
func Slug(name string) string {
	var sb strings.Builder
	pendingSep := false
	for _, r := range lower.String(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			pendingSep = false
			sb.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if sb.Len() == 0 {
		return "adventurer"
	}
	return sb.String()
}

// UnitName returns the deterministic unit name for a character saved at t.
// The timestamp is always UTC.
func UnitName(characterName string, t time.Time) string {
	return Slug(characterName) + "-" + t.UTC().Format(TimestampLayout)
}

// CandidateName returns the n-th candidate for base. The first candidate is
// base itself, later ones carry a -2, -3, ... suffix.
func CandidateName(base string, n int) string {
	if n <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}

// ValidName reports whether name is safe to use as a unit key or file name.
func ValidName(name string) bool {
	if name == "" || len(name) > 200 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		case unicode.IsLetter(r) || unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// ParseUnitName splits a unit name into its character slug, save time and
// collision sequence (1 for the unsuffixed name).
func ParseUnitName(name string) (slug string, at time.Time, seq int, ok bool) {
	slug, rest, found := strings.Cut(name, "-")
	if !found || slug == "" || len(rest) < len(TimestampLayout) {
		return "", time.Time{}, 0, false
	}
	at, err := time.Parse(TimestampLayout, rest[:len(TimestampLayout)])
	if err != nil {
		return "", time.Time{}, 0, false
	}
	seq = 1
	if tail := rest[len(TimestampLayout):]; tail != "" {
		if _, err := fmt.Sscanf(tail, "-%d", &seq); err != nil || seq < 2 || fmt.Sprintf("-%d", seq) != tail {
			return "", time.Time{}, 0, false
		}
	}
	return slug, at, seq, true
}

// LatestOf picks the newest unit name belonging to characterName.
func LatestOf(names []string, characterName string) (string, bool) {
	want := Slug(characterName)
	var (
		best    string
		bestAt  time.Time
		bestSeq int
	)
	for _, name := range names {
		slug, at, seq, ok := ParseUnitName(name)
		if !ok || slug != want {
			continue
		}
		if best == "" || at.After(bestAt) || (at.Equal(bestAt) && seq > bestSeq) {
			best, bestAt, bestSeq = name, at, seq
		}
	}
	return best, best != ""
}
