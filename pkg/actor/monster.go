package actor

import "strings"

// Monster is a creature in the current scene. ID is unique within the scene.
type Monster struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Abilities   Abilities `json:"abilities"`
	AC          int       `json:"ac"`
	Health      int       `json:"health"`
	Status      string    `json:"status"`
}

// IsDefeated reports whether the monster is out of the fight: no health
// left, or a status of dead or fled.
func (m *Monster) IsDefeated() bool {
	if m.Health <= 0 {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(m.Status)) {
	case "dead", "fled":
		return true
	}
	return false
}
