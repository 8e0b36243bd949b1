package storage

import (
	"context"
	"time"
)

// Storage persists session units. Implementations never overwrite an
// existing unit.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// SaveUnit writes unit under a new name derived from the character name
	// and at, and returns the name used.
	SaveUnit(ctx context.Context, unit *Unit, at time.Time) (string, error)
	// LoadUnit returns ErrNotFound or ErrMalformed, both wrapping ErrLoad.
	LoadUnit(ctx context.Context, name string) (*Unit, error)
	// ListUnits returns every unit name in ascending order.
	ListUnits(ctx context.Context) ([]string, error)
	// LatestUnit returns the most recently saved unit name for a character.
	LatestUnit(ctx context.Context, characterName string) (string, error)
}
