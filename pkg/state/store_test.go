package state

import (
	"errors"
	"reflect"
	"testing"
)

func TestStore_ReplaceAndSnapshot(t *testing.T) {
	initial := testGameState()
	s, err := NewStore(initial)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	initial.Location = "mutated after store"
	snap, err := s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Location != "Outside the town of Eldoria" {
		t.Errorf("store shares memory with its input: %q", snap.Location)
	}

	snap.Player.Gold = 999
	again, _ := s.Snapshot()
	if again.Player.Gold != 20 {
		t.Errorf("snapshot shares memory with the store: gold %d", again.Player.Gold)
	}

	next := testGameState()
	next.Location = "Town Square"
	next.Player.HP = 100
	if err := s.Replace(next); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	got, _ := s.Snapshot()
	if got.Location != "Town Square" {
		t.Errorf("Location = %q", got.Location)
	}
	if got.Player.HP != got.Player.MaxHP {
		t.Errorf("HP not clamped on replace: %d/%d", got.Player.HP, got.Player.MaxHP)
	}
	if next.Player.HP != 100 {
		t.Error("Replace normalized the caller's value")
	}
	if s.Player().Name != "Mira Thorne" {
		t.Errorf("Player().Name = %q", s.Player().Name)
	}
}

func TestStore_ReplaceRejectsInvalid(t *testing.T) {
	s, err := NewStore(testGameState())
	if err != nil {
		t.Fatal(err)
	}
	before, _ := s.Snapshot()

	bad := testGameState()
	bad.Location = "Nowhere"
	bad.Danger = "unknown"
	if err := s.Replace(bad); !errors.Is(err, ErrInvariant) {
		t.Fatalf("Replace() error = %v, want ErrInvariant", err)
	}
	if err := s.Replace(nil); !errors.Is(err, ErrInvariant) {
		t.Fatalf("Replace(nil) error = %v, want ErrInvariant", err)
	}

	after, _ := s.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Error("failed Replace changed the stored state")
	}
}

func TestStore_Empty(t *testing.T) {
	var s Store
	if _, err := s.Snapshot(); err == nil {
		t.Error("expected error from empty store")
	}
	if s.Player().Name != "" {
		t.Error("empty store returned a player")
	}
}
