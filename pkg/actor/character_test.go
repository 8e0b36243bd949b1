package actor

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func testCharacter() Character {
	return Character{
		Name:     "Mira Thorne",
		Pronouns: "she/her",
		Race:     "Half-Elf",
		Class:    "Ranger",
		Level:    3,
		XP:       900,
		HP:       7,
		MaxHP:    24,
		Status:   "wounded",
		Gold:     20,
		AC:       14,
		Abilities: Abilities{
			Strength: 12, Dexterity: 16, Constitution: 13,
			Intelligence: 10, Wisdom: 14, Charisma: 8,
		},
		Proficiencies: Proficiencies{
			Skills:       []string{"survival", "perception"},
			Weapons:      []string{"longbow", "shortsword"},
			SavingThrows: []string{"strength", "dexterity"},
		},
		Magic: Magic{
			SpellsKnown:   []string{"hunter's mark"},
			CantripsKnown: []string{},
			SpellSlots:    []SpellSlot{{Level: 1, Current: 2, Max: 3}},
		},
		SpellEffects: []SpellEffect{{Effect: "hunter's mark", MinutesRemaining: 45}},
		Inventory:    []string{"Wooden sword", "rope"},
	}
}

func TestModifier(t *testing.T) {
	tests := map[int]int{1: -5, 7: -2, 8: -1, 9: -1, 10: 0, 11: 0, 12: 1, 15: 2, 20: 5}
	for score, want := range tests {
		if got := Modifier(score); got != want {
			t.Errorf("Modifier(%d) = %d, want %d", score, got, want)
		}
	}
}

func TestCharacter_Actor(t *testing.T) {
	c := testCharacter()
	a, err := c.Actor()
	if err != nil {
		t.Fatalf("Actor() error = %v", err)
	}
	if a.HP() != 7 {
		t.Errorf("HP() = %d, want 7", a.HP())
	}
	if a.MaxHP() != 24 {
		t.Errorf("MaxHP() = %d, want 24", a.MaxHP())
	}
	if a.AC() != 14 {
		t.Errorf("AC() = %d, want 14", a.AC())
	}
	if v, ok := a.Attribute("dexterity"); !ok || v != 16 {
		t.Errorf("Attribute(dexterity) = %d, %v; want 16, true", v, ok)
	}
}

func TestCharacter_JSONFieldOrder(t *testing.T) {
	c := testCharacter()
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	order := []string{`"name"`, `"pronouns"`, `"race"`, `"class"`, `"level"`, `"xp"`, `"hp"`, `"max_hp"`,
		`"status"`, `"gold"`, `"ac"`, `"abilities"`, `"proficiencies"`, `"magic"`, `"spell_effects"`, `"inventory"`}
	last := -1
	for _, key := range order {
		i := strings.Index(s, key)
		if i <= last {
			t.Fatalf("field %s out of order in %s", key, s)
		}
		last = i
	}

	var back Character
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c, back) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, c)
	}
}

func TestCharacter_Inventory(t *testing.T) {
	c := testCharacter()

	if c.AddItem("rope", false) {
		t.Error("duplicate rope added without allowMultiple")
	}
	if !c.AddItem("rope", true) {
		t.Error("rope not added with allowMultiple")
	}
	if !c.AddItem("torch", false) {
		t.Error("torch not added")
	}
	want := []string{"Wooden sword", "rope", "rope", "torch"}
	if !reflect.DeepEqual(c.Inventory, want) {
		t.Fatalf("Inventory = %v, want %v", c.Inventory, want)
	}

	if !c.RemoveItem("rope") {
		t.Error("RemoveItem(rope) = false")
	}
	if c.RemoveItem("lantern") {
		t.Error("RemoveItem(lantern) = true for missing item")
	}
	want = []string{"Wooden sword", "rope", "torch"}
	if !reflect.DeepEqual(c.Inventory, want) {
		t.Errorf("Inventory = %v, want %v", c.Inventory, want)
	}
}

func TestCharacter_SpendGold(t *testing.T) {
	c := testCharacter()
	if err := c.SpendGold(25); err == nil {
		t.Error("expected error spending more gold than carried")
	}
	if c.Gold != 20 {
		t.Errorf("Gold changed on failed spend: %d", c.Gold)
	}
	if err := c.SpendGold(-1); err == nil {
		t.Error("expected error for negative amount")
	}
	if err := c.SpendGold(20); err != nil {
		t.Fatalf("SpendGold(20) error = %v", err)
	}
	if c.Gold != 0 {
		t.Errorf("Gold = %d, want 0", c.Gold)
	}
}

func TestCharacter_TickSpellEffects(t *testing.T) {
	c := testCharacter()
	c.SpellEffects = []SpellEffect{
		{Effect: "bless", MinutesRemaining: 1},
		{Effect: "mage armor", MinutesRemaining: 480},
		{Effect: "shield", MinutesRemaining: 0},
	}

	c.TickSpellEffects(10)
	want := []SpellEffect{{Effect: "mage armor", MinutesRemaining: 470}}
	if !reflect.DeepEqual(c.SpellEffects, want) {
		t.Errorf("SpellEffects = %+v, want %+v", c.SpellEffects, want)
	}

	c.SpellEffects = nil
	c.TickSpellEffects(5)
	if c.SpellEffects != nil {
		t.Errorf("nil effects became %v", c.SpellEffects)
	}
}

func TestCharacter_ClampHP(t *testing.T) {
	tests := []struct {
		hp, maxHP, want int
	}{
		{hp: 30, maxHP: 24, want: 24},
		{hp: -4, maxHP: 24, want: 0},
		{hp: 12, maxHP: 24, want: 12},
	}
	for _, tt := range tests {
		c := Character{HP: tt.hp, MaxHP: tt.maxHP}
		c.ClampHP()
		if c.HP != tt.want {
			t.Errorf("ClampHP(%d/%d) = %d, want %d", tt.hp, tt.maxHP, c.HP, tt.want)
		}
	}
	if (&Character{HP: 0}).IsDead() != true {
		t.Error("IsDead() false at 0 HP")
	}
}

func TestMonster_IsDefeated(t *testing.T) {
	tests := []struct {
		m    Monster
		want bool
	}{
		{Monster{ID: "goblin_1", Health: 7, Status: "hostile"}, false},
		{Monster{ID: "goblin_1", Health: 0}, true},
		{Monster{ID: "goblin_1", Health: 3, Status: "Dead"}, true},
		{Monster{ID: "goblin_1", Health: 3, Status: "fled"}, true},
	}
	for _, tt := range tests {
		if got := tt.m.IsDefeated(); got != tt.want {
			t.Errorf("IsDefeated(%+v) = %v, want %v", tt.m, got, tt.want)
		}
	}
}
