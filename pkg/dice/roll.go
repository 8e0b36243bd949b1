package dice

import (
	"fmt"

	"github.com/jwebster45206/d20"
)

// Mode records how a Result was resolved.
type Mode string

const (
	ModeNormal       Mode = "normal"
	ModeAdvantage    Mode = "advantage"
	ModeDisadvantage Mode = "disadvantage"
)

// Result is the outcome of Resolve.
type Result struct {
	Spec  Spec    `json:"spec"`
	Rolls []int   `json:"rolls"` // every roll total performed, in order
	Faces [][]int `json:"faces"` // die faces behind each entry of Rolls
	Total int     `json:"total"` // the kept total
	Mode  Mode    `json:"mode"`
}

// Roller rolls dice through a single d20 roller.
// It is not safe for concurrent use.
type Roller struct {
	d *d20.Roller
}

// NewRoller wraps r. Use d20.NewRoller(seed) for reproducible rolls.
func NewRoller(r *d20.Roller) *Roller {
	return &Roller{d: r}
}

// New creates a Roller seeded from the clock.
func New() *Roller {
	return NewRoller(d20.NewRandomRoller())
}

// Roll sums one draw in [1, Sides] per die plus the modifier.
func (r *Roller) Roll(spec Spec) (d20.RollOutcome, error) {
	b := r.d.Dice(uint(spec.Count), uint(spec.Sides))
	if spec.Modifier != 0 {
		b = b.WithModifier("modifier", spec.Modifier)
	}
	out, err := b.Roll()
	if err != nil {
		return d20.RollOutcome{}, fmt.Errorf("%w: %s: %v", ErrInvalidExpression, spec, err)
	}
	return out, nil
}

// Resolve parses expr and rolls it once, or twice keeping the higher
// (advantage) or lower (disadvantage) total. When both flags are set they
// cancel out and a single plain roll is made.
//
// Advantage compares whole totals, so 2d6 with advantage keeps the better
// of two 2d6 sums rather than the better face per die.
func (r *Roller) Resolve(expr string, advantage, disadvantage bool) (Result, error) {
	spec, err := Parse(expr)
	if err != nil {
		return Result{}, err
	}

	res := Result{Spec: spec, Mode: ModeNormal}
	if advantage && disadvantage {
		advantage, disadvantage = false, false
	}

	first, err := r.Roll(spec)
	if err != nil {
		return Result{}, err
	}
	res.Rolls = append(res.Rolls, first.Value)
	res.Faces = append(res.Faces, first.DiceRolls)
	res.Total = first.Value

	if !advantage && !disadvantage {
		return res, nil
	}

	second, err := r.Roll(spec)
	if err != nil {
		return Result{}, err
	}
	res.Rolls = append(res.Rolls, second.Value)
	res.Faces = append(res.Faces, second.DiceRolls)
	if advantage {
		res.Mode = ModeAdvantage
		res.Total = max(first.Value, second.Value)
	} else {
		res.Mode = ModeDisadvantage
		res.Total = min(first.Value, second.Value)
	}
	return res, nil
}
