package dice

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

const (
	MaxCount = 100
	MaxSides = 1000
)

// ErrInvalidExpression is returned for any dice expression that is not
// a plain NdS[+M...] expression.
var ErrInvalidExpression = errors.New("invalid dice expression")

// Spec is a parsed dice expression: Count dice of Sides sides plus Modifier.
type Spec struct {
	Count    int `json:"count"`
	Sides    int `json:"sides"`
	Modifier int `json:"modifier"`
}

// String renders the spec back into NdS+M notation.
func (s Spec) String() string {
	switch {
	case s.Modifier > 0:
		return fmt.Sprintf("%dd%d+%d", s.Count, s.Sides, s.Modifier)
	case s.Modifier < 0:
		return fmt.Sprintf("%dd%d%d", s.Count, s.Sides, s.Modifier)
	default:
		return fmt.Sprintf("%dd%d", s.Count, s.Sides)
	}
}

// Min is the lowest total the spec can produce.
func (s Spec) Min() int { return s.Count + s.Modifier }

// Max is the highest total the spec can produce.
func (s Spec) Max() int { return s.Count*s.Sides + s.Modifier }

// diceLexer only knows digits, the die marker, arithmetic operators and
// whitespace. Anything else, such as "+Wisdom Modifier", fails to lex.
var diceLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Die", Pattern: `[dD]`},
	{Name: "Op", Pattern: `[-+*/]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

type expression struct {
	Count     string      `parser:"@Int?"`
	Sides     string      `parser:"Die @Int"`
	Modifiers []*modifier `parser:"@@*"`
}

type modifier struct {
	Sign  string `parser:"@(\"+\" | \"-\")"`
	Value string `parser:"@Int"`
}

var diceParser = participle.MustBuild[expression](
	participle.Lexer(diceLexer),
	participle.Elide("Whitespace"),
)

// Parse converts a dice expression such as "2d6+3" into a Spec.
func Parse(expr string) (Spec, error) {
	raw := strings.TrimSpace(expr)
	if raw == "" {
		return Spec{}, fmt.Errorf("%w: empty expression", ErrInvalidExpression)
	}

	ast, err := diceParser.ParseString("", raw)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %q: %v", ErrInvalidExpression, raw, err)
	}

	spec := Spec{Count: 1}
	if ast.Count != "" {
		if spec.Count, err = strconv.Atoi(ast.Count); err != nil {
			return Spec{}, fmt.Errorf("%w: %q: bad count", ErrInvalidExpression, raw)
		}
	}
	if spec.Sides, err = strconv.Atoi(ast.Sides); err != nil {
		return Spec{}, fmt.Errorf("%w: %q: bad sides", ErrInvalidExpression, raw)
	}
	if spec.Count < 1 || spec.Count > MaxCount {
		return Spec{}, fmt.Errorf("%w: %q: count must be between 1 and %d", ErrInvalidExpression, raw, MaxCount)
	}
	if spec.Sides < 1 || spec.Sides > MaxSides {
		return Spec{}, fmt.Errorf("%w: %q: sides must be between 1 and %d", ErrInvalidExpression, raw, MaxSides)
	}

	for _, m := range ast.Modifiers {
		v, err := strconv.Atoi(m.Value)
		if err != nil || v > 1_000_000 {
			return Spec{}, fmt.Errorf("%w: %q: bad modifier", ErrInvalidExpression, raw)
		}
		if m.Sign == "-" {
			v = -v
		}
		spec.Modifier += v
	}

	return spec, nil
}
