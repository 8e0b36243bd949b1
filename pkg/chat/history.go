package chat

// Pair is one turn of conversation: the player's command and the narration
// the player saw.
type Pair struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// History is the append-only conversation log of a session, in turn order.
type History struct {
	pairs []Pair
}

// NewHistory creates an empty history for a brand-new scenario.
func NewHistory() *History {
	return &History{pairs: make([]Pair, 0)}
}

// HistoryFrom creates a history holding a copy of pairs.
func HistoryFrom(pairs []Pair) *History {
	h := NewHistory()
	h.Replace(pairs)
	return h
}

// Append records one completed turn.
func (h *History) Append(input, output string) {
	h.pairs = append(h.pairs, Pair{Input: input, Output: output})
}

// Len returns the number of recorded turns.
func (h *History) Len() int {
	return len(h.pairs)
}

// Pairs returns a copy of every recorded turn.
func (h *History) Pairs() []Pair {
	out := make([]Pair, len(h.pairs))
	copy(out, h.pairs)
	return out
}

// Last returns a copy of the most recent n turns. n <= 0 means all.
func (h *History) Last(n int) []Pair {
	if n <= 0 || n >= len(h.pairs) {
		return h.Pairs()
	}
	out := make([]Pair, n)
	copy(out, h.pairs[len(h.pairs)-n:])
	return out
}

// Replace swaps the whole log for a copy of pairs. Only loading a saved
// session does this.
func (h *History) Replace(pairs []Pair) {
	h.pairs = make([]Pair, len(pairs))
	copy(h.pairs, pairs)
}
