package detect

// Tier is one remote-model configuration in the cost/quality-ordered
// fallback chain.
type Tier struct {
	// ID is the model identifier sent to the scoring API.
	ID string `json:"id"`
	// Label is the human-readable name surfaced in notices.
	Label string `json:"label"`
	// Rank is the relative cost/quality position, lowest first.
	Rank int `json:"rank"`
}

// Chain is an ordered, immutable sequence of tiers. Traversal is strictly
// forward: a tier that failed is never retried within one scan.
type Chain []Tier

// DefaultChain returns the shipped tier ordering, cheapest first.
func DefaultChain() Chain {
	return Chain{
		{ID: "gemini-2.0-flash-lite", Label: "Lite", Rank: 0},
		{ID: "gemini-2.0-flash", Label: "Standard", Rank: 1},
		{ID: "gemini-2.5-pro", Label: "Advanced", Rank: 2},
	}
}

// StartingAt returns the sub-chain beginning at the tier with the given
// ID. Later tiers remain available as fallbacks; earlier (cheaper) tiers
// are never revisited. An empty or unknown ID returns the full chain.
func (c Chain) StartingAt(id string) Chain {
	if id == "" {
		return c
	}
	for i, t := range c {
		if t.ID == id {
			return c[i:]
		}
	}
	return c
}

// Find returns the tier with the given ID, if present.
func (c Chain) Find(id string) (Tier, bool) {
	for _, t := range c {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}
