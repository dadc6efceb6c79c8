package detect

import "testing"

func TestDefaultChainOrderedByRank(t *testing.T) {
	chain := DefaultChain()
	if len(chain) != 3 {
		t.Fatalf("chain length = %d", len(chain))
	}
	for i := 1; i < len(chain); i++ {
		if chain[i].Rank <= chain[i-1].Rank {
			t.Errorf("chain must be cheapest-first: %v", chain)
		}
	}
	if chain[0].ID != "gemini-2.0-flash-lite" {
		t.Errorf("head tier = %q", chain[0].ID)
	}
}

func TestStartingAtDropsCheaperTiers(t *testing.T) {
	chain := DefaultChain()

	sub := chain.StartingAt("gemini-2.0-flash")
	if len(sub) != 2 || sub[0].ID != "gemini-2.0-flash" {
		t.Errorf("sub-chain = %v", sub)
	}

	if got := chain.StartingAt(""); len(got) != len(chain) {
		t.Error("empty ID must select the full chain")
	}
	if got := chain.StartingAt("no-such-model"); len(got) != len(chain) {
		t.Error("unknown ID must select the full chain")
	}
}

func TestFind(t *testing.T) {
	chain := DefaultChain()
	tier, ok := chain.Find("gemini-2.5-pro")
	if !ok || tier.Label != "Advanced" {
		t.Errorf("Find = %v, %v", tier, ok)
	}
	if _, ok := chain.Find("absent"); ok {
		t.Error("Find must miss on unknown IDs")
	}
}
