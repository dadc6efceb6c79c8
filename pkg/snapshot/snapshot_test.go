package snapshot

import "testing"

func TestClampScore(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 0},
		{0, 0},
		{50, 50},
		{100, 100},
		{140, 100},
	}
	for _, tt := range tests {
		if got := ClampScore(tt.in); got != tt.want {
			t.Errorf("ClampScore(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClampScoreRange(t *testing.T) {
	for s := -200; s <= 300; s += 7 {
		got := ClampScore(s)
		if got < 0 || got > 100 {
			t.Fatalf("ClampScore(%d) = %d outside [0,100]", s, got)
		}
	}
}

func TestParseURL(t *testing.T) {
	p, err := ParseURL("https://login.example.com:8443/account/verify?next=home")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Protocol != "https" || p.Hostname != "login.example.com" {
		t.Errorf("unexpected scheme/host: %+v", p)
	}
	if p.Port != "8443" || p.Path != "/account/verify" || p.Query != "next=home" {
		t.Errorf("unexpected components: %+v", p)
	}
}

func TestTrimReasoning(t *testing.T) {
	got := TrimReasoning([]string{"a", "", "b", "c", "d"})
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("unexpected trim order: %v", got)
	}

	got = TrimReasoning(nil)
	if len(got) != 1 || got[0] == "" {
		t.Errorf("expected generic entry for empty reasoning, got %v", got)
	}
}
