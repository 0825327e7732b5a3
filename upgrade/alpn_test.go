package upgrade

import "testing"

func TestSelectALPNPrefersH3(t *testing.T) {
	got := SelectALPN([]string{"http/1.1", "h2", "h3"})
	if got != "h3" {
		t.Fatalf("SelectALPN() = %q, want h3", got)
	}
}

func TestSelectALPNFallsBackToH2(t *testing.T) {
	got := SelectALPN([]string{"http/1.1", "h2"})
	if got != "h2" {
		t.Fatalf("SelectALPN() = %q, want h2", got)
	}
}

func TestSelectALPNNoMatch(t *testing.T) {
	got := SelectALPN([]string{"spdy/3.1"})
	if got != "" {
		t.Fatalf("SelectALPN() = %q, want empty", got)
	}
}
