package plan

import "testing"

func TestNewRegistry_LoadsEmbeddedTable(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		tier Tier
		want Limits
	}{
		{TierFree, Limits{MaxBooks: 1, MaxSessionsPerMonth: 5, MaxSessionMinutes: 5, SessionHistory: false}},
		{TierStandard, Limits{MaxBooks: 10, MaxSessionsPerMonth: 100, MaxSessionMinutes: 15, SessionHistory: true}},
		{TierPro, Limits{MaxBooks: 100, MaxSessionsPerMonth: Unlimited, MaxSessionMinutes: 60, SessionHistory: true}},
	}

	for _, tt := range tests {
		got := r.Limits(tt.tier)
		if got != tt.want {
			t.Errorf("Limits(%s) = %+v, want %+v", tt.tier, got, tt.want)
		}
	}
}

func TestRegistry_UnknownTierFallsBackToFree(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := r.Limits(Tier("enterprise")); got != r.Limits(TierFree) {
		t.Errorf("unknown tier limits = %+v, want free tier limits", got)
	}
}

func TestTierFromString(t *testing.T) {
	tests := []struct {
		in   string
		want Tier
	}{
		{"free", TierFree},
		{"standard", TierStandard},
		{"pro", TierPro},
		{"", TierFree},
		{"PRO", TierFree}, // provider plan names are lowercase
		{"enterprise", TierFree},
	}
	for _, tt := range tests {
		if got := TierFromString(tt.in); got != tt.want {
			t.Errorf("TierFromString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
