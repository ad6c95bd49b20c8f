package loyalty

import "testing"

func TestMotivationFor(t *testing.T) {
	cfg := DefaultRewardConfig()
	rules := DefaultMotivationRules()

	tests := []struct {
		name         string
		visits       int
		wantCategory string
		wantNil      bool
	}{
		{"welcome at zero", 0, "welcome", false},
		{"first visit", 1, "beginner", false},
		{"five visits", 5, "progress", false},
		{"two before reward", 8, "reward_alert", false},
		{"one before reward", 19, "reward_alert", false},
		{"argent level up", 30, "achievement", false},
		{"or level up", 70, "achievement", false},
		{"platine level up", 150, "achievement", false},
		{"hundredth visit", 100, "progress", false},
		{"no rule", 13, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MotivationFor(tt.visits, cfg, rules)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("MotivationFor(%d) = %+v, want nil", tt.visits, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("MotivationFor(%d) = nil, want category %s", tt.visits, tt.wantCategory)
			}
			if got.Category != tt.wantCategory {
				t.Errorf("MotivationFor(%d).Category = %s, want %s", tt.visits, got.Category, tt.wantCategory)
			}
		})
	}
}

func TestMotivationForLastMatchWins(t *testing.T) {
	cfg := DefaultRewardConfig()
	rules := []MotivationRule{
		{ID: "a", Message: "first", Kind: MatchVisitsMod, Value: 0},
		{ID: "b", Message: "second", Kind: MatchExactVisits, Value: 30},
	}

	got := MotivationFor(30, cfg, rules)
	if got == nil || got.ID != "b" {
		t.Fatalf("MotivationFor(30) = %+v, want the later rule", got)
	}
}

func TestMatchVisitsModCustomCycle(t *testing.T) {
	rule := MotivationRule{Kind: MatchVisitsMod, Value: 4}
	if !rule.Matches(9, 5) {
		t.Error("9 mod 5 should match value 4")
	}
	if rule.Matches(9, 10) {
		t.Error("9 mod 10 should not match value 4")
	}
}
