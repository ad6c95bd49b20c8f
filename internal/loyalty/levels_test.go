package loyalty

import (
	"testing"

	"carte_challenge_echo/internal/models"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name   string
		visits int
		want   models.Level
	}{
		{"zero visits", 0, models.LevelBronze},
		{"just below argent", 29, models.LevelBronze},
		{"argent boundary", 30, models.LevelArgent},
		{"just below or", 69, models.LevelArgent},
		{"or boundary", 70, models.LevelOr},
		{"just below platine", 149, models.LevelOr},
		{"platine boundary", 150, models.LevelPlatine},
		{"far past platine", 500, models.LevelPlatine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LevelFor(tt.visits); got != tt.want {
				t.Errorf("LevelFor(%d) = %v, want %v", tt.visits, got, tt.want)
			}
		})
	}
}

func TestRewardCreditsFor(t *testing.T) {
	cfg := DefaultRewardConfig()

	tests := []struct {
		visits int
		want   int
	}{
		{0, 0},
		{9, 0},
		{10, 1},
		{19, 1},
		{20, 2},
		{99, 9},
		{100, 10},
	}

	for _, tt := range tests {
		if got := cfg.RewardCreditsFor(tt.visits); got != tt.want {
			t.Errorf("RewardCreditsFor(%d) = %d, want %d", tt.visits, got, tt.want)
		}
	}
}

func TestRewardCreditsForCustomCycle(t *testing.T) {
	cfg := RewardConfig{VisitsPerReward: 5}
	if got := cfg.RewardCreditsFor(12); got != 2 {
		t.Errorf("RewardCreditsFor(12) with cycle 5 = %d, want 2", got)
	}

	// A non-positive cycle falls back to the default
	cfg = RewardConfig{VisitsPerReward: 0}
	if got := cfg.RewardCreditsFor(25); got != 2 {
		t.Errorf("RewardCreditsFor(25) with cycle 0 = %d, want 2", got)
	}
}

func TestVisitsToNextLevel(t *testing.T) {
	tests := []struct {
		visits int
		want   int
	}{
		{0, 30},
		{29, 1},
		{30, 40},
		{69, 1},
		{70, 80},
		{149, 1},
		{150, 0},
		{300, 0},
	}

	for _, tt := range tests {
		if got := VisitsToNextLevel(tt.visits); got != tt.want {
			t.Errorf("VisitsToNextLevel(%d) = %d, want %d", tt.visits, got, tt.want)
		}
	}
}

func TestNextLevel(t *testing.T) {
	if got := NextLevel(10); got != models.LevelArgent {
		t.Errorf("NextLevel(10) = %v, want argent", got)
	}
	if got := NextLevel(150); got != "" {
		t.Errorf("NextLevel(150) = %v, want empty", got)
	}
}

func TestProgress(t *testing.T) {
	cfg := DefaultRewardConfig()

	p := cfg.Progress(7)
	if p.Current != 7 || p.Required != 10 {
		t.Fatalf("Progress(7) = %+v, want current 7 of 10", p)
	}
	if p.Percentage != 70 {
		t.Errorf("Progress(7).Percentage = %v, want 70", p.Percentage)
	}

	// A fresh cycle starts back at zero
	p = cfg.Progress(10)
	if p.Current != 0 || p.Percentage != 0 {
		t.Errorf("Progress(10) = %+v, want a fresh cycle", p)
	}
}

func TestCheckCounters(t *testing.T) {
	cfg := DefaultRewardConfig()

	consistent := &models.Member{ID: "m1", Visits: 42, TotalRewards: 4, Level: models.LevelArgent}
	if err := cfg.CheckCounters(consistent); err != nil {
		t.Errorf("CheckCounters on consistent member: %v", err)
	}

	badCredits := &models.Member{ID: "m2", Visits: 42, TotalRewards: 7, Level: models.LevelArgent}
	err := cfg.CheckCounters(badCredits)
	if err == nil {
		t.Fatal("CheckCounters accepted inconsistent credits")
	}
	violation, ok := err.(*InvariantViolationError)
	if !ok {
		t.Fatalf("CheckCounters error type = %T, want *InvariantViolationError", err)
	}
	if violation.WantCredits != 4 || violation.GotCredits != 7 {
		t.Errorf("violation = %+v, want got 7 / want 4", violation)
	}

	badLevel := &models.Member{ID: "m3", Visits: 42, TotalRewards: 4, Level: models.LevelPlatine}
	if cfg.CheckCounters(badLevel) == nil {
		t.Error("CheckCounters accepted inconsistent level")
	}
}
