package loyalty

import "carte_challenge_echo/internal/models"

// DefaultVisitsPerReward is the number of visits that earns one reward
// credit. Operators can tune it through RewardConfig without touching the
// formulas below.
const DefaultVisitsPerReward = 10

// Level thresholds, inclusive lower bounds. A boundary value belongs to the
// higher level (exactly 30 visits is Argent).
const (
	minVisitsArgent  = 30
	minVisitsOr      = 70
	minVisitsPlatine = 150
)

// RewardConfig carries the tunable accrual parameters
type RewardConfig struct {
	VisitsPerReward int
}

// DefaultRewardConfig returns the accrual parameters of the original program
func DefaultRewardConfig() RewardConfig {
	return RewardConfig{VisitsPerReward: DefaultVisitsPerReward}
}

// LevelFor maps a cumulative visit count to a membership level
func LevelFor(visits int) models.Level {
	switch {
	case visits >= minVisitsPlatine:
		return models.LevelPlatine
	case visits >= minVisitsOr:
		return models.LevelOr
	case visits >= minVisitsArgent:
		return models.LevelArgent
	default:
		return models.LevelBronze
	}
}

// RewardCreditsFor maps a cumulative visit count to earned reward credits
func (c RewardConfig) RewardCreditsFor(visits int) int {
	per := c.VisitsPerReward
	if per <= 0 {
		per = DefaultVisitsPerReward
	}
	return visits / per
}

// VisitsToNextLevel returns the visits remaining until the next level,
// or 0 when the member already is Platine.
func VisitsToNextLevel(visits int) int {
	switch {
	case visits < minVisitsArgent:
		return minVisitsArgent - visits
	case visits < minVisitsOr:
		return minVisitsOr - visits
	case visits < minVisitsPlatine:
		return minVisitsPlatine - visits
	default:
		return 0
	}
}

// NextLevel returns the level that follows the member's current one, or the
// empty string for Platine members.
func NextLevel(visits int) models.Level {
	switch {
	case visits < minVisitsArgent:
		return models.LevelArgent
	case visits < minVisitsOr:
		return models.LevelOr
	case visits < minVisitsPlatine:
		return models.LevelPlatine
	default:
		return ""
	}
}

// RewardProgress describes progress toward the next reward credit
type RewardProgress struct {
	Current    int     `json:"current"`
	Required   int     `json:"required"`
	Percentage float64 `json:"percentage"`
}

// Progress returns the position within the current reward cycle
func (c RewardConfig) Progress(visits int) RewardProgress {
	per := c.VisitsPerReward
	if per <= 0 {
		per = DefaultVisitsPerReward
	}
	current := visits % per
	return RewardProgress{
		Current:    current,
		Required:   per,
		Percentage: float64(current) / float64(per) * 100,
	}
}

// CheckCounters verifies that a member's derived counters agree with its
// visit count. A non-nil error means the record must not be trusted for
// reward granting until its counters are recomputed.
func (c RewardConfig) CheckCounters(m *models.Member) error {
	wantCredits := c.RewardCreditsFor(m.Visits)
	wantLevel := LevelFor(m.Visits)
	if m.TotalRewards != wantCredits || m.Level != wantLevel {
		return &InvariantViolationError{
			MemberID:    m.ID,
			Visits:      m.Visits,
			GotCredits:  m.TotalRewards,
			WantCredits: wantCredits,
			GotLevel:    string(m.Level),
			WantLevel:   string(wantLevel),
		}
	}
	return nil
}
