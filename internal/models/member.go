package models

import "time"

// Level represents a membership tier derived from the cumulative visit count
type Level string

const (
	LevelBronze  Level = "Bronze"
	LevelArgent  Level = "Argent"
	LevelOr      Level = "Or"
	LevelPlatine Level = "Platine"
)

// Member represents a single gym-goer belonging to one club.
//
// Visits is monotonically non-decreasing. TotalRewards and Level are derived
// from Visits and must never be set independently of it.
type Member struct {
	ID           string     `json:"id,omitempty"`
	Name         string     `json:"name"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Visits       int        `json:"visits"`
	TotalRewards int        `json:"totalRewards"`
	Level        Level      `json:"level"`
	ClubID       string     `json:"clubId"`
	JoinDate     time.Time  `json:"joinDate"`
	LastVisit    *time.Time `json:"lastVisit"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// NewMember builds a fresh member record for a club with zeroed counters
func NewMember(name, clubID string, now time.Time) *Member {
	return &Member{
		Name:      name,
		Visits:    0,
		Level:     LevelBronze,
		ClubID:    clubID,
		JoinDate:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
