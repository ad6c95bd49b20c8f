package models

import "time"

// Visit is one accepted, geofence-validated gym attendance event.
// Visits are append-only; they are never mutated or deleted by the core.
type Visit struct {
	ID         string       `json:"id,omitempty"`
	MemberID   string       `json:"memberId"`
	MemberName string       `json:"memberName"`
	ClubID     string       `json:"clubId"`
	Date       time.Time    `json:"date"`
	Location   *Coordinates `json:"location,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
}
