package models

import "time"

// Admin is a club administrator account, authenticated through Firebase.
// The admin's ID doubles as the club namespace for members and visits.
type Admin struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	GymName   string    `json:"gymName"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
