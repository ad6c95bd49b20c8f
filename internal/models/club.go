package models

import "time"

// Coordinates is a geographic point
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ClubLocation is the registered club point plus the allowed scan radius
type ClubLocation struct {
	Coordinates
	MaxDistanceMeters float64 `json:"maxDistanceMeters"`
}

// ClubInfo holds the administrator-managed club metadata, including the
// geofence used to validate scans.
type ClubInfo struct {
	ID             string       `json:"id,omitempty"`
	ClubID         string       `json:"clubId"`
	Name           string       `json:"name"`
	Phone          string       `json:"phone"`
	Email          string       `json:"email"`
	Address        string       `json:"address"`
	Website        string       `json:"website"`
	Instagram      string       `json:"instagram"`
	Facebook       string       `json:"facebook"`
	WelcomeMessage string       `json:"welcomeMessage"`
	Hours          string       `json:"hours"`
	Location       ClubLocation `json:"geofence"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}
