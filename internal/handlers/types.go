package handlers

import (
	"github.com/labstack/echo/v4"

	"carte_challenge_echo/internal/loyalty"
	"carte_challenge_echo/internal/models"
)

// MemberLoginRequest is the body of POST /api/members/login
type MemberLoginRequest struct {
	Name   string `json:"name"`
	ClubID string `json:"club_id"`
}

// ScanRequest is the body of POST /api/members/:id/scan. The coordinates
// are the position reported by the member's device at scan time.
type ScanRequest struct {
	Payload   string  `json:"payload"`
	ClubID    string  `json:"club_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ScanResponse is the outcome of a scan attempt
type ScanResponse struct {
	Accepted        bool           `json:"accepted"`
	Member          *models.Member `json:"member,omitempty"`
	Visit           *models.Visit  `json:"visit,omitempty"`
	RewardGranted   bool           `json:"reward_granted,omitempty"`
	Unconfirmed     bool           `json:"unconfirmed,omitempty"`
	Warning         string         `json:"warning,omitempty"`
	Motivation      string         `json:"motivation,omitempty"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	Rejection       string         `json:"rejection,omitempty"`
	DistanceMeters  int            `json:"distance_m,omitempty"`
}

// ProgressResponse is the body of GET /api/members/:id/progress
type ProgressResponse struct {
	Member   *models.Member         `json:"member"`
	Progress loyalty.RewardProgress `json:"progress"`
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	GymName  string `json:"gym_name"`
	Phone    string `json:"phone"`
}

// CreateMemberRequest is the body of POST /admin/members
type CreateMemberRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	ClubID string `json:"club_id"`
}

// CreateRewardRequest is the body of POST /admin/rewards
type CreateRewardRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	RequiredVisits int    `json:"required_visits"`
	Rarity         string `json:"rarity"`
	Emoji          string `json:"emoji"`
	ClubID         string `json:"club_id"`
}

// getStringFromContext reads a string value the auth middleware stored
func getStringFromContext(c echo.Context, key string) string {
	if val := c.Get(key); val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}
