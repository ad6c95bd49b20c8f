package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"carte_challenge_echo/internal/models"
	"carte_challenge_echo/internal/services"
	"carte_challenge_echo/internal/store"
)

// AdminHandler exposes the club-management endpoints. The authenticated
// admin's UID is the club identifier for every operation.
type AdminHandler struct {
	loyalty *services.LoyaltyService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(l *services.LoyaltyService) *AdminHandler {
	return &AdminHandler{loyalty: l}
}

// HandleUpdateClub saves the club's metadata and geofence
func (h *AdminHandler) HandleUpdateClub(c echo.Context) error {
	clubID := getStringFromContext(c, "adminUID")

	var info models.ClubInfo
	if err := c.Bind(&info); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	info.ClubID = clubID

	err := h.loyalty.SaveClubInfo(c.Request().Context(), &info)
	return mutationResponse(c, err, http.StatusOK, map[string]interface{}{"club": info})
}

// HandleListMembers returns the club roster with derived state
func (h *AdminHandler) HandleListMembers(c echo.Context) error {
	clubID := getStringFromContext(c, "adminUID")

	members, fromCache, err := h.loyalty.Members(c.Request().Context(), clubID)
	if err != nil {
		return err
	}
	body := map[string]interface{}{"members": members}
	if fromCache {
		body["unconfirmed"] = true
	}
	return c.JSON(http.StatusOK, body)
}

// HandleCreateMember registers a member from the admin console
func (h *AdminHandler) HandleCreateMember(c echo.Context) error {
	clubID := getStringFromContext(c, "adminUID")

	var req CreateMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	m := models.NewMember(req.Name, clubID, time.Now())
	m.Email = req.Email
	m.Phone = req.Phone

	err := h.loyalty.CreateMember(c.Request().Context(), m)
	return mutationResponse(c, err, http.StatusCreated, map[string]interface{}{"member": m})
}

// HandleDeleteMember removes a member and their visit history
func (h *AdminHandler) HandleDeleteMember(c echo.Context) error {
	clubID := getStringFromContext(c, "adminUID")

	err := h.loyalty.DeleteMember(c.Request().Context(), clubID, c.Param("id"))
	return mutationResponse(c, err, http.StatusOK, map[string]interface{}{"status": "deleted"})
}

// HandleCreateReward adds a reward catalog entry
func (h *AdminHandler) HandleCreateReward(c echo.Context) error {
	clubID := getStringFromContext(c, "adminUID")

	var req CreateRewardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.RequiredVisits <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "name and a positive required_visits are required")
	}

	reward := &models.RewardCatalogEntry{
		Name:           req.Name,
		Description:    req.Description,
		RequiredVisits: req.RequiredVisits,
		Rarity:         models.Rarity(req.Rarity),
		Emoji:          req.Emoji,
		ClubID:         clubID,
		CreatedAt:      time.Now(),
	}

	err := h.loyalty.AddReward(c.Request().Context(), reward)
	return mutationResponse(c, err, http.StatusCreated, map[string]interface{}{"reward": reward})
}

// HandleDeleteReward removes a reward catalog entry
func (h *AdminHandler) HandleDeleteReward(c echo.Context) error {
	clubID := getStringFromContext(c, "adminUID")

	err := h.loyalty.RemoveReward(c.Request().Context(), clubID, c.Param("id"))
	return mutationResponse(c, err, http.StatusOK, map[string]interface{}{"status": "deleted"})
}

// HandleStats aggregates club-wide numbers for the dashboard
func (h *AdminHandler) HandleStats(c echo.Context) error {
	clubID := getStringFromContext(c, "adminUID")

	stats, err := h.loyalty.AdminStats(c.Request().Context(), clubID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// mutationResponse maps a consistency-layer fallback to a success response
// flagged unconfirmed. Any other error propagates to the error handler.
func mutationResponse(c echo.Context, err error, status int, body map[string]interface{}) error {
	if err != nil {
		if !store.IsRemoteUnavailable(err) {
			return err
		}
		body["unconfirmed"] = true
		body["warning"] = "enregistré localement, synchronisation en attente"
	}
	return c.JSON(status, body)
}
