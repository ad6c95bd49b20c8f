package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"carte_challenge_echo/internal/loyalty"
	"carte_challenge_echo/internal/models"
	"carte_challenge_echo/internal/services"
	"carte_challenge_echo/internal/session"
)

// MemberHandler exposes the member-facing loyalty endpoints
type MemberHandler struct {
	loyalty  *services.LoyaltyService
	sessions *session.Manager
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(l *services.LoyaltyService, sessions *session.Manager) *MemberHandler {
	return &MemberHandler{loyalty: l, sessions: sessions}
}

// HandleLogin signs a member in by name, creating the account on first login
func (h *MemberHandler) HandleLogin(c echo.Context) error {
	var req MemberLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.ClubID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and club_id are required")
	}

	res, err := h.loyalty.LoginMember(c.Request().Context(), req.ClubID, req.Name)
	if err != nil {
		return err
	}

	if saveErr := h.sessions.Save(c.Request().Context(), &session.Session{
		Member: res.Member,
		ClubID: req.ClubID,
	}); saveErr != nil {
		return saveErr
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	body := map[string]interface{}{
		"member":  res.Member,
		"created": res.Created,
	}
	if res.Unconfirmed {
		body["unconfirmed"] = true
		body["warning"] = "enregistré localement, synchronisation en attente"
	}
	return c.JSON(status, body)
}

// HandleScan validates a scanned code and records the visit when accepted
func (h *MemberHandler) HandleScan(c echo.Context) error {
	memberID := c.Param("id")

	var req ScanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ClubID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "club_id is required")
	}

	provider := positionFromRequest(req)

	res, err := h.loyalty.RecordScan(c.Request().Context(), req.ClubID, memberID, req.Payload, provider)
	if err != nil {
		return err
	}

	resp := ScanResponse{
		Accepted:       res.Accepted,
		DistanceMeters: res.DistanceMeters,
	}
	if res.Accepted {
		resp.Member = res.Member
		resp.Visit = res.Visit
		resp.RewardGranted = res.RewardGranted
		resp.Unconfirmed = res.Unconfirmed
		if res.Unconfirmed {
			resp.Warning = "visite enregistrée localement, synchronisation en attente"
		}
		if res.Motivation != nil {
			resp.Motivation = res.Motivation.Message
		}
	} else {
		resp.Rejection = string(res.Rejection)
		resp.RejectionReason = res.Reason
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleSession rehydrates a stored session, reconciling the member record
// with the remote store when it is reachable
func (h *MemberHandler) HandleSession(c echo.Context) error {
	clubID := c.QueryParam("club_id")
	if clubID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "club_id is required")
	}

	sess, err := h.sessions.Hydrate(c.Request().Context(), clubID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleLogout tears down the member's session
func (h *MemberHandler) HandleLogout(c echo.Context) error {
	clubID := c.QueryParam("club_id")
	if clubID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "club_id is required")
	}

	h.sessions.Teardown(c.Request().Context(), clubID, c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

// HandleProgress reports the member's counters and reward-cycle position
func (h *MemberHandler) HandleProgress(c echo.Context) error {
	clubID := c.QueryParam("club_id")
	if clubID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "club_id is required")
	}

	m, progress, err := h.loyalty.Progress(c.Request().Context(), clubID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ProgressResponse{Member: m, Progress: progress})
}

// HandleVisits lists the member's visits, most recent first
func (h *MemberHandler) HandleVisits(c echo.Context) error {
	clubID := c.QueryParam("club_id")
	if clubID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "club_id is required")
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	visits, err := h.loyalty.RecentVisits(c.Request().Context(), clubID, c.Param("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"visits": visits})
}

// HandleStats returns the member's profile summary
func (h *MemberHandler) HandleStats(c echo.Context) error {
	clubID := c.QueryParam("club_id")
	if clubID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "club_id is required")
	}

	stats, err := h.loyalty.Stats(c.Request().Context(), clubID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// HandleClubInfo returns the club's public metadata
func (h *MemberHandler) HandleClubInfo(c echo.Context) error {
	clubID := c.QueryParam("club_id")
	if clubID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "club_id is required")
	}

	info, fromCache, err := h.loyalty.ClubInfo(c.Request().Context(), clubID)
	if err != nil {
		return err
	}
	body := map[string]interface{}{"club": info}
	if fromCache {
		body["unconfirmed"] = true
	}
	return c.JSON(http.StatusOK, body)
}

// HandleRewards lists the club's reward catalog
func (h *MemberHandler) HandleRewards(c echo.Context) error {
	clubID := c.QueryParam("club_id")
	if clubID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "club_id is required")
	}

	rewards, fromCache, err := h.loyalty.Rewards(c.Request().Context(), clubID)
	if err != nil {
		return err
	}
	body := map[string]interface{}{"rewards": rewards}
	if fromCache {
		body["unconfirmed"] = true
	}
	return c.JSON(http.StatusOK, body)
}

// positionFromRequest wraps the device-reported coordinates as a position
// provider. A zero point means the device could not produce a fix.
func positionFromRequest(req ScanRequest) loyalty.PositionProvider {
	if req.Latitude == 0 && req.Longitude == 0 {
		return loyalty.PositionFunc(func(context.Context) (models.Coordinates, error) {
			return models.Coordinates{}, &loyalty.LocationUnavailableError{Cause: "no position supplied"}
		})
	}
	return loyalty.StaticPosition(models.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude})
}
