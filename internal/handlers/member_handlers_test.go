package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carte_challenge_echo/internal/ledger"
	"carte_challenge_echo/internal/loyalty"
	"carte_challenge_echo/internal/middleware"
	"carte_challenge_echo/internal/models"
	"carte_challenge_echo/internal/scan"
	"carte_challenge_echo/internal/services"
	"carte_challenge_echo/internal/session"
	"carte_challenge_echo/internal/store"
)

var testGeofence = models.ClubLocation{
	Coordinates:       models.Coordinates{Latitude: 48.877053, Longitude: 2.817765},
	MaxDistanceMeters: 60,
}

func newTestHandler(t *testing.T) (*MemberHandler, *store.MemoryRemote) {
	t.Helper()
	remote := store.NewMemoryRemote()
	cache := store.NewMemoryCache()
	syncStore := store.NewSyncStore(remote, cache, nil)
	cfg := loyalty.DefaultRewardConfig()
	l := ledger.New(syncStore, cfg, nil)
	sc := scan.New(l, nil)
	svc := services.NewLoyaltyService(syncStore, l, sc, cfg, nil, testGeofence, nil)
	return NewMemberHandler(svc, session.NewManager(syncStore, cache, nil)), remote
}

func doJSON(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newTestServer(h *MemberHandler) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.CustomErrorHandler
	e.POST("/api/members/login", h.HandleLogin)
	e.POST("/api/members/:id/logout", h.HandleLogout)
	e.GET("/api/members/:id/session", h.HandleSession)
	e.POST("/api/members/:id/scan", h.HandleScan)
	e.GET("/api/members/:id/progress", h.HandleProgress)
	return e
}

func TestHandleLoginCreatesMember(t *testing.T) {
	h, _ := newTestHandler(t)
	e := newTestServer(h)

	rec := doJSON(t, e, http.MethodPost, "/api/members/login", `{"name":"Alice","club_id":"club-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Member  models.Member `json:"member"`
		Created bool          `json:"created"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Created)
	assert.Equal(t, "Alice", body.Member.Name)
	assert.NotEmpty(t, body.Member.ID)

	// Same name logs back into the existing account
	rec = doJSON(t, e, http.MethodPost, "/api/members/login", `{"name":"alice","club_id":"club-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleLoginValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	e := newTestServer(h)

	rec := doJSON(t, e, http.MethodPost, "/api/members/login", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleScanAcceptedAndRejected(t *testing.T) {
	h, _ := newTestHandler(t)
	e := newTestServer(h)

	rec := doJSON(t, e, http.MethodPost, "/api/members/login", `{"name":"Alice","club_id":"club-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var login struct {
		Member models.Member `json:"member"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	// Valid code, at the club
	rec = doJSON(t, e, http.MethodPost, "/api/members/"+login.Member.ID+"/scan",
		`{"payload":"DEMO_QR_CODE","club_id":"club-1","latitude":48.877053,"longitude":2.817765}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var scanBody ScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scanBody))
	assert.True(t, scanBody.Accepted)
	require.NotNil(t, scanBody.Member)
	assert.Equal(t, 1, scanBody.Member.Visits)

	// Garbage code is rejected without touching the counters
	rec = doJSON(t, e, http.MethodPost, "/api/members/"+login.Member.ID+"/scan",
		`{"payload":"random","club_id":"club-1","latitude":48.877053,"longitude":2.817765}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scanBody))
	assert.False(t, scanBody.Accepted)
	assert.Equal(t, "invalid_payload", scanBody.Rejection)

	// Missing position is a location failure, not a geofence rejection
	rec = doJSON(t, e, http.MethodPost, "/api/members/"+login.Member.ID+"/scan",
		`{"payload":"DEMO_QR_CODE","club_id":"club-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scanBody))
	assert.False(t, scanBody.Accepted)
	assert.Equal(t, "location_unavailable", scanBody.Rejection)
}

func TestHandleSessionLifecycle(t *testing.T) {
	h, _ := newTestHandler(t)
	e := newTestServer(h)

	rec := doJSON(t, e, http.MethodPost, "/api/members/login", `{"name":"Alice","club_id":"club-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var login struct {
		Member models.Member `json:"member"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	// Login stored a session; hydration returns it
	rec = doJSON(t, e, http.MethodGet, "/api/members/"+login.Member.ID+"/session?club_id=club-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sess struct {
		Member models.Member `json:"member"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, login.Member.ID, sess.Member.ID)

	// Logout tears it down
	rec = doJSON(t, e, http.MethodPost, "/api/members/"+login.Member.ID+"/logout?club_id=club-1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/members/"+login.Member.ID+"/session?club_id=club-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleProgress(t *testing.T) {
	h, _ := newTestHandler(t)
	e := newTestServer(h)

	rec := doJSON(t, e, http.MethodPost, "/api/members/login", `{"name":"Alice","club_id":"club-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var login struct {
		Member models.Member `json:"member"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = doJSON(t, e, http.MethodGet, "/api/members/"+login.Member.ID+"/progress?club_id=club-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ProgressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 10, body.Progress.Required)
	assert.Equal(t, models.LevelBronze, body.Member.Level)
}
