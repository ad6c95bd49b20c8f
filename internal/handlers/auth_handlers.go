package handlers

import (
	"net/http"
	"os"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"carte_challenge_echo/internal/models"
	"carte_challenge_echo/internal/store"
)

// AuthHandler handles admin authentication endpoints
type AuthHandler struct {
	authClient *auth.Client
	store      *store.SyncStore
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authClient *auth.Client, s *store.SyncStore) *AuthHandler {
	return &AuthHandler{authClient: authClient, store: s}
}

// HandleRegister creates the Firebase user and the admin profile document.
// The Firebase UID doubles as the club identifier.
func (h *AuthHandler) HandleRegister(c echo.Context) error {
	if h.authClient == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "authentication not configured")
	}

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" || req.GymName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email, password and gym_name are required")
	}

	params := (&auth.UserToCreate{}).
		Email(req.Email).
		Password(req.Password).
		DisplayName(req.Name)

	user, err := h.authClient.CreateUser(c.Request().Context(), params)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to create account")
	}

	now := time.Now()
	admin := &models.Admin{
		ID:        user.UID,
		Name:      req.Name,
		Email:     req.Email,
		GymName:   req.GymName,
		Phone:     req.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.SaveAdmin(c.Request().Context(), admin); err != nil {
		// Identity has no fallback: undo the Firebase user so the signup
		// can be retried cleanly.
		_ = h.authClient.DeleteUser(c.Request().Context(), user.UID)
		return err
	}

	return c.JSON(http.StatusCreated, admin)
}

// HandleLogin verifies the Firebase ID token and creates a session cookie
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	if h.authClient == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "authentication not configured")
	}

	// Get ID Token from Authorization Header
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	}

	// Verify ID Token
	token, err := h.authClient.VerifyIDToken(c.Request().Context(), tokenString)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	// Create Session Cookie (valid for 5 days)
	expiresIn := time.Hour * 24 * 5
	cookieValue, err := h.authClient.SessionCookie(c.Request().Context(), tokenString, expiresIn)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create session")
	}

	// Set HTTP-Only Cookie
	cookie := &http.Cookie{
		Name:     "session",
		Value:    cookieValue,
		MaxAge:   int(expiresIn.Seconds()),
		HttpOnly: true,
		Secure:   os.Getenv("ENV") == "production",
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
	c.SetCookie(cookie)

	admin, err := h.store.AdminByID(c.Request().Context(), token.UID)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "success"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "success",
		"admin":  admin,
	})
}

// HandleLogout clears the session cookie
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	cookie := &http.Cookie{
		Name:     "session",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, map[string]string{
		"status": "logged out",
	})
}
