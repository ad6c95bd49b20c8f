// Package session holds the explicit per-session state that the original
// program kept in ambient module-level hooks: the current member and admin.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"carte_challenge_echo/internal/models"
	"carte_challenge_echo/internal/store"
)

// Session is the state of one signed-in member or admin session
type Session struct {
	Member     *models.Member `json:"member,omitempty"`
	Admin      *models.Admin  `json:"admin,omitempty"`
	ClubID     string         `json:"clubId"`
	HydratedAt time.Time      `json:"hydratedAt"`
}

// Manager hydrates sessions from the local cache, reconciles them with the
// remote store, and tears them down on logout. There is no package-level
// current-session state.
type Manager struct {
	store *store.SyncStore
	cache store.LocalCache
	log   *slog.Logger
}

// NewManager builds a session manager
func NewManager(s *store.SyncStore, cache store.LocalCache, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{store: s, cache: cache, log: log}
}

func sessionKey(clubID, memberID string) string {
	return "fitness_current_member:" + clubID + ":" + memberID
}

// Save persists the session snapshot for later hydration
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	if sess.Member == nil {
		return errors.New("session: member required")
	}
	sess.HydratedAt = time.Now()
	return m.cache.Set(ctx, sessionKey(sess.ClubID, sess.Member.ID), sess)
}

// Hydrate loads the cached session and reconciles the member record with
// the remote store. Remote wins: when the remote store is reachable its
// copy replaces the cached one. When it is not, the cached snapshot is
// used as-is so startup never blocks on connectivity.
func (m *Manager) Hydrate(ctx context.Context, clubID, memberID string) (*Session, error) {
	var sess Session
	if err := m.cache.Get(ctx, sessionKey(clubID, memberID), &sess); err != nil {
		if err == store.ErrCacheMiss {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	fresh, err := m.store.MemberByID(ctx, clubID, memberID)
	switch {
	case err == nil:
		sess.Member = fresh
	case store.IsRemoteUnavailable(err):
		m.log.Warn("session hydrated from cache only", "member", memberID, "error", err)
	case errors.Is(err, store.ErrNotFound):
		// Member deleted remotely; the session is stale.
		m.Teardown(ctx, clubID, memberID)
		return nil, store.ErrNotFound
	default:
		return nil, err
	}

	sess.HydratedAt = time.Now()
	return &sess, nil
}

// Teardown clears the session from memory and cache on logout
func (m *Manager) Teardown(ctx context.Context, clubID, memberID string) {
	if err := m.cache.Remove(ctx, sessionKey(clubID, memberID)); err != nil {
		m.log.Warn("failed to clear session", "member", memberID, "error", err)
	}
}
