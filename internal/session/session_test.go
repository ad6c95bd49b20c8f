package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carte_challenge_echo/internal/models"
	"carte_challenge_echo/internal/store"
)

func newTestManager(t *testing.T) (*Manager, *store.SyncStore, *store.MemoryRemote) {
	t.Helper()
	remote := store.NewMemoryRemote()
	cache := store.NewMemoryCache()
	syncStore := store.NewSyncStore(remote, cache, nil)
	return NewManager(syncStore, cache, nil), syncStore, remote
}

func TestHydrateReconcilesWithRemote(t *testing.T) {
	ctx := context.Background()
	mgr, syncStore, _ := newTestManager(t)

	m := models.NewMember("Alice", "club-1", time.Now())
	require.NoError(t, syncStore.CreateMember(ctx, m))
	require.NoError(t, mgr.Save(ctx, &Session{Member: m, ClubID: "club-1"}))

	// Advance the remote copy behind the session's back
	m.Visits = 5
	require.NoError(t, syncStore.UpdateMember(ctx, m))

	sess, err := mgr.Hydrate(ctx, "club-1", m.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, sess.Member.Visits, "remote state wins on hydration")
}

func TestHydrateOfflineUsesCachedSnapshot(t *testing.T) {
	ctx := context.Background()
	mgr, syncStore, remote := newTestManager(t)

	m := models.NewMember("Alice", "club-1", time.Now())
	require.NoError(t, syncStore.CreateMember(ctx, m))
	require.NoError(t, mgr.Save(ctx, &Session{Member: m, ClubID: "club-1"}))

	remote.Fail(true)

	sess, err := mgr.Hydrate(ctx, "club-1", m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, sess.Member.ID)
}

func TestHydrateMissingSession(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newTestManager(t)

	_, err := mgr.Hydrate(ctx, "club-1", "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTeardownClearsSession(t *testing.T) {
	ctx := context.Background()
	mgr, syncStore, _ := newTestManager(t)

	m := models.NewMember("Alice", "club-1", time.Now())
	require.NoError(t, syncStore.CreateMember(ctx, m))
	require.NoError(t, mgr.Save(ctx, &Session{Member: m, ClubID: "club-1"}))

	mgr.Teardown(ctx, "club-1", m.ID)

	_, err := mgr.Hydrate(ctx, "club-1", m.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
