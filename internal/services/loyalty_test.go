package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carte_challenge_echo/internal/ledger"
	"carte_challenge_echo/internal/loyalty"
	"carte_challenge_echo/internal/models"
	"carte_challenge_echo/internal/scan"
	"carte_challenge_echo/internal/store"
)

var testGeofence = models.ClubLocation{
	Coordinates:       models.Coordinates{Latitude: 48.877053, Longitude: 2.817765},
	MaxDistanceMeters: 60,
}

func newTestService(t *testing.T) (*LoyaltyService, *store.MemoryRemote) {
	t.Helper()
	remote := store.NewMemoryRemote()
	syncStore := store.NewSyncStore(remote, store.NewMemoryCache(), nil)
	cfg := loyalty.DefaultRewardConfig()
	l := ledger.New(syncStore, cfg, nil)
	sc := scan.New(l, nil)
	return NewLoyaltyService(syncStore, l, sc, cfg, nil, testGeofence, nil), remote
}

func atClub() loyalty.PositionProvider {
	return loyalty.StaticPosition(testGeofence.Coordinates)
}

func TestLoginMemberCreatesOnFirstLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	res, err := svc.LoginMember(ctx, "club-1", "Alice")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, models.LevelBronze, res.Member.Level)
	assert.Zero(t, res.Member.Visits)

	// Second login resolves the same account, case-insensitively
	again, err := svc.LoginMember(ctx, "club-1", "alice")
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, res.Member.ID, again.Member.ID)
}

func TestLoginMemberOfflineFallback(t *testing.T) {
	ctx := context.Background()
	svc, remote := newTestService(t)
	remote.Fail(true)

	res, err := svc.LoginMember(ctx, "club-1", "Bob")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.Unconfirmed)
	assert.Contains(t, res.Member.ID, "local-")
}

func TestTenScansEarnOneReward(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	login, err := svc.LoginMember(ctx, "club-1", "Alice")
	require.NoError(t, err)
	memberID := login.Member.ID

	for i := 1; i <= 10; i++ {
		res, err := svc.RecordScan(ctx, "club-1", memberID, "carte-challenge-visit-2025", atClub())
		require.NoError(t, err)
		require.True(t, res.Accepted, "scan %d rejected", i)
		assert.Equal(t, i, res.Member.Visits)

		wantGrant := i == 10
		assert.Equal(t, wantGrant, res.RewardGranted, "scan %d grant", i)
	}

	m, progress, err := svc.Progress(ctx, "club-1", memberID)
	require.NoError(t, err)
	assert.Equal(t, 10, m.Visits)
	assert.Equal(t, 1, m.TotalRewards)
	assert.Equal(t, models.LevelBronze, m.Level)
	assert.Equal(t, 0, progress.Current)

	visits, err := svc.RecentVisits(ctx, "club-1", memberID, 100)
	require.NoError(t, err)
	assert.Len(t, visits, 10)
}

func TestStatsSummary(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	login, err := svc.LoginMember(ctx, "club-1", "Alice")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.RecordScan(ctx, "club-1", login.Member.ID, "DEMO_QR_CODE", atClub())
		require.NoError(t, err)
	}

	stats, err := svc.Stats(ctx, "club-1", login.Member.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Member.Visits)
	assert.Equal(t, 27, stats.VisitsToNext)
	assert.Equal(t, models.LevelArgent, stats.NextLevel)
	assert.Equal(t, 3, stats.Progress.Current)
}

func TestClubGeofenceFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	club := svc.ClubGeofence(ctx, "club-1")
	assert.Equal(t, testGeofence, club)

	// A saved club geofence takes precedence
	err := svc.SaveClubInfo(ctx, &models.ClubInfo{
		ClubID: "club-1",
		Name:   "Carte Challenge Gym",
		Location: models.ClubLocation{
			Coordinates:       models.Coordinates{Latitude: 48.9, Longitude: 2.8},
			MaxDistanceMeters: 120,
		},
	})
	require.NoError(t, err)

	club = svc.ClubGeofence(ctx, "club-1")
	assert.Equal(t, 120.0, club.MaxDistanceMeters)
}

func TestScanUsesClubGeofence(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	login, err := svc.LoginMember(ctx, "club-1", "Alice")
	require.NoError(t, err)

	// Member stands about 100m north of the default point
	pos := loyalty.StaticPosition(models.Coordinates{Latitude: 48.87795, Longitude: 2.817765})

	res, err := svc.RecordScan(ctx, "club-1", login.Member.ID, "DEMO_QR_CODE", pos)
	require.NoError(t, err)
	assert.False(t, res.Accepted)

	// Widening the club radius lets the same position through
	err = svc.SaveClubInfo(ctx, &models.ClubInfo{
		ClubID:   "club-1",
		Name:     "Carte Challenge Gym",
		Location: models.ClubLocation{Coordinates: testGeofence.Coordinates, MaxDistanceMeters: 200},
	})
	require.NoError(t, err)

	res, err = svc.RecordScan(ctx, "club-1", login.Member.ID, "DEMO_QR_CODE", pos)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
}

func TestAdminStats(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for _, name := range []string{"Alice", "Bob"} {
		login, err := svc.LoginMember(ctx, "club-1", name)
		require.NoError(t, err)
		_, err = svc.RecordScan(ctx, "club-1", login.Member.ID, "DEMO_QR_CODE", atClub())
		require.NoError(t, err)
	}

	stats, err := svc.AdminStats(ctx, "club-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Members)
	assert.Equal(t, 2, stats.TotalVisits)
	assert.Equal(t, 0, stats.TotalRewards)
}
