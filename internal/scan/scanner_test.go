package scan

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carte_challenge_echo/internal/ledger"
	"carte_challenge_echo/internal/loyalty"
	"carte_challenge_echo/internal/models"
	"carte_challenge_echo/internal/store"
)

var testClub = models.ClubLocation{
	Coordinates:       models.Coordinates{Latitude: 48.877053, Longitude: 2.817765},
	MaxDistanceMeters: 60,
}

func atClub() loyalty.PositionProvider {
	return loyalty.StaticPosition(testClub.Coordinates)
}

func newTestScanner(t *testing.T) (*Scanner, *store.SyncStore, *store.MemoryRemote) {
	t.Helper()
	remote := store.NewMemoryRemote()
	syncStore := store.NewSyncStore(remote, store.NewMemoryCache(), nil)
	l := ledger.New(syncStore, loyalty.DefaultRewardConfig(), nil)
	return New(l, nil), syncStore, remote
}

func seedMember(t *testing.T, s *store.SyncStore, visits int) *models.Member {
	t.Helper()
	m := models.NewMember("Alice", "club-1", time.Now())
	m.Visits = visits
	m.TotalRewards = loyalty.DefaultRewardConfig().RewardCreditsFor(visits)
	m.Level = loyalty.LevelFor(visits)
	require.NoError(t, s.CreateMember(context.Background(), m))
	return m
}

func TestValidPayload(t *testing.T) {
	s, _, _ := newTestScanner(t)

	tests := []struct {
		payload string
		want    bool
	}{
		{"carte-challenge-visit-2025", true},
		{"DEMO_QR_CODE", true},
		{"https://club.example/carte-challenge/entry", true},
		{"gym-visit:front-door", true},
		{"https://random.example/coupon", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := s.ValidPayload(tt.payload); got != tt.want {
			t.Errorf("ValidPayload(%q) = %v, want %v", tt.payload, got, tt.want)
		}
	}
}

func TestScanInvalidPayload(t *testing.T) {
	ctx := context.Background()
	s, syncStore, remote := newTestScanner(t)
	m := seedMember(t, syncStore, 0)

	res, err := s.Scan(ctx, m, "not-a-gym-code", atClub(), testClub)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, RejectionInvalidPayload, res.Rejection)
	assert.NotEmpty(t, res.Reason)

	// No visit was committed
	assert.Equal(t, 0, remote.Count(store.CollectionVisits))
	assert.Equal(t, StateIdle, s.State(m.ID))
}

func TestScanOutsideGeofence(t *testing.T) {
	ctx := context.Background()
	s, syncStore, remote := newTestScanner(t)
	m := seedMember(t, syncStore, 0)

	// Roughly 1.1km north of the club
	far := loyalty.StaticPosition(models.Coordinates{Latitude: 48.887053, Longitude: 2.817765})

	res, err := s.Scan(ctx, m, "DEMO_QR_CODE", far, testClub)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, RejectionOutsideGeofence, res.Rejection)
	assert.Greater(t, res.DistanceMeters, 1000)
	assert.Equal(t, 0, remote.Count(store.CollectionVisits))
}

func TestScanLocationUnavailable(t *testing.T) {
	ctx := context.Background()
	s, syncStore, remote := newTestScanner(t)
	m := seedMember(t, syncStore, 0)

	broken := loyalty.PositionFunc(func(context.Context) (models.Coordinates, error) {
		return models.Coordinates{}, &loyalty.LocationUnavailableError{Cause: "permission denied"}
	})

	res, err := s.Scan(ctx, m, "DEMO_QR_CODE", broken, testClub)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, RejectionNoLocation, res.Rejection)
	assert.Equal(t, 0, remote.Count(store.CollectionVisits))
}

func TestScanAccepted(t *testing.T) {
	ctx := context.Background()
	s, syncStore, remote := newTestScanner(t)
	m := seedMember(t, syncStore, 4)

	res, err := s.Scan(ctx, m, "carte-challenge-visit-2025", atClub(), testClub)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, 5, res.Member.Visits)
	assert.False(t, res.RewardGranted)
	require.NotNil(t, res.Visit)
	require.NotNil(t, res.Visit.Location)
	assert.Equal(t, 1, remote.Count(store.CollectionVisits))

	// Fifth visit carries its milestone message
	require.NotNil(t, res.Motivation)
	assert.Equal(t, "progress", res.Motivation.Category)
	assert.Equal(t, StateIdle, s.State(m.ID))
}

func TestScanGrantsReward(t *testing.T) {
	ctx := context.Background()
	s, syncStore, _ := newTestScanner(t)
	m := seedMember(t, syncStore, 9)

	res, err := s.Scan(ctx, m, "DEMO_QR_CODE", atClub(), testClub)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.True(t, res.RewardGranted)
	assert.Equal(t, 1, res.Member.TotalRewards)
}

func TestScanSingleFlightPerMember(t *testing.T) {
	ctx := context.Background()
	s, syncStore, remote := newTestScanner(t)
	m := seedMember(t, syncStore, 0)

	gate := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	gated := loyalty.PositionFunc(func(context.Context) (models.Coordinates, error) {
		once.Do(func() { close(entered) })
		<-gate
		return testClub.Coordinates, nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	var firstRes *Result
	var firstErr error
	go func() {
		defer wg.Done()
		firstRes, firstErr = s.Scan(ctx, m, "DEMO_QR_CODE", gated, testClub)
	}()

	// Wait until the first scan is parked in location acquisition
	<-entered
	assert.Equal(t, StateLocationPending, s.State(m.ID))

	// A second scan for the same member is dropped, not queued
	_, err := s.Scan(ctx, m, "DEMO_QR_CODE", atClub(), testClub)
	assert.ErrorIs(t, err, loyalty.ErrScanInFlight)

	close(gate)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.True(t, firstRes.Accepted)
	// Exactly one visit for the two attempts
	assert.Equal(t, 1, remote.Count(store.CollectionVisits))
}

func TestScanCanceledDuringLocationPending(t *testing.T) {
	s, syncStore, remote := newTestScanner(t)
	m := seedMember(t, syncStore, 0)

	ctx, cancel := context.WithCancel(context.Background())
	waiting := loyalty.PositionFunc(func(ctx context.Context) (models.Coordinates, error) {
		<-ctx.Done()
		return models.Coordinates{}, &loyalty.LocationUnavailableError{Cause: "canceled", Err: ctx.Err()}
	})

	done := make(chan struct{})
	var res *Result
	var err error
	go func() {
		defer close(done)
		res, err = s.Scan(ctx, m, "DEMO_QR_CODE", waiting, testClub)
	}()

	cancel()
	<-done

	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	// The aborted attempt committed nothing and released the session
	assert.Equal(t, 0, remote.Count(store.CollectionVisits))
	assert.Equal(t, StateIdle, s.State(m.ID))
}

func TestDifferentMembersScanConcurrently(t *testing.T) {
	ctx := context.Background()
	s, syncStore, remote := newTestScanner(t)

	alice := seedMember(t, syncStore, 0)
	bob := models.NewMember("Bob", "club-1", time.Now())
	require.NoError(t, syncStore.CreateMember(ctx, bob))

	gate := make(chan struct{})
	entered := make(chan struct{})
	gated := loyalty.PositionFunc(func(context.Context) (models.Coordinates, error) {
		close(entered)
		<-gate
		return testClub.Coordinates, nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.Scan(ctx, alice, "DEMO_QR_CODE", gated, testClub)
	}()
	<-entered

	// Bob's session is independent of Alice's in-flight scan
	res, err := s.Scan(ctx, bob, "DEMO_QR_CODE", atClub(), testClub)
	require.NoError(t, err)
	assert.True(t, res.Accepted)

	close(gate)
	wg.Wait()

	assert.Equal(t, 2, remote.Count(store.CollectionVisits))
}
