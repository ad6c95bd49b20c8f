package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"carte_challenge_echo/internal/ledger"
	"carte_challenge_echo/internal/loyalty"
	"carte_challenge_echo/internal/models"
	"carte_challenge_echo/internal/scan"
	"carte_challenge_echo/internal/store"
)

// LoyaltyService orchestrates member accounts, scan validation and reward
// accrual for the HTTP layer.
type LoyaltyService struct {
	store   *store.SyncStore
	ledger  *ledger.Ledger
	scanner *scan.Scanner
	cfg     loyalty.RewardConfig
	// db is the reporting database, used to enqueue notification tasks
	// and answer admin stats. May be nil when no DATABASE_URL is set.
	db              *gorm.DB
	defaultGeofence models.ClubLocation
	log             *slog.Logger
}

// NewLoyaltyService wires the orchestrator
func NewLoyaltyService(s *store.SyncStore, l *ledger.Ledger, sc *scan.Scanner, cfg loyalty.RewardConfig, db *gorm.DB, defaultGeofence models.ClubLocation, log *slog.Logger) *LoyaltyService {
	if log == nil {
		log = slog.Default()
	}
	return &LoyaltyService{
		store:           s,
		ledger:          l,
		scanner:         sc,
		cfg:             cfg,
		db:              db,
		defaultGeofence: defaultGeofence,
		log:             log,
	}
}

// LoginResult reports the outcome of a member login
type LoginResult struct {
	Member  *models.Member
	Created bool
	// Unconfirmed is true when the account was created locally while the
	// remote store was unreachable
	Unconfirmed bool
}

// LoginMember signs a member in by display name, creating the account on
// first login. Name matching is case-insensitive so "alice" and "Alice"
// resolve to the same account.
func (s *LoyaltyService) LoginMember(ctx context.Context, clubID, name string) (*LoginResult, error) {
	m, err := s.store.MemberByName(ctx, clubID, name)
	if err == nil {
		return &LoginResult{Member: m}, nil
	}
	if !errors.Is(err, store.ErrNotFound) && !store.IsRemoteUnavailable(err) {
		return nil, err
	}

	created := models.NewMember(name, clubID, time.Now())
	err = s.store.CreateMember(ctx, created)
	switch {
	case err == nil:
		return &LoginResult{Member: created, Created: true}, nil
	case store.IsRemoteUnavailable(err):
		s.log.Warn("member created locally only", "member", created.Name, "error", err)
		return &LoginResult{Member: created, Created: true, Unconfirmed: true}, nil
	default:
		return nil, err
	}
}

// ClubGeofence returns the club's saved geofence, or the configured default
// when the club has not saved one yet.
func (s *LoyaltyService) ClubGeofence(ctx context.Context, clubID string) models.ClubLocation {
	info, _, err := s.store.ClubInfo(ctx, clubID)
	if err != nil || info == nil || info.Location.MaxDistanceMeters <= 0 {
		return s.defaultGeofence
	}
	return info.Location
}

// RecordScan runs the full validation protocol for one scanned code and,
// when a reward credit is earned, enqueues the notification task.
func (s *LoyaltyService) RecordScan(ctx context.Context, clubID, memberID, payload string, provider loyalty.PositionProvider) (*scan.Result, error) {
	m, err := s.store.MemberByID(ctx, clubID, memberID)
	if err != nil {
		return nil, err
	}

	club := s.ClubGeofence(ctx, clubID)

	res, err := s.scanner.Scan(ctx, m, payload, provider, club)
	if err != nil && res == nil {
		return nil, err
	}

	if res != nil && res.RewardGranted {
		s.enqueueRewardNotification(res.Member)
	}
	return res, err
}

// Progress reports the member's level, counters and reward-cycle position
func (s *LoyaltyService) Progress(ctx context.Context, clubID, memberID string) (*models.Member, loyalty.RewardProgress, error) {
	m, err := s.store.MemberByID(ctx, clubID, memberID)
	if err != nil {
		return nil, loyalty.RewardProgress{}, err
	}
	return m, s.ledger.Progress(m.Visits), nil
}

// RecentVisits lists the member's visits, most recent first
func (s *LoyaltyService) RecentVisits(ctx context.Context, clubID, memberID string, limit int) ([]models.Visit, error) {
	m, err := s.store.MemberByID(ctx, clubID, memberID)
	if err != nil {
		return nil, err
	}
	return s.ledger.RecentVisits(ctx, m, limit)
}

// MemberStats summarizes one member's standing
type MemberStats struct {
	Member       *models.Member         `json:"member"`
	Progress     loyalty.RewardProgress `json:"progress"`
	VisitsToNext int                    `json:"visitsToNextLevel"`
	NextLevel    models.Level           `json:"nextLevel,omitempty"`
}

// Stats assembles the member's summary used by the profile screen
func (s *LoyaltyService) Stats(ctx context.Context, clubID, memberID string) (*MemberStats, error) {
	m, err := s.store.MemberByID(ctx, clubID, memberID)
	if err != nil {
		return nil, err
	}
	return &MemberStats{
		Member:       m,
		Progress:     s.cfg.Progress(m.Visits),
		VisitsToNext: loyalty.VisitsToNextLevel(m.Visits),
		NextLevel:    loyalty.NextLevel(m.Visits),
	}, nil
}

// Members lists the club roster
func (s *LoyaltyService) Members(ctx context.Context, clubID string) ([]models.Member, bool, error) {
	return s.store.Members(ctx, clubID)
}

// CreateMember registers a member from the admin console
func (s *LoyaltyService) CreateMember(ctx context.Context, m *models.Member) error {
	return s.store.CreateMember(ctx, m)
}

// DeleteMember removes a member and their visits
func (s *LoyaltyService) DeleteMember(ctx context.Context, clubID, id string) error {
	return s.store.DeleteMember(ctx, clubID, id)
}

// Rewards lists the club's reward catalog
func (s *LoyaltyService) Rewards(ctx context.Context, clubID string) ([]models.RewardCatalogEntry, bool, error) {
	return s.store.Rewards(ctx, clubID)
}

// AddReward adds a catalog entry
func (s *LoyaltyService) AddReward(ctx context.Context, r *models.RewardCatalogEntry) error {
	return s.store.AddReward(ctx, r)
}

// RemoveReward deletes a catalog entry
func (s *LoyaltyService) RemoveReward(ctx context.Context, clubID, id string) error {
	return s.store.RemoveReward(ctx, clubID, id)
}

// ClubInfo returns the club's metadata
func (s *LoyaltyService) ClubInfo(ctx context.Context, clubID string) (*models.ClubInfo, bool, error) {
	return s.store.ClubInfo(ctx, clubID)
}

// SaveClubInfo persists the club's metadata and geofence
func (s *LoyaltyService) SaveClubInfo(ctx context.Context, info *models.ClubInfo) error {
	return s.store.SaveClubInfo(ctx, info)
}

// ClubStats aggregates roster-wide numbers for the admin dashboard
type ClubStats struct {
	Members        int `json:"members"`
	TotalVisits    int `json:"totalVisits"`
	TotalRewards   int `json:"totalRewards"`
	ArchivedVisits int `json:"archivedVisits"`
}

// AdminStats computes club-wide totals. Archived visit counts come from the
// reporting database when one is configured.
func (s *LoyaltyService) AdminStats(ctx context.Context, clubID string) (*ClubStats, error) {
	members, _, err := s.store.Members(ctx, clubID)
	if err != nil && !store.IsRemoteUnavailable(err) {
		return nil, err
	}

	stats := &ClubStats{Members: len(members)}
	for _, m := range members {
		stats.TotalVisits += m.Visits
		stats.TotalRewards += m.TotalRewards
	}

	if s.db != nil {
		var archived int64
		if err := s.db.WithContext(ctx).Model(&models.VisitArchive{}).
			Where("club_id = ?", clubID).Count(&archived).Error; err == nil {
			stats.ArchivedVisits = int(archived)
		}
	}

	return stats, nil
}

// enqueueRewardNotification schedules the notify_reward task. Losing a
// notification is acceptable; losing the visit is not, so failures here are
// logged and swallowed.
func (s *LoyaltyService) enqueueRewardNotification(m *models.Member) {
	if s.db == nil {
		return
	}
	task := models.ScheduledTask{
		TaskName: "notify_reward",
		Arguments: map[string]interface{}{
			"memberId":      m.ID,
			"memberName":    m.Name,
			"email":         m.Email,
			"clubId":        m.ClubID,
			"visits":        m.Visits,
			"credits":       m.TotalRewards,
			"attempt_count": 0,
		},
		Due:        time.Now(),
		Status:     models.ScheduledTaskStatusActive,
		TaskType:   models.ScheduledTaskTypeOneTime,
		MaxAttempt: 3,
	}
	if err := s.db.Create(&task).Error; err != nil {
		s.log.Error("failed to enqueue reward notification", "member", m.ID, "error", err)
	}
}
