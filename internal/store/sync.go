package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"carte_challenge_echo/internal/models"
)

// Remote store collections
const (
	CollectionMembers  = "members"
	CollectionVisits   = "visits"
	CollectionRewards  = "rewards"
	CollectionClubInfo = "clubInfo"
	CollectionAdmins   = "admins"
)

// cachedVisitLimit caps the per-club visit snapshot, like the original's
// last-100 listener window.
const cachedVisitLimit = 100

// SyncStore is the remote/local consistency layer. Every mutation goes to
// the authoritative remote store first; when the remote store is
// unreachable the same mutation is applied to the local cache, flagged
// unconfirmed, and the failure is re-raised as *RemoteUnavailableError so
// the caller can surface a warning. Unconfirmed local writes are never
// replayed: the remote state wins on the next successful read or snapshot
// refresh.
type SyncStore struct {
	remote RemoteStore
	cache  LocalCache
	log    *slog.Logger
}

// NewSyncStore builds the consistency layer over a remote store and a cache
func NewSyncStore(remote RemoteStore, cache LocalCache, log *slog.Logger) *SyncStore {
	if log == nil {
		log = slog.Default()
	}
	return &SyncStore{remote: remote, cache: cache, log: log}
}

type memberSnapshot struct {
	Members     []models.Member `json:"members"`
	Unconfirmed bool            `json:"unconfirmed"`
	SavedAt     time.Time       `json:"savedAt"`
}

type visitSnapshot struct {
	Visits      []models.Visit `json:"visits"`
	Unconfirmed bool           `json:"unconfirmed"`
	SavedAt     time.Time      `json:"savedAt"`
}

type rewardSnapshot struct {
	Rewards     []models.RewardCatalogEntry `json:"rewards"`
	Unconfirmed bool                        `json:"unconfirmed"`
	SavedAt     time.Time                   `json:"savedAt"`
}

type clubInfoSnapshot struct {
	Info        *models.ClubInfo `json:"info"`
	Unconfirmed bool             `json:"unconfirmed"`
	SavedAt     time.Time        `json:"savedAt"`
}

func keyMembers(clubID string) string  { return "fitness_members:" + clubID }
func keyVisits(clubID string) string   { return "fitness_visits:" + clubID }
func keyRewards(clubID string) string  { return "fitness_rewards:" + clubID }
func keyClubInfo(clubID string) string { return "fitness_club_info:" + clubID }

// localID mints an identifier for a record created on the fallback path.
// The prefix makes unconfirmed records recognizable in the cache.
func localID() string {
	return "local-" + uuid.NewString()
}

// --- Members ---

// Members lists the club roster, remote first. fromCache reports whether
// the result came from the fallback snapshot.
func (s *SyncStore) Members(ctx context.Context, clubID string) ([]models.Member, bool, error) {
	records, err := s.remote.Query(ctx, CollectionMembers,
		[]Filter{{Field: "clubId", Op: "==", Value: clubID}},
		[]Order{{Field: "createdAt", Desc: true}}, 0)
	if err != nil {
		var snap memberSnapshot
		if cacheErr := s.cache.Get(ctx, keyMembers(clubID), &snap); cacheErr == nil {
			s.log.Warn("members read fell back to cache", "club", clubID, "error", err)
			return snap.Members, true, nil
		}
		return nil, false, &RemoteUnavailableError{Op: "list members", Err: err}
	}

	members := make([]models.Member, 0, len(records))
	for _, rec := range records {
		var m models.Member
		if decErr := Decode(rec, &m); decErr != nil {
			s.log.Warn("skipping undecodable member record", "error", decErr)
			continue
		}
		members = append(members, m)
	}
	s.saveMembers(ctx, clubID, members, false)
	return members, false, nil
}

// MemberByID fetches one member, falling back to the cached roster
func (s *SyncStore) MemberByID(ctx context.Context, clubID, id string) (*models.Member, error) {
	rec, err := s.remote.GetDocument(ctx, CollectionMembers, id)
	if err == nil {
		var m models.Member
		if decErr := Decode(rec, &m); decErr != nil {
			return nil, decErr
		}
		s.upsertCachedMember(ctx, &m, false)
		return &m, nil
	}
	if err == ErrNotFound {
		return nil, ErrNotFound
	}

	var snap memberSnapshot
	if cacheErr := s.cache.Get(ctx, keyMembers(clubID), &snap); cacheErr == nil {
		for i := range snap.Members {
			if snap.Members[i].ID == id {
				return &snap.Members[i], nil
			}
		}
		return nil, ErrNotFound
	}
	return nil, &RemoteUnavailableError{Op: "get member", Err: err}
}

// MemberByName finds a member by display name within a club, matching
// case-insensitively like the original login flow.
func (s *SyncStore) MemberByName(ctx context.Context, clubID, name string) (*models.Member, error) {
	members, _, err := s.Members(ctx, clubID)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if strings.EqualFold(members[i].Name, name) {
			return &members[i], nil
		}
	}
	return nil, ErrNotFound
}

// CreateMember persists a new member record. On fallback the member gets a
// locally minted ID and lives in the cached roster until the remote store
// is reachable again.
func (s *SyncStore) CreateMember(ctx context.Context, m *models.Member) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	id, err := s.remote.CreateDocument(ctx, CollectionMembers, data)
	if err == nil {
		m.ID = id
		s.upsertCachedMember(ctx, m, false)
		return nil
	}

	m.ID = localID()
	s.upsertCachedMember(ctx, m, true)
	return &RemoteUnavailableError{Op: "create member", Err: err}
}

// UpdateMember writes the member's mutable fields remote-first
func (s *SyncStore) UpdateMember(ctx context.Context, m *models.Member) error {
	err := s.remote.UpdateDocument(ctx, CollectionMembers, m.ID, memberCounters(m))
	if err == nil {
		s.upsertCachedMember(ctx, m, false)
		return nil
	}

	s.upsertCachedMember(ctx, m, true)
	return &RemoteUnavailableError{Op: "update member", Err: err}
}

// DeleteMember removes the member and its visits, like the original admin
// flow. On fallback only the cached roster entry is dropped.
func (s *SyncStore) DeleteMember(ctx context.Context, clubID, id string) error {
	err := s.remote.DeleteDocument(ctx, CollectionMembers, id)
	if err == nil {
		records, qErr := s.remote.Query(ctx, CollectionVisits,
			[]Filter{{Field: "memberId", Op: "==", Value: id}}, nil, 0)
		if qErr == nil {
			for _, rec := range records {
				if visitID, ok := rec["id"].(string); ok {
					if dErr := s.remote.DeleteDocument(ctx, CollectionVisits, visitID); dErr != nil {
						s.log.Warn("orphan visit left behind", "visit", visitID, "error", dErr)
					}
				}
			}
		}
		s.removeCachedMember(ctx, clubID, id, false)
		return nil
	}

	s.removeCachedMember(ctx, clubID, id, true)
	return &RemoteUnavailableError{Op: "delete member", Err: err}
}

// --- Visits ---

// AppendVisit records a visit and the member's updated counters as one
// logical mutation. On fallback both land in the cache, flagged
// unconfirmed, and the visit is never dropped.
func (s *SyncStore) AppendVisit(ctx context.Context, v *models.Visit, m *models.Member) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}

	id, err := s.remote.CreateDocument(ctx, CollectionVisits, data)
	if err == nil {
		v.ID = id
		err = s.remote.UpdateDocument(ctx, CollectionMembers, m.ID, memberCounters(m))
	}
	if err == nil {
		s.prependCachedVisit(ctx, v, false)
		s.upsertCachedMember(ctx, m, false)
		return nil
	}

	if v.ID == "" {
		v.ID = localID()
	}
	s.prependCachedVisit(ctx, v, true)
	s.upsertCachedMember(ctx, m, true)
	return &RemoteUnavailableError{Op: "append visit", Err: err}
}

// VisitsByMember returns the member's visits, most recent first. Each call
// re-queries the store, so repeated calls observe current state.
func (s *SyncStore) VisitsByMember(ctx context.Context, clubID, memberID string, limit int) ([]models.Visit, bool, error) {
	records, err := s.remote.Query(ctx, CollectionVisits,
		[]Filter{{Field: "memberId", Op: "==", Value: memberID}},
		[]Order{{Field: "date", Desc: true}}, limit)
	if err == nil {
		visits := make([]models.Visit, 0, len(records))
		for _, rec := range records {
			var v models.Visit
			if decErr := Decode(rec, &v); decErr != nil {
				s.log.Warn("skipping undecodable visit record", "error", decErr)
				continue
			}
			visits = append(visits, v)
		}
		return visits, false, nil
	}

	var snap visitSnapshot
	if cacheErr := s.cache.Get(ctx, keyVisits(clubID), &snap); cacheErr == nil {
		var visits []models.Visit
		for _, v := range snap.Visits {
			if v.MemberID == memberID {
				visits = append(visits, v)
				if limit > 0 && len(visits) >= limit {
					break
				}
			}
		}
		s.log.Warn("visits read fell back to cache", "member", memberID, "error", err)
		return visits, true, nil
	}
	return nil, false, &RemoteUnavailableError{Op: "list visits", Err: err}
}

// ClubVisits returns the club's most recent visits (archive feed)
func (s *SyncStore) ClubVisits(ctx context.Context, clubID string, limit int) ([]models.Visit, error) {
	records, err := s.remote.Query(ctx, CollectionVisits,
		[]Filter{{Field: "clubId", Op: "==", Value: clubID}},
		[]Order{{Field: "date", Desc: true}}, limit)
	if err != nil {
		return nil, &RemoteUnavailableError{Op: "list club visits", Err: err}
	}
	visits := make([]models.Visit, 0, len(records))
	for _, rec := range records {
		var v models.Visit
		if decErr := Decode(rec, &v); decErr != nil {
			continue
		}
		visits = append(visits, v)
	}
	return visits, nil
}

// --- Rewards ---

// Rewards lists the club's reward catalog ordered by required visits
func (s *SyncStore) Rewards(ctx context.Context, clubID string) ([]models.RewardCatalogEntry, bool, error) {
	records, err := s.remote.Query(ctx, CollectionRewards,
		[]Filter{{Field: "clubId", Op: "==", Value: clubID}},
		[]Order{{Field: "requiredVisits", Desc: false}}, 0)
	if err != nil {
		var snap rewardSnapshot
		if cacheErr := s.cache.Get(ctx, keyRewards(clubID), &snap); cacheErr == nil {
			s.log.Warn("rewards read fell back to cache", "club", clubID, "error", err)
			return snap.Rewards, true, nil
		}
		return nil, false, &RemoteUnavailableError{Op: "list rewards", Err: err}
	}

	rewards := make([]models.RewardCatalogEntry, 0, len(records))
	for _, rec := range records {
		var r models.RewardCatalogEntry
		if decErr := Decode(rec, &r); decErr != nil {
			continue
		}
		rewards = append(rewards, r)
	}
	s.cache.Set(ctx, keyRewards(clubID), rewardSnapshot{Rewards: rewards, SavedAt: time.Now()})
	return rewards, false, nil
}

// AddReward creates a reward catalog entry remote-first
func (s *SyncStore) AddReward(ctx context.Context, r *models.RewardCatalogEntry) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}
	id, err := s.remote.CreateDocument(ctx, CollectionRewards, data)
	if err == nil {
		r.ID = id
		s.mutateCachedRewards(ctx, r.ClubID, false, func(rewards []models.RewardCatalogEntry) []models.RewardCatalogEntry {
			return append(rewards, *r)
		})
		return nil
	}

	r.ID = localID()
	s.mutateCachedRewards(ctx, r.ClubID, true, func(rewards []models.RewardCatalogEntry) []models.RewardCatalogEntry {
		return append(rewards, *r)
	})
	return &RemoteUnavailableError{Op: "add reward", Err: err}
}

// RemoveReward deletes a reward catalog entry remote-first
func (s *SyncStore) RemoveReward(ctx context.Context, clubID, id string) error {
	err := s.remote.DeleteDocument(ctx, CollectionRewards, id)
	unconfirmed := err != nil
	s.mutateCachedRewards(ctx, clubID, unconfirmed, func(rewards []models.RewardCatalogEntry) []models.RewardCatalogEntry {
		out := rewards[:0]
		for _, r := range rewards {
			if r.ID != id {
				out = append(out, r)
			}
		}
		return out
	})
	if err != nil {
		return &RemoteUnavailableError{Op: "remove reward", Err: err}
	}
	return nil
}

// --- Club info ---

// ClubInfo returns the club metadata, remote first
func (s *SyncStore) ClubInfo(ctx context.Context, clubID string) (*models.ClubInfo, bool, error) {
	records, err := s.remote.Query(ctx, CollectionClubInfo,
		[]Filter{{Field: "clubId", Op: "==", Value: clubID}},
		[]Order{{Field: "updatedAt", Desc: true}}, 1)
	if err != nil {
		var snap clubInfoSnapshot
		if cacheErr := s.cache.Get(ctx, keyClubInfo(clubID), &snap); cacheErr == nil && snap.Info != nil {
			s.log.Warn("club info read fell back to cache", "club", clubID, "error", err)
			return snap.Info, true, nil
		}
		return nil, false, &RemoteUnavailableError{Op: "get club info", Err: err}
	}
	if len(records) == 0 {
		return nil, false, ErrNotFound
	}

	var info models.ClubInfo
	if decErr := Decode(records[0], &info); decErr != nil {
		return nil, false, decErr
	}
	s.cache.Set(ctx, keyClubInfo(clubID), clubInfoSnapshot{Info: &info, SavedAt: time.Now()})
	return &info, false, nil
}

// SaveClubInfo creates or updates the club metadata remote-first
func (s *SyncStore) SaveClubInfo(ctx context.Context, info *models.ClubInfo) error {
	info.UpdatedAt = time.Now()
	data, err := Encode(info)
	if err != nil {
		return err
	}

	var remoteErr error
	if info.ID == "" {
		var id string
		id, remoteErr = s.remote.CreateDocument(ctx, CollectionClubInfo, data)
		if remoteErr == nil {
			info.ID = id
		}
	} else {
		remoteErr = s.remote.UpdateDocument(ctx, CollectionClubInfo, info.ID, data)
	}

	if remoteErr == nil {
		s.cache.Set(ctx, keyClubInfo(info.ClubID), clubInfoSnapshot{Info: info, SavedAt: time.Now()})
		return nil
	}

	if info.ID == "" {
		info.ID = localID()
	}
	s.cache.Set(ctx, keyClubInfo(info.ClubID), clubInfoSnapshot{Info: info, Unconfirmed: true, SavedAt: time.Now()})
	return &RemoteUnavailableError{Op: "save club info", Err: remoteErr}
}

// --- Admins ---

// SaveAdmin stores the admin profile document under the Firebase UID
func (s *SyncStore) SaveAdmin(ctx context.Context, a *models.Admin) error {
	if a.ID == "" {
		return fmt.Errorf("store: admin ID required")
	}
	data, err := Encode(a)
	if err != nil {
		return err
	}
	if err := s.remote.UpdateDocument(ctx, CollectionAdmins, a.ID, data); err != nil {
		return &RemoteUnavailableError{Op: "save admin", Err: err}
	}
	return nil
}

// AdminByID fetches an admin profile; there is no local fallback for
// administrative identity.
func (s *SyncStore) AdminByID(ctx context.Context, id string) (*models.Admin, error) {
	rec, err := s.remote.GetDocument(ctx, CollectionAdmins, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, &RemoteUnavailableError{Op: "get admin", Err: err}
	}
	var a models.Admin
	if decErr := Decode(rec, &a); decErr != nil {
		return nil, decErr
	}
	return &a, nil
}

// --- Reconciliation ---

// RefreshSnapshots overwrites every cached snapshot for the club with
// current remote state. Remote wins: unconfirmed local writes are discarded
// by the overwrite, per the "remote always wins once reachable" policy.
func (s *SyncStore) RefreshSnapshots(ctx context.Context, clubID string) error {
	records, err := s.remote.Query(ctx, CollectionMembers,
		[]Filter{{Field: "clubId", Op: "==", Value: clubID}},
		[]Order{{Field: "createdAt", Desc: true}}, 0)
	if err != nil {
		return &RemoteUnavailableError{Op: "refresh snapshots", Err: err}
	}
	members := make([]models.Member, 0, len(records))
	for _, rec := range records {
		var m models.Member
		if Decode(rec, &m) == nil {
			members = append(members, m)
		}
	}
	s.saveMembers(ctx, clubID, members, false)

	visits, err := s.ClubVisits(ctx, clubID, cachedVisitLimit)
	if err != nil {
		return err
	}
	s.cache.Set(ctx, keyVisits(clubID), visitSnapshot{Visits: visits, SavedAt: time.Now()})

	if _, _, err := s.Rewards(ctx, clubID); err != nil {
		return err
	}
	if _, _, err := s.ClubInfo(ctx, clubID); err != nil && err != ErrNotFound {
		return err
	}
	return nil
}

// WatchMembers keeps the cached roster in sync with the remote store's live
// subscription until ctx is canceled.
func (s *SyncStore) WatchMembers(ctx context.Context, clubID string) error {
	updates, err := s.remote.Subscribe(ctx, CollectionMembers,
		[]Filter{{Field: "clubId", Op: "==", Value: clubID}})
	if err != nil {
		return &RemoteUnavailableError{Op: "watch members", Err: err}
	}

	go func() {
		for records := range updates {
			members := make([]models.Member, 0, len(records))
			for _, rec := range records {
				var m models.Member
				if Decode(rec, &m) == nil {
					members = append(members, m)
				}
			}
			s.saveMembers(ctx, clubID, members, false)
		}
	}()
	return nil
}

// --- cache helpers ---

// memberCounters is the partial update written on visit acceptance
func memberCounters(m *models.Member) Record {
	return Record{
		"visits":       m.Visits,
		"totalRewards": m.TotalRewards,
		"level":        m.Level,
		"lastVisit":    m.LastVisit,
		"updatedAt":    m.UpdatedAt,
	}
}

func (s *SyncStore) saveMembers(ctx context.Context, clubID string, members []models.Member, unconfirmed bool) {
	snap := memberSnapshot{Members: members, Unconfirmed: unconfirmed, SavedAt: time.Now()}
	if err := s.cache.Set(ctx, keyMembers(clubID), snap); err != nil {
		s.log.Warn("failed to write member snapshot", "club", clubID, "error", err)
	}
}

func (s *SyncStore) upsertCachedMember(ctx context.Context, m *models.Member, unconfirmed bool) {
	var snap memberSnapshot
	if err := s.cache.Get(ctx, keyMembers(m.ClubID), &snap); err != nil && err != ErrCacheMiss {
		s.log.Warn("failed to read member snapshot", "club", m.ClubID, "error", err)
		return
	}
	replaced := false
	for i := range snap.Members {
		if snap.Members[i].ID == m.ID {
			snap.Members[i] = *m
			replaced = true
			break
		}
	}
	if !replaced {
		snap.Members = append(snap.Members, *m)
	}
	snap.Unconfirmed = snap.Unconfirmed || unconfirmed
	snap.SavedAt = time.Now()
	if err := s.cache.Set(ctx, keyMembers(m.ClubID), snap); err != nil {
		s.log.Warn("failed to write member snapshot", "club", m.ClubID, "error", err)
	}
}

func (s *SyncStore) removeCachedMember(ctx context.Context, clubID, id string, unconfirmed bool) {
	var snap memberSnapshot
	if err := s.cache.Get(ctx, keyMembers(clubID), &snap); err != nil {
		return
	}
	out := snap.Members[:0]
	for _, m := range snap.Members {
		if m.ID != id {
			out = append(out, m)
		}
	}
	snap.Members = out
	snap.Unconfirmed = snap.Unconfirmed || unconfirmed
	snap.SavedAt = time.Now()
	s.cache.Set(ctx, keyMembers(clubID), snap)
}

func (s *SyncStore) prependCachedVisit(ctx context.Context, v *models.Visit, unconfirmed bool) {
	var snap visitSnapshot
	if err := s.cache.Get(ctx, keyVisits(v.ClubID), &snap); err != nil && err != ErrCacheMiss {
		s.log.Warn("failed to read visit snapshot", "club", v.ClubID, "error", err)
		return
	}
	snap.Visits = append([]models.Visit{*v}, snap.Visits...)
	if len(snap.Visits) > cachedVisitLimit {
		snap.Visits = snap.Visits[:cachedVisitLimit]
	}
	snap.Unconfirmed = snap.Unconfirmed || unconfirmed
	snap.SavedAt = time.Now()
	if err := s.cache.Set(ctx, keyVisits(v.ClubID), snap); err != nil {
		s.log.Warn("failed to write visit snapshot", "club", v.ClubID, "error", err)
	}
}

func (s *SyncStore) mutateCachedRewards(ctx context.Context, clubID string, unconfirmed bool, fn func([]models.RewardCatalogEntry) []models.RewardCatalogEntry) {
	var snap rewardSnapshot
	if err := s.cache.Get(ctx, keyRewards(clubID), &snap); err != nil && err != ErrCacheMiss {
		return
	}
	snap.Rewards = fn(snap.Rewards)
	snap.Unconfirmed = snap.Unconfirmed || unconfirmed
	snap.SavedAt = time.Now()
	s.cache.Set(ctx, keyRewards(clubID), snap)
}
