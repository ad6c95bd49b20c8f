// Package ledger owns the authoritative visit sequence and the member's
// derived counters. No other component writes visit counts.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"carte_challenge_echo/internal/loyalty"
	"carte_challenge_echo/internal/models"
	"carte_challenge_echo/internal/store"
)

// Ledger appends visits and rederives the member's counters after each
// append.
type Ledger struct {
	store *store.SyncStore
	cfg   loyalty.RewardConfig
	log   *slog.Logger
}

// New builds a ledger over the consistency layer
func New(s *store.SyncStore, cfg loyalty.RewardConfig, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{store: s, cfg: cfg, log: log}
}

// AppendResult is the outcome of one accepted visit
type AppendResult struct {
	Visit         *models.Visit
	Member        *models.Member
	RewardGranted bool
	// Unconfirmed is true when the append only reached the local cache
	Unconfirmed bool
}

// Append records one accepted visit for the member at the given time and
// location, rederives level and reward credits, and reports whether a new
// reward credit was earned.
//
// RewardGranted compares the new credit count against the credit count
// stored on the member record before this append. That stored-prior
// comparison is the sole grant-detection mechanism; recomputing the prior
// value from a separate snapshot would double- or miss-grant under the
// offline-fallback path.
//
// If the underlying remote store is unreachable the visit is still appended
// to the local cache and the result is flagged Unconfirmed; the visit is
// never dropped.
func (l *Ledger) Append(ctx context.Context, m *models.Member, at time.Time, pos *models.Coordinates) (*AppendResult, error) {
	priorCredits := m.TotalRewards
	trusted := true
	if err := l.cfg.CheckCounters(m); err != nil {
		// Untrustworthy record: recompute the counters and withhold any
		// grant for this append.
		l.log.Warn("member counters inconsistent, recomputing", "member", m.ID, "error", err)
		priorCredits = l.cfg.RewardCreditsFor(m.Visits)
		trusted = false
	}

	newCount := m.Visits + 1
	newCredits := l.cfg.RewardCreditsFor(newCount)

	updated := *m
	updated.Visits = newCount
	updated.TotalRewards = newCredits
	updated.Level = loyalty.LevelFor(newCount)
	updated.LastVisit = &at
	updated.UpdatedAt = at

	visit := &models.Visit{
		MemberID:   m.ID,
		MemberName: m.Name,
		ClubID:     m.ClubID,
		Date:       at,
		Location:   pos,
		CreatedAt:  at,
	}

	result := &AppendResult{
		Visit:         visit,
		Member:        &updated,
		RewardGranted: trusted && newCredits > priorCredits,
	}

	err := l.store.AppendVisit(ctx, visit, &updated)
	if err != nil {
		if store.IsRemoteUnavailable(err) {
			result.Unconfirmed = true
			return result, err
		}
		return nil, err
	}
	return result, nil
}

// RecentVisits returns the member's visits, most recent first. Each call
// issues a fresh query reflecting current state.
func (l *Ledger) RecentVisits(ctx context.Context, m *models.Member, limit int) ([]models.Visit, error) {
	visits, _, err := l.store.VisitsByMember(ctx, m.ClubID, m.ID, limit)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return visits, nil
}

// Progress reports the member's position within the current reward cycle
func (l *Ledger) Progress(visits int) loyalty.RewardProgress {
	return l.cfg.Progress(visits)
}

// Config exposes the accrual parameters in effect
func (l *Ledger) Config() loyalty.RewardConfig {
	return l.cfg
}
