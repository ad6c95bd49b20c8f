// Package scan implements the per-session validation protocol that turns a
// scanned code into an accepted visit.
package scan

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"carte_challenge_echo/internal/ledger"
	"carte_challenge_echo/internal/loyalty"
	"carte_challenge_echo/internal/models"
)

// State is the position of a member session within the validation protocol
type State string

const (
	StateIdle            State = "idle"
	StateScanning        State = "scanning"
	StateLocationPending State = "location_pending"
)

// DefaultMarkers are the accepted code markers of the original app. A
// payload is structurally valid when it contains one of the substring
// markers or equals one of the exact codes.
var DefaultMarkers = []string{"carte-challenge", "gym-visit"}

// DefaultExactCodes complements DefaultMarkers with literal demo payloads
var DefaultExactCodes = []string{"DEMO_QR_CODE", "carte-challenge-visit-2025"}

// Rejection classifies why a scan did not produce a visit
type Rejection string

const (
	RejectionNone            Rejection = ""
	RejectionInvalidPayload  Rejection = "invalid_payload"
	RejectionOutsideGeofence Rejection = "outside_geofence"
	RejectionNoLocation      Rejection = "location_unavailable"
)

// Result is the outcome of one scan attempt
type Result struct {
	Accepted       bool
	Rejection      Rejection
	Reason         string
	DistanceMeters int
	Member         *models.Member
	Visit          *models.Visit
	RewardGranted  bool
	Unconfirmed    bool
	Motivation     *loyalty.MotivationRule
}

// Scanner runs the validation state machine. One validation may be in
// flight per member session; scans arriving while one is in flight are
// dropped, never queued. This single-flight rule is the concurrency control
// for same-member appends.
type Scanner struct {
	ledger     *ledger.Ledger
	markers    []string
	exactCodes []string
	rules      []loyalty.MotivationRule
	log        *slog.Logger

	mu     sync.Mutex
	states map[string]State
}

// Option tweaks scanner construction
type Option func(*Scanner)

// WithMarkers overrides the accepted payload markers
func WithMarkers(markers, exactCodes []string) Option {
	return func(s *Scanner) {
		s.markers = markers
		s.exactCodes = exactCodes
	}
}

// WithMotivationRules overrides the motivational message rule set
func WithMotivationRules(rules []loyalty.MotivationRule) Option {
	return func(s *Scanner) { s.rules = rules }
}

// New builds a scanner over the given ledger
func New(l *ledger.Ledger, log *slog.Logger, opts ...Option) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	s := &Scanner{
		ledger:     l,
		markers:    DefaultMarkers,
		exactCodes: DefaultExactCodes,
		rules:      loyalty.DefaultMotivationRules(),
		log:        log,
		states:     make(map[string]State),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State reports the session's current protocol state
func (s *Scanner) State(memberID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[memberID]; ok {
		return st
	}
	return StateIdle
}

// ValidPayload checks the scanned content against the club's code markers
func (s *Scanner) ValidPayload(payload string) bool {
	for _, code := range s.exactCodes {
		if payload == code {
			return true
		}
	}
	for _, marker := range s.markers {
		if strings.Contains(payload, marker) {
			return true
		}
	}
	return false
}

// Scan runs one validation attempt for the member. The machine walks
// Idle -> Scanning -> {CodeRejected | LocationPending} -> {LocationRejected
// | Accepted} -> Idle; every terminal outcome returns the session to Idle.
//
// Canceling ctx while the position is being acquired aborts the attempt
// with no ledger mutation.
func (s *Scanner) Scan(ctx context.Context, m *models.Member, payload string, provider loyalty.PositionProvider, club models.ClubLocation) (*Result, error) {
	if !s.enter(m.ID) {
		return nil, loyalty.ErrScanInFlight
	}
	defer s.reset(m.ID)

	if !s.ValidPayload(payload) {
		return &Result{
			Rejection: RejectionInvalidPayload,
			Reason:    "code invalide",
		}, nil
	}

	s.setState(m.ID, StateLocationPending)

	pos, check, err := loyalty.AcquireAndValidate(ctx, provider, club)
	if err != nil {
		if ctx.Err() != nil {
			// Canceled while waiting for the position: no visit committed.
			return nil, ctx.Err()
		}
		s.log.Info("scan rejected, no position", "member", m.ID, "error", err)
		return &Result{
			Rejection: RejectionNoLocation,
			Reason:    "impossible de vérifier votre position",
		}, nil
	}
	if !check.Accepted {
		return &Result{
			Rejection:      RejectionOutsideGeofence,
			Reason:         "vous n'êtes pas à la salle de sport",
			DistanceMeters: check.DistanceMeters,
		}, nil
	}

	appended, err := s.ledger.Append(ctx, m, time.Now(), &pos)
	if err != nil && appended == nil {
		return nil, err
	}

	return &Result{
		Accepted:       true,
		DistanceMeters: check.DistanceMeters,
		Member:         appended.Member,
		Visit:          appended.Visit,
		RewardGranted:  appended.RewardGranted,
		Unconfirmed:    appended.Unconfirmed,
		Motivation:     loyalty.MotivationFor(appended.Member.Visits, s.ledger.Config(), s.rules),
	}, nil
}

func (s *Scanner) enter(memberID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[memberID]; ok && st != StateIdle {
		return false
	}
	s.states[memberID] = StateScanning
	return true
}

func (s *Scanner) setState(memberID string, st State) {
	s.mu.Lock()
	s.states[memberID] = st
	s.mu.Unlock()
}

func (s *Scanner) reset(memberID string) {
	s.setState(memberID, StateIdle)
}
