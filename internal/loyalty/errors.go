package loyalty

import (
	"errors"
	"fmt"
)

// ErrScanInFlight is returned when a scan arrives while a previous scan for
// the same member session has not finished. The new scan is dropped, not
// queued.
var ErrScanInFlight = errors.New("loyalty: scan already in flight")

// ErrInvalidScanPayload is returned when the scanned content does not match
// any of the club's expected code markers.
var ErrInvalidScanPayload = errors.New("loyalty: invalid scan payload")

// LocationUnavailableError means the caller's position could not be acquired
// at all (permission denied, timeout, unsupported environment). It is a
// distinct outcome from a geofence rejection and always retryable.
type LocationUnavailableError struct {
	Cause string
	Err   error
}

func (e *LocationUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("loyalty: location unavailable: %s: %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("loyalty: location unavailable: %s", e.Cause)
}

func (e *LocationUnavailableError) Unwrap() error { return e.Err }

// GeofenceRejectedError means a position was acquired but lies outside the
// allowed radius. It carries the measured distance for user feedback.
type GeofenceRejectedError struct {
	DistanceMeters int
	MaxMeters      float64
}

func (e *GeofenceRejectedError) Error() string {
	return fmt.Sprintf("loyalty: outside geofence: %dm away (allowed %.0fm)", e.DistanceMeters, e.MaxMeters)
}

// InvariantViolationError flags a member record whose stored level or reward
// credits disagree with its visit count. Such a record is untrustworthy and
// must not grant rewards until recomputed.
type InvariantViolationError struct {
	MemberID    string
	Visits      int
	GotCredits  int
	WantCredits int
	GotLevel    string
	WantLevel   string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("loyalty: member %s counters inconsistent with %d visits: credits %d (want %d), level %s (want %s)",
		e.MemberID, e.Visits, e.GotCredits, e.WantCredits, e.GotLevel, e.WantLevel)
}
