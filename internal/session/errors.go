// Package session implements the client seat session: a per-viewer state
// machine that joins a show's realtime channel, tracks live seat
// availability, reconciles an optimistic local selection against
// authoritative snapshots, and drives the booking submission through to
// the payment hand-off.
package session

import "errors"

// Sentinel errors cover every failure the session can surface.  They are
// all user-facing conditions, not faults: each one leaves the caller with
// a stable, still-interactive session (or a deliberately closed one).
var (
	// ErrInvalidShowID means the show identifier taken from the
	// navigation context is not a positive integer.  Fatal to session
	// start; there is nothing to retry.
	ErrInvalidShowID = errors.New("invalid show id")

	// ErrSnapshotFetchFailed means the initial seat snapshot could not
	// be loaded.  The session never becomes live; a fresh session is the
	// only recovery.
	ErrSnapshotFetchFailed = errors.New("could not fetch seat data")

	// ErrNotAuthenticated means no user identity was available at
	// booking time.  Checked before any network call; the session closes
	// so the caller can redirect to authentication.
	ErrNotAuthenticated = errors.New("user not logged in")

	// ErrEmptySelection means booking was confirmed with no seats
	// selected.  Checked before any network call.
	ErrEmptySelection = errors.New("no seats selected")

	// ErrBookingFailed wraps a rejected or failed booking submission.
	// The selection is preserved and the session returns to live so the
	// user may retry.
	ErrBookingFailed = errors.New("booking failed")

	// ErrBookingInFlight means a booking request is already pending;
	// the session allows a single outstanding request.
	ErrBookingInFlight = errors.New("booking already in progress")

	// ErrClosed means the session was torn down.  Late responses and
	// calls after teardown report it instead of mutating dead state.
	ErrClosed = errors.New("session closed")
)
