package domain

import "time"

// TokenLength is the fixed length of a session token value (UUID string form).
const TokenLength = 36

// RotationMode selects which clocks are reset when the token value is replaced.
type RotationMode string

const (
	// RotationExtend replaces the value and resets the sliding anchor.
	RotationExtend RotationMode = "EXTEND"
	// RotationReissue replaces the value and resets both clocks.
	RotationReissue RotationMode = "REISSUE"
)

// ConfirmationClock gates the one-time email confirmation step.
type ConfirmationClock struct {
	Deadline time.Time
}

// NewConfirmationClock starts a confirmation window at now.
func NewConfirmationClock(now time.Time, window time.Duration) ConfirmationClock {
	return ConfirmationClock{Deadline: now.Add(window)}
}

// Expired reports whether now is past the deadline.
func (c ConfirmationClock) Expired(now time.Time) bool {
	return now.After(c.Deadline)
}

// SlidingClock is the session liveness clock.
type SlidingClock struct {
	Anchor time.Time
}

// NewSlidingClock anchors the session at now.
func NewSlidingClock(now time.Time) SlidingClock {
	return SlidingClock{Anchor: now}
}

// Live reports whether now <= anchor + window.
func (c SlidingClock) Live(now time.Time, window time.Duration) bool {
	return !now.After(c.Anchor.Add(window))
}

// SessionToken is the rotating bearer credential owned by an Account.
type SessionToken struct {
	Value        string
	Confirmation ConfirmationClock
	Sliding      SlidingClock
}

// NewSessionToken mints the token state for a freshly created account.
func NewSessionToken(value string, now time.Time, confirmationWindow time.Duration) SessionToken {
	return SessionToken{
		Value:        value,
		Confirmation: NewConfirmationClock(now, confirmationWindow),
		Sliding:      NewSlidingClock(now),
	}
}

// Rotate replaces the token value and resets the clocks selected by mode.
func (t *SessionToken) Rotate(value string, mode RotationMode, now time.Time, confirmationWindow time.Duration) {
	t.Value = value
	t.Sliding = NewSlidingClock(now)
	if mode == RotationReissue {
		t.Confirmation = NewConfirmationClock(now, confirmationWindow)
	}
}
