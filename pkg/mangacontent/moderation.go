package mangacontent

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxRejectionReasonLength bounds the rejection reason in characters.
const MaxRejectionReasonLength = 500

// Transition names a moderation state change.
type Transition string

const (
	TransitionResubmit Transition = "resubmit"
	TransitionApprove  Transition = "approve"
	TransitionReject   Transition = "reject"
)

// IsValid reports whether s is a known moderation status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// ParseStatus converts a stored status string.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: unknown moderation status %q", ErrInvalidInput, s)
	}
	return status, nil
}

// IsPublic reports whether content in this state may be read anonymously.
func (s Status) IsPublic() bool {
	return s == StatusApproved
}

// Resubmit re-arms moderation after any owner change: the manga returns to
// pending and every moderator field is cleared.
func (m *Manga) Resubmit(now time.Time) {
	m.Status = StatusPending
	m.ModeratedBy = nil
	m.ModeratedAt = nil
	m.RejectionReason = ""
	m.UpdatedAt = now
}

// Approve marks the manga approved by moderator. Valid from any state.
func (m *Manga) Approve(moderator uuid.UUID, now time.Time) {
	m.Status = StatusApproved
	m.ModeratedBy = &moderator
	m.ModeratedAt = &now
	m.RejectionReason = ""
	m.UpdatedAt = now
}

// Reject marks the manga rejected by moderator with an optional reason.
func (m *Manga) Reject(moderator uuid.UUID, reason string, now time.Time) error {
	reason, err := NormalizeRejectionReason(reason)
	if err != nil {
		return err
	}
	m.Status = StatusRejected
	m.ModeratedBy = &moderator
	m.ModeratedAt = &now
	m.RejectionReason = reason
	m.UpdatedAt = now
	return nil
}

// Apply performs transition t on behalf of actor.
func (m *Manga) Apply(t Transition, actor uuid.UUID, reason string, now time.Time) error {
	switch t {
	case TransitionResubmit:
		m.Resubmit(now)
		return nil
	case TransitionApprove:
		m.Approve(actor, now)
		return nil
	case TransitionReject:
		return m.Reject(actor, reason, now)
	default:
		return fmt.Errorf("%w: unknown transition %q", ErrInvalidInput, t)
	}
}

// NormalizeRejectionReason trims reason and enforces its length limit.
func NormalizeRejectionReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > MaxRejectionReasonLength {
		return "", Invalid("reason", "must be at most %d characters", MaxRejectionReasonLength)
	}
	return reason, nil
}
