package workflow

import (
	"fmt"
	"strings"
)

// Status is a content record's position in the approval workflow.
// The allowed forward sequence is DRAFT → IN_REVIEW → APPROVED → PUBLISHED;
// no backward transition is defined by this client. The backend is the sole
// authority on whether a transition is actually valid.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusInReview  Status = "IN_REVIEW"
	StatusApproved  Status = "APPROVED"
	StatusPublished Status = "PUBLISHED"
)

// Statuses lists every status in workflow order. Board columns and
// transition checks iterate this slice so ordering is defined once.
var Statuses = []Status{StatusDraft, StatusInReview, StatusApproved, StatusPublished}

// forward is the single source of truth for allowed transitions.
var forward = map[Status]Status{
	StatusDraft:    StatusInReview,
	StatusInReview: StatusApproved,
	StatusApproved: StatusPublished,
}

// ParseStatus parses a backend status string. Unknown values are rejected
// rather than coerced; callers decide how to degrade.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusInReview:
		return StatusInReview, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusPublished:
		return StatusPublished, nil
	default:
		return "", fmt.Errorf("unknown status: %q", s)
	}
}

// Valid reports whether s is one of the four workflow statuses.
func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// Next returns the sole forward transition from s.
// ok is false for PUBLISHED, which is terminal.
func (s Status) Next() (Status, bool) {
	next, ok := forward[s]
	return next, ok
}

// CanTransition reports whether from → to is the allowed forward step.
func CanTransition(from, to Status) bool {
	next, ok := forward[from]
	return ok && next == to
}

// NextActionLabel names the transition out of s for display next to the
// selected board entry. Empty for terminal statuses.
func (s Status) NextActionLabel() string {
	switch s {
	case StatusDraft:
		return "Submit for review"
	case StatusInReview:
		return "Approve"
	case StatusApproved:
		return "Publish"
	default:
		return ""
	}
}
