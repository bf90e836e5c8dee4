package workflow

// Action is a generation action accepted by the backend. The set is
// closed; anything else is rejected before a network call is made.
type Action string

const (
	ActionSummarize  Action = "summarize"
	ActionExpand     Action = "expand"
	ActionFix        Action = "fix"
	ActionVariations Action = "variations"
)

// Actions lists every generation action in display order.
var Actions = []Action{ActionSummarize, ActionExpand, ActionFix, ActionVariations}

// ValidAction reports whether a belongs to the closed action set.
func ValidAction(a Action) bool {
	switch a {
	case ActionSummarize, ActionExpand, ActionFix, ActionVariations:
		return true
	default:
		return false
	}
}

// Version is an immutable snapshot of a content record's text at one point
// in its history. Append-only from the client's perspective.
type Version struct {
	SK        string `json:"sk"`
	CreatedAt string `json:"createdAt,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`
	Action    string `json:"action,omitempty"`
	Text      string `json:"text,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Record is the client's cached copy of a backend content record. Versions
// are most-recent-first. Status and Versions are always replaced together.
type Record struct {
	ContentID string
	Status    Status
	Versions  []Version
}

// LatestText returns the newest version's text, or "" when no version
// carries text yet.
func (r *Record) LatestText() string {
	if len(r.Versions) > 0 {
		return r.Versions[0].Text
	}
	return ""
}

// BoardEntry is a lightweight projection of a content record used by the
// board; it never carries full text.
type BoardEntry struct {
	ContentID string `json:"contentId"`
	VersionID string `json:"versionId,omitempty"`
	SK        string `json:"sk,omitempty"`
}

// Board groups board entries by current status.
type Board map[Status][]BoardEntry

// NewBoard returns a board with all four buckets present and empty, so
// renderers never distinguish "missing bucket" from "empty bucket".
func NewBoard() Board {
	b := make(Board, len(Statuses))
	for _, s := range Statuses {
		b[s] = []BoardEntry{}
	}
	return b
}

// Roles are the two capability flags derived from identity-provider group
// memberships.
type Roles struct {
	CanAuthor  bool
	CanApprove bool
}

// Group names assigned by the identity provider.
const (
	GroupDesigners = "designers"
	GroupWriters   = "writers"
	GroupApprovers = "approvers"
)

// RolesFromGroups derives capability flags from a group membership list.
func RolesFromGroups(groups []string) Roles {
	var r Roles
	for _, g := range groups {
		switch g {
		case GroupDesigners, GroupWriters:
			r.CanAuthor = true
		case GroupApprovers:
			r.CanApprove = true
		}
	}
	return r
}

// CanTrigger reports whether the given roles may request the transition to
// next. Submitting for review is an author capability; approving and
// publishing belong to approvers. The backend re-checks on every call.
func (r Roles) CanTrigger(next Status) bool {
	switch next {
	case StatusInReview:
		return r.CanAuthor
	case StatusApproved, StatusPublished:
		return r.CanApprove
	default:
		return false
	}
}
