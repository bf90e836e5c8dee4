package workflow

import (
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"DRAFT", StatusDraft, false},
		{"draft", StatusDraft, false},
		{" in_review ", StatusInReview, false},
		{"APPROVED", StatusApproved, false},
		{"PUBLISHED", StatusPublished, false},
		{"ARCHIVED", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// The forward sequence is defined exactly once; this walks it end to end
// so a second, drifting copy of the rules cannot sneak in.
func TestForwardSequenceIsSingleChain(t *testing.T) {
	want := []Status{StatusDraft, StatusInReview, StatusApproved, StatusPublished}

	got := []Status{StatusDraft}
	cur := StatusDraft
	for {
		next, ok := cur.Next()
		if !ok {
			break
		}
		got = append(got, next)
		cur = next
		if len(got) > len(want) {
			t.Fatalf("transition chain longer than expected: %v", got)
		}
	}

	if len(got) != len(want) {
		t.Fatalf("chain = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chain[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if _, ok := StatusPublished.Next(); ok {
		t.Error("PUBLISHED must be terminal")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusDraft, StatusInReview, true},
		{StatusInReview, StatusApproved, true},
		{StatusApproved, StatusPublished, true},
		{StatusDraft, StatusApproved, false},
		{StatusInReview, StatusDraft, false},
		{StatusPublished, StatusDraft, false},
		{StatusPublished, StatusPublished, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestNextActionLabel(t *testing.T) {
	if StatusDraft.NextActionLabel() == "" {
		t.Error("DRAFT should have a next action")
	}
	if StatusPublished.NextActionLabel() != "" {
		t.Error("PUBLISHED should have no next action")
	}
}

func TestValidAction(t *testing.T) {
	for _, a := range Actions {
		if !ValidAction(a) {
			t.Errorf("ValidAction(%v) = false", a)
		}
	}
	if ValidAction("translate") {
		t.Error("unknown action accepted")
	}
}

func TestRolesFromGroups(t *testing.T) {
	tests := []struct {
		name   string
		groups []string
		want   Roles
	}{
		{"empty", nil, Roles{}},
		{"designer", []string{"designers"}, Roles{CanAuthor: true}},
		{"writer", []string{"writers"}, Roles{CanAuthor: true}},
		{"approver", []string{"approvers"}, Roles{CanApprove: true}},
		{"both", []string{"writers", "approvers"}, Roles{CanAuthor: true, CanApprove: true}},
		{"unrelated", []string{"admins", "viewers"}, Roles{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RolesFromGroups(tt.groups); got != tt.want {
				t.Errorf("RolesFromGroups(%v) = %+v, want %+v", tt.groups, got, tt.want)
			}
		})
	}
}

func TestRolesCanTrigger(t *testing.T) {
	author := Roles{CanAuthor: true}
	approver := Roles{CanApprove: true}

	if !author.CanTrigger(StatusInReview) {
		t.Error("author should submit for review")
	}
	if author.CanTrigger(StatusApproved) {
		t.Error("author alone should not approve")
	}
	if !approver.CanTrigger(StatusApproved) || !approver.CanTrigger(StatusPublished) {
		t.Error("approver should approve and publish")
	}
	if approver.CanTrigger(StatusInReview) {
		t.Error("approver alone should not submit for review")
	}
	if (Roles{}).CanTrigger(StatusDraft) {
		t.Error("no transition targets DRAFT")
	}
}

func TestNewBoardHasAllBuckets(t *testing.T) {
	b := NewBoard()
	if len(b) != len(Statuses) {
		t.Fatalf("board has %d buckets, want %d", len(b), len(Statuses))
	}
	for _, s := range Statuses {
		entries, ok := b[s]
		if !ok {
			t.Errorf("bucket %v missing", s)
		}
		if entries == nil {
			t.Errorf("bucket %v should be empty, not nil", s)
		}
	}
}

func TestRecordLatestText(t *testing.T) {
	r := &Record{}
	if r.LatestText() != "" {
		t.Error("empty record should have no text")
	}

	r.Versions = []Version{
		{SK: "v3", Text: "newest"},
		{SK: "v2", Text: "older"},
	}
	if got := r.LatestText(); got != "newest" {
		t.Errorf("LatestText() = %q, want %q", got, "newest")
	}
}
