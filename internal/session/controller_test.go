package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PerezAngel/iep-bedrock-studio/internal/api"
	"github.com/PerezAngel/iep-bedrock-studio/internal/config"
	"github.com/PerezAngel/iep-bedrock-studio/internal/errors"
	"github.com/PerezAngel/iep-bedrock-studio/internal/identity"
	"github.com/PerezAngel/iep-bedrock-studio/internal/workflow"
)

// newTestServer starts an HTTP server bound to IPv4-only loopback so tests work
// inside restricted sandboxes that forbid IPv6 listeners.
func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("unable to start test server: %v", err)
	}

	server := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	server.Start()
	t.Cleanup(server.Close)
	return server
}

// fakeBackend is a scriptable stand-in for the content/image backend.
type fakeBackend struct {
	mu sync.Mutex

	whoamiStatus int
	whoamiGroups []string

	// records maps content id to the JSON body GET /content/{id} returns.
	records map[string]string

	generateBody string

	statusBody string

	// buckets maps status name to items JSON for /content/by-status.
	buckets     map[string]string
	bucketFail  map[string]bool
	bucketDelay map[string]chan struct{}

	calls []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		whoamiStatus: http.StatusOK,
		whoamiGroups: []string{"writers", "approvers"},
		records:      map[string]string{},
		buckets:      map[string]string{},
		bucketFail:   map[string]bool{},
		bucketDelay:  map[string]chan struct{}{},
	}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.record(r.Method + " " + r.URL.Path)

	switch {
	case r.URL.Path == "/me":
		f.mu.Lock()
		status, groups := f.whoamiStatus, f.whoamiGroups
		f.mu.Unlock()
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"message":"nope"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "groups": groups})

	case r.URL.Path == "/content/generate":
		f.mu.Lock()
		body := f.generateBody
		f.mu.Unlock()
		w.Write([]byte(body))

	case r.URL.Path == "/content/by-status":
		status := r.URL.Query().Get("status")
		f.mu.Lock()
		delay := f.bucketDelay[status]
		fail := f.bucketFail[status]
		items := f.buckets[status]
		f.mu.Unlock()
		if delay != nil {
			<-delay
		}
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"bucket_down"}`))
			return
		}
		if items == "" {
			items = "[]"
		}
		w.Write([]byte(fmt.Sprintf(`{"ok":true,"items":%s}`, items)))

	case len(r.URL.Path) > len("/content/") && r.URL.Path[len(r.URL.Path)-7:] == "/status":
		f.mu.Lock()
		body := f.statusBody
		f.mu.Unlock()
		w.Write([]byte(body))

	case r.URL.Path == "/image/generate":
		w.Write([]byte(`{"ok":true,"url":"https://img.example.com/1.png"}`))

	case r.URL.Path == "/image/recent":
		w.Write([]byte(`{"ok":true,"images":[{"key":"k1","url":"u1"}]}`))

	default:
		f.mu.Lock()
		body, ok := f.records[r.URL.Path[len("/content/"):]]
		f.mu.Unlock()
		if !ok {
			w.Write([]byte(`{"ok":false,"error":"not_found"}`))
			return
		}
		w.Write([]byte(body))
	}
}

func newTestController(t *testing.T, backend *fakeBackend, opts ...Option) *Controller {
	t.Helper()
	server := newTestServer(t, backend)
	client := api.New(config.APIConfig{
		Base:      server.URL,
		Timeout:   5 * time.Second,
		UserEmail: "test@example.com",
	})
	return New(client, config.IdentityConfig{}, opts...)
}

func TestGenerateAdoptsServerResultAndReloads(t *testing.T) {
	backend := newFakeBackend()
	backend.generateBody = `{"ok":true,"contentId":"abc123","text":"Hello.","status":"DRAFT"}`
	// The reload is the authority for the displayed status: it answers
	// IN_REVIEW even though generate said DRAFT.
	backend.records["abc123"] = `{
		"ok": true,
		"versions": [{"sk":"v1","text":"Hello.","action":"summarize","status":"IN_REVIEW"}],
		"latest": {"status":"IN_REVIEW"}
	}`

	c := newTestController(t, backend)
	require.NoError(t, c.Generate(context.Background(), workflow.ActionSummarize, "Hello world"))

	snap := c.Snapshot()
	assert.Equal(t, "abc123", snap.ContentID)
	assert.Equal(t, "Hello.", snap.Text, "server text adopted, not the user's input")
	assert.Equal(t, workflow.StatusInReview, snap.Status, "status comes from latest.status, never the optimistic guess")
	assert.Equal(t, PhaseLoaded, snap.Phase)
	require.Len(t, snap.Versions, 1)

	assert.Contains(t, backend.calls, "POST /content/generate")
	assert.Contains(t, backend.calls, "GET /content/abc123", "follow-up load must use the returned identifier")
}

func TestGenerateRejectsUnknownActionWithoutNetworkCall(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(t, backend)

	err := c.Generate(context.Background(), workflow.Action("translate"), "text")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeActionUnknown, errors.Code(err))
	assert.Zero(t, backend.callCount(), "validation failures must not reach the network")
}

func TestGenerateFailureKeepsPriorState(t *testing.T) {
	backend := newFakeBackend()
	backend.generateBody = `{"ok":true,"contentId":"abc123","text":"First.","status":"DRAFT"}`
	backend.records["abc123"] = `{"ok":true,"versions":[{"sk":"v1","text":"First.","status":"DRAFT"}],"latest":{"status":"DRAFT"}}`

	c := newTestController(t, backend)
	require.NoError(t, c.Generate(context.Background(), workflow.ActionSummarize, "input"))

	backend.mu.Lock()
	backend.generateBody = `{"ok":false,"error":"model_error","detail":"throttled"}`
	backend.mu.Unlock()

	err := c.Generate(context.Background(), workflow.ActionExpand, "more input")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeGenerateFailed, errors.Code(err))

	snap := c.Snapshot()
	assert.Equal(t, "abc123", snap.ContentID, "prior record retained")
	assert.Equal(t, "First.", snap.Text)
	assert.Equal(t, PhaseLoaded, snap.Phase)
}

func TestLoadContentFailurePreservesDisplayedData(t *testing.T) {
	backend := newFakeBackend()
	backend.records["abc123"] = `{"ok":true,"versions":[{"sk":"v1","text":"Good.","status":"DRAFT"}],"latest":{"status":"DRAFT"}}`

	c := newTestController(t, backend)
	require.NoError(t, c.LoadContent(context.Background(), "abc123"))

	err := c.LoadContent(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeLoadFailed, errors.Code(err))
	assert.Contains(t, err.Error(), "not_found", "backend message surfaced")

	snap := c.Snapshot()
	assert.Equal(t, "Good.", snap.Text, "last good state retained")
	require.Len(t, snap.Versions, 1)
	assert.NotNil(t, snap.LastErr)
}

func TestChangeStatusRollsBackOnFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.records["abc123"] = `{"ok":true,"versions":[{"sk":"v1","text":"T.","status":"DRAFT"}],"latest":{"status":"DRAFT"}}`
	backend.statusBody = `{"ok":false,"error":"forbidden"}`

	c := newTestController(t, backend)
	require.NoError(t, c.LoadContent(context.Background(), "abc123"))
	c.SelectBoardEntry("abc123", workflow.StatusDraft)

	err := c.ChangeStatus(context.Background(), "abc123", workflow.StatusInReview)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStatusChangeFailed, errors.Code(err))
	assert.Contains(t, err.Error(), "forbidden")

	snap := c.Snapshot()
	assert.Equal(t, workflow.StatusDraft, snap.Status, "displayed status must equal its pre-call value")
	require.NotNil(t, snap.Selection)
	assert.Equal(t, workflow.StatusDraft, snap.Selection.Status, "selection rolls back too")
}

func TestChangeStatusSuccessConfirmsAndReloads(t *testing.T) {
	backend := newFakeBackend()
	backend.records["abc123"] = `{"ok":true,"versions":[{"sk":"v1","text":"T.","status":"DRAFT"}],"latest":{"status":"DRAFT"}}`

	c := newTestController(t, backend)
	require.NoError(t, c.LoadContent(context.Background(), "abc123"))

	backend.mu.Lock()
	backend.statusBody = `{"ok":true,"status":"IN_REVIEW"}`
	backend.records["abc123"] = `{"ok":true,"versions":[{"sk":"v2","text":"T.","status":"IN_REVIEW"},{"sk":"v1","text":"T.","status":"DRAFT"}],"latest":{"status":"IN_REVIEW"}}`
	backend.mu.Unlock()

	require.NoError(t, c.ChangeStatus(context.Background(), "abc123", workflow.StatusInReview))

	snap := c.Snapshot()
	assert.Equal(t, workflow.StatusInReview, snap.Status)
	assert.Len(t, snap.Versions, 2, "re-validation reload pulled fresh versions")
}

func TestChangeStatusRejectsEmptyIDWithoutNetworkCall(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(t, backend)

	err := c.ChangeStatus(context.Background(), "", workflow.StatusInReview)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeContentIDMissing, errors.Code(err))
	assert.Zero(t, backend.callCount())
}

func TestChangeStatusOnBoardEntryRefreshesBoard(t *testing.T) {
	backend := newFakeBackend()
	backend.statusBody = `{"ok":true,"status":"APPROVED"}`
	backend.buckets["APPROVED"] = `[{"contentId":"other1"}]`

	c := newTestController(t, backend)
	c.SelectBoardEntry("other1", workflow.StatusInReview)

	require.NoError(t, c.ChangeStatus(context.Background(), "other1", workflow.StatusApproved))

	snap := c.Snapshot()
	require.NotNil(t, snap.Selection)
	assert.Equal(t, workflow.StatusApproved, snap.Selection.Status)
	require.Len(t, snap.Board[workflow.StatusApproved], 1)
	assert.Equal(t, "other1", snap.Board[workflow.StatusApproved][0].ContentID)
}

func TestMutationsRejectedWhileInFlight(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(t, backend)

	// Force an in-flight phase by hand; the gate belongs to the
	// controller, not the view.
	c.mu.Lock()
	c.phase = PhaseGenerating
	c.mu.Unlock()

	err := c.Generate(context.Background(), workflow.ActionFix, "text")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeOperationInFlight, errors.Code(err))

	err = c.ChangeStatus(context.Background(), "abc123", workflow.StatusInReview)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeOperationInFlight, errors.Code(err))

	err = c.LoadContent(context.Background(), "abc123")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeOperationInFlight, errors.Code(err))

	assert.Zero(t, backend.callCount())
}

func TestStaleLoadResponseIsDiscarded(t *testing.T) {
	backend := newFakeBackend()
	backend.records["old1"] = `{"ok":true,"versions":[{"sk":"v1","text":"Old.","status":"DRAFT"}],"latest":{"status":"DRAFT"}}`
	backend.records["new1"] = `{"ok":true,"versions":[{"sk":"v1","text":"New.","status":"DRAFT"}],"latest":{"status":"DRAFT"}}`

	c := newTestController(t, backend)
	require.NoError(t, c.LoadContent(context.Background(), "new1"))

	// Simulate an in-flight response for a superseded epoch and a
	// no-longer-active identifier: it must land in the void.
	c.mu.Lock()
	staleEpoch := c.loadEpoch - 1
	c.mu.Unlock()
	require.NoError(t, c.fetchAndInstall(context.Background(), "old1", staleEpoch))

	snap := c.Snapshot()
	assert.Equal(t, "new1", snap.ContentID)
	assert.Equal(t, "New.", snap.Text, "stale response must not be applied")
}

func TestRefreshSessionPhases(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantPhase  AuthPhase
		wantCode   errors.ErrorCode
		wantGroups int
	}{
		{"success", http.StatusOK, AuthOK, "", 2},
		{"401 signed out", http.StatusUnauthorized, AuthSignedOut, errors.ErrCodeAuthRequired, 0},
		{"403 forbidden", http.StatusForbidden, AuthForbidden, errors.ErrCodeAuthForbidden, 0},
		{"500 errored", http.StatusInternalServerError, AuthErrored, errors.ErrCodeAuthUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.whoamiStatus = tt.status

			c := newTestController(t, backend)
			err := c.RefreshSession(context.Background())

			snap := c.Snapshot()
			assert.Equal(t, tt.wantPhase, snap.AuthPhase)
			assert.Len(t, snap.Groups, tt.wantGroups)
			if tt.wantCode == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.Code(err))
			}
		})
	}
}

func TestForbiddenClearsCachedGroups(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(t, backend)

	require.NoError(t, c.RefreshSession(context.Background()))
	assert.True(t, c.CanTrigger(workflow.StatusApproved), "approver group grants the transition")

	backend.mu.Lock()
	backend.whoamiStatus = http.StatusForbidden
	backend.mu.Unlock()

	require.Error(t, c.RefreshSession(context.Background()))
	assert.False(t, c.CanTrigger(workflow.StatusApproved),
		"gated actions must disappear regardless of previously cached group data")
	assert.False(t, c.CanTrigger(workflow.StatusInReview))
}

func TestAuthErrorKeepsLastGoodGroups(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(t, backend)
	require.NoError(t, c.RefreshSession(context.Background()))

	backend.mu.Lock()
	backend.whoamiStatus = http.StatusInternalServerError
	backend.mu.Unlock()

	require.Error(t, c.RefreshSession(context.Background()))
	snap := c.Snapshot()
	assert.Len(t, snap.Groups, 2, "generic failures retain last known groups")
	assert.False(t, c.CanTrigger(workflow.StatusApproved), "but gated actions need AuthOK")
}

func TestLogoutIsIdempotent(t *testing.T) {
	backend := newFakeBackend()
	backend.records["abc123"] = `{"ok":true,"versions":[{"sk":"v1","text":"T.","status":"DRAFT"}],"latest":{"status":"DRAFT"}}`

	store := identity.NewStore(t.TempDir())
	require.NoError(t, store.SaveArtifact(identity.Artifact{AccessToken: "at1"}))

	c := newTestController(t, backend, WithTokenStore(store))
	require.NoError(t, c.RefreshSession(context.Background()))
	require.NoError(t, c.LoadContent(context.Background(), "abc123"))
	c.SelectBoardEntry("abc123", workflow.StatusDraft)

	_, err := c.Logout(context.Background())
	require.NoError(t, err)
	first := c.Snapshot()

	_, err = c.Logout(context.Background())
	require.NoError(t, err, "second logout must not error")
	second := c.Snapshot()

	for _, snap := range []Snapshot{first, second} {
		assert.Equal(t, AuthSignedOut, snap.AuthPhase)
		assert.Empty(t, snap.Groups)
		assert.Equal(t, "", snap.ContentID)
		assert.Nil(t, snap.Selection)
		assert.Equal(t, PhaseUnloaded, snap.Phase)
	}

	tokens, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "", tokens.Bearer())
}

func TestLogoutReturnsProviderURL(t *testing.T) {
	backend := newFakeBackend()
	server := newTestServer(t, backend)
	client := api.New(config.APIConfig{Base: server.URL, Timeout: 5 * time.Second})
	c := New(client, config.IdentityConfig{
		Domain:      "https://login.example.com",
		ClientID:    "client-123",
		RedirectURI: "https://app.example.com/",
	})

	url, err := c.Logout(context.Background())
	require.NoError(t, err)
	assert.Contains(t, url, "https://login.example.com/logout")
	assert.Contains(t, url, "client_id=client-123")
}

func TestGenerateImageAndGallery(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(t, backend)

	require.NoError(t, c.GenerateImage(context.Background(), "a lighthouse", api.StyleRealista))

	snap := c.Snapshot()
	assert.Equal(t, "https://img.example.com/1.png", snap.LastImageURL)
	require.Len(t, snap.Gallery, 1, "gallery refreshed after generation")
	assert.Equal(t, "k1", snap.Gallery[0].Key)
}

func TestGenerateImageRejectsUnknownStyle(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(t, backend)

	err := c.GenerateImage(context.Background(), "prompt", api.ImageStyle("watercolor"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeImageStyleUnknown, errors.Code(err))
	assert.Zero(t, backend.callCount())
}

func TestRevertToVersion(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(t, backend)

	c.SetText("current")
	c.RevertToVersion(workflow.Version{SK: "v1", Text: "older text"})
	assert.Equal(t, "older text", c.Snapshot().Text)

	// Versions without text leave the buffer alone.
	c.RevertToVersion(workflow.Version{SK: "v0"})
	assert.Equal(t, "older text", c.Snapshot().Text)
}

func TestSelectionNextAction(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(t, backend)
	require.NoError(t, c.RefreshSession(context.Background()))

	assert.Nil(t, c.SelectionNextAction(), "nothing selected")

	c.SelectBoardEntry("abc123", workflow.StatusDraft)
	action := c.SelectionNextAction()
	require.NotNil(t, action)
	assert.Equal(t, workflow.StatusInReview, action.Target)
	assert.True(t, action.Allowed)

	c.SelectBoardEntry("abc123", workflow.StatusPublished)
	assert.Nil(t, c.SelectionNextAction(), "terminal status has no next action")

	c.SelectBoardEntry("", "")
	assert.Nil(t, c.Snapshot().Selection)
}
