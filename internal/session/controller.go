// Package session implements the workflow session controller: the single
// owner of client-visible state (active content, board, roles, gallery)
// reconciled against the remote backend. Views render snapshots of this
// state and never hold copies of their own.
package session

import (
	"context"
	"sync"

	"github.com/PerezAngel/iep-bedrock-studio/internal/api"
	"github.com/PerezAngel/iep-bedrock-studio/internal/config"
	"github.com/PerezAngel/iep-bedrock-studio/internal/errors"
	"github.com/PerezAngel/iep-bedrock-studio/internal/identity"
	"github.com/PerezAngel/iep-bedrock-studio/internal/log"
	"github.com/PerezAngel/iep-bedrock-studio/internal/workflow"
)

// Phase is the lifecycle of the active content record. Mutating actions
// are rejected by the controller (not the view) in Loading, Generating
// and StatusChanging.
type Phase int

const (
	PhaseUnloaded Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseGenerating
	PhaseStatusChanging
)

// String returns the phase name for logs.
func (p Phase) String() string {
	switch p {
	case PhaseUnloaded:
		return "unloaded"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseGenerating:
		return "generating"
	case PhaseStatusChanging:
		return "status_changing"
	default:
		return "unknown"
	}
}

// AuthPhase is the identity side of the session.
type AuthPhase int

const (
	// AuthLoading means the first whoami has not answered yet.
	AuthLoading AuthPhase = iota
	// AuthOK means the caller is authenticated with known groups.
	AuthOK
	// AuthSignedOut means the backend answered 401; signing in helps.
	AuthSignedOut
	// AuthForbidden means the backend answered 403; signing in again
	// does not help.
	AuthForbidden
	// AuthErrored covers every other identity failure; public data may
	// still be loaded.
	AuthErrored
)

// Selection is the board entry the user last picked; role-gated
// transition actions key off this pair.
type Selection struct {
	ContentID string
	Status    workflow.Status
}

// Controller owns all client-visible workflow state. All exported
// methods are safe for concurrent use; network calls run outside the
// lock and their results are discarded when a newer operation superseded
// them.
type Controller struct {
	client      *api.Client
	identityCfg config.IdentityConfig
	store       *identity.Store
	logger      *log.Logger

	mu sync.Mutex

	// identity
	authPhase AuthPhase
	groups    []string
	roles     workflow.Roles
	authErr   error

	// active content
	phase     Phase
	activeID  string
	record    *workflow.Record
	text      string
	lastErr   error
	loadEpoch uint64

	// board
	board      workflow.Board
	boardEpoch uint64
	boardErr   error
	selection  *Selection

	// images
	gallery      []api.GalleryItem
	lastImageURL string
	imageErr     error
}

// Option configures a Controller.
type Option func(*Controller)

// WithTokenStore installs the on-disk token store cleared on logout.
func WithTokenStore(store *identity.Store) Option {
	return func(c *Controller) { c.store = store }
}

// WithLogger replaces the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// New creates a controller over the given backend client.
func New(client *api.Client, identityCfg config.IdentityConfig, opts ...Option) *Controller {
	c := &Controller{
		client:      client,
		identityCfg: identityCfg,
		logger:      log.DefaultLogger().With("component", "session"),
		board:       workflow.NewBoard(),
		gallery:     []api.GalleryItem{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot is an immutable view of the controller state for renderers.
type Snapshot struct {
	AuthPhase AuthPhase
	Groups    []string
	Roles     workflow.Roles
	AuthErr   error

	Phase     Phase
	ContentID string
	Status    workflow.Status
	Versions  []workflow.Version
	Text      string
	LastErr   error

	Board     workflow.Board
	BoardErr  error
	Selection *Selection

	Gallery      []api.GalleryItem
	LastImageURL string
	ImageErr     error
}

// Snapshot returns a copy of the current state. Slices and maps are
// copied so renderers can never observe a half-applied update.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		AuthPhase:    c.authPhase,
		Groups:       append([]string(nil), c.groups...),
		Roles:        c.roles,
		AuthErr:      c.authErr,
		Phase:        c.phase,
		ContentID:    c.activeID,
		Text:         c.text,
		LastErr:      c.lastErr,
		BoardErr:     c.boardErr,
		Gallery:      append([]api.GalleryItem(nil), c.gallery...),
		LastImageURL: c.lastImageURL,
		ImageErr:     c.imageErr,
	}
	if c.record != nil {
		snap.Status = c.record.Status
		snap.Versions = append([]workflow.Version(nil), c.record.Versions...)
	}
	snap.Board = make(workflow.Board, len(c.board))
	for status, entries := range c.board {
		snap.Board[status] = append([]workflow.BoardEntry(nil), entries...)
	}
	if c.selection != nil {
		sel := *c.selection
		snap.Selection = &sel
	}
	return snap
}

// RefreshSession resolves the caller's identity. On success the group
// set is replaced atomically; 401 and 403 move the session to distinct
// phases because their remediations differ; any other failure leaves
// previously known groups in place and does not block public loads.
func (c *Controller) RefreshSession(ctx context.Context) error {
	groups, err := c.client.Whoami(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case err == nil:
		c.groups = groups
		c.roles = workflow.RolesFromGroups(groups)
		c.authPhase = AuthOK
		c.authErr = nil
		c.logger.Debug("session refreshed", "groups", len(groups))
		return nil

	case errors.Is(err, api.ErrUnauthorized):
		c.groups = nil
		c.roles = workflow.Roles{}
		c.authPhase = AuthSignedOut
		c.authErr = errors.NewAuthRequiredError()
		return c.authErr

	case errors.Is(err, api.ErrForbidden):
		// Stale permissive group data must not keep gated actions
		// visible.
		c.groups = nil
		c.roles = workflow.Roles{}
		c.authPhase = AuthForbidden
		c.authErr = errors.NewAuthForbiddenError()
		return c.authErr

	default:
		c.authPhase = AuthErrored
		c.authErr = errors.NewAuthUnknownError(err)
		return c.authErr
	}
}

// CanTrigger reports whether the current session may request a
// transition to next. False whenever the session is not fully
// authenticated, regardless of cached group data.
func (c *Controller) CanTrigger(next workflow.Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authPhase == AuthOK && c.roles.CanTrigger(next)
}

// Logout clears every locally held session artifact and returns the
// identity provider's sign-out URL (empty when no provider is
// configured). Remote HttpOnly artifacts are outside this process's
// authority and are cleared only by that redirect. Idempotent.
func (c *Controller) Logout(ctx context.Context) (string, error) {
	c.mu.Lock()
	c.authPhase = AuthSignedOut
	c.groups = nil
	c.roles = workflow.Roles{}
	c.authErr = nil
	c.phase = PhaseUnloaded
	c.activeID = ""
	c.record = nil
	c.text = ""
	c.lastErr = nil
	c.board = workflow.NewBoard()
	c.boardErr = nil
	c.selection = nil
	c.gallery = []api.GalleryItem{}
	c.lastImageURL = ""
	c.imageErr = nil
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			return "", err
		}
	}

	if c.identityCfg.Domain == "" {
		return "", nil
	}
	return identity.LogoutURL(c.identityCfg)
}
