package session

import (
	"context"

	"github.com/PerezAngel/iep-bedrock-studio/internal/api"
	"github.com/PerezAngel/iep-bedrock-studio/internal/errors"
	"github.com/PerezAngel/iep-bedrock-studio/internal/workflow"
)

// beginMutation moves the phase machine into an in-flight state, or
// reports why it cannot. Only one of Loading, Generating and
// StatusChanging can be active at a time.
func (c *Controller) beginMutation(next Phase) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.phase {
	case PhaseLoading, PhaseGenerating, PhaseStatusChanging:
		return errors.New(errors.ErrCodeOperationInFlight,
			"another operation is in flight").
			WithSuggestion("Wait for the current operation to finish")
	}
	c.phase = next
	return nil
}

// settle returns the phase machine to its resting state.
func (c *Controller) settle() {
	if c.record != nil {
		c.phase = PhaseLoaded
	} else {
		c.phase = PhaseUnloaded
	}
}

// LoadContent makes id the active record and fetches it. Switching the
// active identifier discards local-only editor changes; an in-flight
// response for a previously active identifier is discarded on arrival,
// never applied. On failure previously displayed data is retained.
func (c *Controller) LoadContent(ctx context.Context, id string) error {
	if id == "" {
		return errors.NewContentIDMissingError()
	}
	if err := c.beginMutation(PhaseLoading); err != nil {
		return err
	}

	c.mu.Lock()
	if c.activeID != id {
		// New active record: the old record's text no longer belongs
		// in the editor, but keep it displayed until fresh data lands.
		c.activeID = id
	}
	c.loadEpoch++
	epoch := c.loadEpoch
	c.mu.Unlock()

	err := c.fetchAndInstall(ctx, id, epoch)

	c.mu.Lock()
	c.settle()
	c.mu.Unlock()
	return err
}

// fetchAndInstall performs the actual fetch and atomically installs
// versions and status together. Stale responses (superseded epoch or no
// longer the active id) are discarded.
func (c *Controller) fetchAndInstall(ctx context.Context, id string, epoch uint64) error {
	record, err := c.client.LoadContent(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loadEpoch != epoch || c.activeID != id {
		// A newer operation owns the active slot; this response is
		// stale no matter whether it succeeded.
		c.logger.Debug("discarding stale load", "content_id", id)
		return nil
	}

	if err != nil {
		loadErr := errors.NewLoadFailedError(id, err)
		c.lastErr = loadErr
		c.logger.WithError(loadErr).Warn("load failed", "content_id", id)
		return loadErr
	}

	// Versions and status land together, never one without the other.
	c.record = record
	if text := record.LatestText(); text != "" {
		c.text = text
	}
	c.lastErr = nil
	c.logger.Debug("content loaded", "content_id", id, "status", string(record.Status), "versions", len(record.Versions))
	return nil
}

// Generate runs a generation action against the active record (or a new
// one when none is active). On success the server-returned identifier
// and text are adopted, since the server is authoritative for the
// produced text, and a follow-up load pulls the fresh version list using
// that identifier.
func (c *Controller) Generate(ctx context.Context, action workflow.Action, inputText string) error {
	if !workflow.ValidAction(action) {
		return errors.NewActionUnknownError(string(action))
	}
	if err := c.beginMutation(PhaseGenerating); err != nil {
		return err
	}

	c.mu.Lock()
	existingID := c.activeID
	c.mu.Unlock()

	result, err := c.client.Generate(ctx, api.GenerateParams{
		Action:    action,
		InputText: inputText,
		ContentID: existingID,
	})

	if err != nil {
		genErr := errors.NewGenerateFailedError(string(action), err)
		c.mu.Lock()
		c.lastErr = genErr
		c.settle()
		c.mu.Unlock()
		c.logger.WithError(genErr).Warn("generate failed", "action", string(action))
		return genErr
	}

	c.mu.Lock()
	c.activeID = result.ContentID
	c.text = result.Text
	if c.record == nil || c.record.ContentID != result.ContentID {
		c.record = &workflow.Record{ContentID: result.ContentID, Status: result.Status}
	} else {
		c.record.Status = result.Status
	}
	c.lastErr = nil
	c.loadEpoch++
	epoch := c.loadEpoch
	c.mu.Unlock()

	c.logger.Debug("generate succeeded", "action", string(action), "content_id", result.ContentID)

	// The generate response carries no history; reload with the
	// identifier the server returned, never a stale one.
	err = c.fetchAndInstall(ctx, result.ContentID, epoch)

	c.mu.Lock()
	c.settle()
	c.mu.Unlock()
	return err
}

// ChangeStatus requests a workflow transition. An absent id is rejected
// before any network call. The local status updates optimistically and
// is re-validated by reloading; on failure it rolls back to the last
// server-confirmed value, because status drives which role-gated actions
// render and a stale permissive view is the worse failure.
func (c *Controller) ChangeStatus(ctx context.Context, id string, next workflow.Status) error {
	if id == "" {
		return errors.NewContentIDMissingError()
	}
	if !next.Valid() {
		return errors.NewStatusChangeFailedError(id,
			errors.New(errors.ErrCodeStatusChangeFailed, "unknown target status"))
	}
	if err := c.beginMutation(PhaseStatusChanging); err != nil {
		return err
	}

	// Remember the pre-call values for rollback.
	c.mu.Lock()
	var prevRecordStatus workflow.Status
	activeIsTarget := c.record != nil && c.record.ContentID == id
	if activeIsTarget {
		prevRecordStatus = c.record.Status
		c.record.Status = next
	}
	var prevSelection *Selection
	if c.selection != nil && c.selection.ContentID == id {
		sel := *c.selection
		prevSelection = &sel
		c.selection.Status = next
	}
	c.mu.Unlock()

	confirmed, err := c.client.SetStatus(ctx, id, next)

	if err != nil {
		c.mu.Lock()
		// Rollback: the displayed status must equal its pre-call value.
		if activeIsTarget && c.record != nil && c.record.ContentID == id {
			c.record.Status = prevRecordStatus
		}
		if prevSelection != nil && c.selection != nil && c.selection.ContentID == id {
			c.selection.Status = prevSelection.Status
		}
		changeErr := errors.NewStatusChangeFailedError(id, err)
		c.lastErr = changeErr
		c.settle()
		c.mu.Unlock()
		c.logger.WithError(changeErr).Warn("status change failed", "content_id", id)
		return changeErr
	}

	c.mu.Lock()
	if activeIsTarget && c.record != nil && c.record.ContentID == id {
		c.record.Status = confirmed
	}
	if c.selection != nil && c.selection.ContentID == id {
		c.selection.Status = confirmed
	}
	c.lastErr = nil
	var epoch uint64
	if activeIsTarget {
		c.loadEpoch++
		epoch = c.loadEpoch
	}
	c.mu.Unlock()

	c.logger.Debug("status changed", "content_id", id, "status", string(confirmed))

	// Re-validate against the authority.
	var reloadErr error
	if activeIsTarget {
		reloadErr = c.fetchAndInstall(ctx, id, epoch)
	} else {
		reloadErr = c.RefreshBoard(ctx)
	}

	c.mu.Lock()
	c.settle()
	c.mu.Unlock()
	return reloadErr
}

// SetText replaces the local editor buffer. Purely local; nothing is
// sent until the next generation action.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
}

// RevertToVersion copies a historical version's text back into the
// editor buffer. Local-only until the next generate call.
func (c *Controller) RevertToVersion(v workflow.Version) {
	if v.Text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = v.Text
}
