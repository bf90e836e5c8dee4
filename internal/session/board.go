package session

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/PerezAngel/iep-bedrock-studio/internal/errors"
	"github.com/PerezAngel/iep-bedrock-studio/internal/workflow"
)

// RefreshBoard fetches all four status buckets. The fetches carry no
// ordering dependency, but the merged result is installed atomically
// once every bucket resolves. A failed bucket keeps its previous
// contents and is reported without discarding buckets that succeeded. A
// newer invocation supersedes an in-flight one: the older call's results
// are discarded on arrival, never merged.
func (c *Controller) RefreshBoard(ctx context.Context) error {
	c.mu.Lock()
	c.boardEpoch++
	epoch := c.boardEpoch
	c.mu.Unlock()

	results := make([][]workflow.BoardEntry, len(workflow.Statuses))
	bucketErrs := make([]error, len(workflow.Statuses))

	// A plain errgroup (no derived context) on purpose: one bucket's
	// failure must not cancel the others.
	var g errgroup.Group
	for i, status := range workflow.Statuses {
		i, status := i, status
		g.Go(func() error {
			entries, err := c.client.ListByStatus(ctx, status)
			if err != nil {
				bucketErrs[i] = fmt.Errorf("%s: %w", status, err)
				return nil
			}
			results[i] = entries
			return nil
		})
	}
	g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.boardEpoch != epoch {
		c.logger.Debug("discarding superseded board refresh")
		return nil
	}

	merged := make(workflow.Board, len(workflow.Statuses))
	var failed []string
	for i, status := range workflow.Statuses {
		if bucketErrs[i] != nil {
			// Keep the last good bucket contents.
			merged[status] = c.board[status]
			failed = append(failed, bucketErrs[i].Error())
			continue
		}
		merged[status] = results[i]
	}
	c.board = merged

	if len(failed) > 0 {
		boardErr := errors.NewBoardRefreshFailedError(
			fmt.Errorf("%s", strings.Join(failed, "; ")))
		c.boardErr = boardErr
		c.logger.WithError(boardErr).Warn("board refresh incomplete", "failed_buckets", len(failed))
		return boardErr
	}
	c.boardErr = nil
	c.logger.Debug("board refreshed")
	return nil
}

// SelectBoardEntry binds the selected identifier/status pair. Purely
// local: no network call; subsequent role-gated transition actions key
// off this pair.
func (c *Controller) SelectBoardEntry(id string, status workflow.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == "" {
		c.selection = nil
		return
	}
	c.selection = &Selection{ContentID: id, Status: status}
}

// NextAction describes the transition available for the current
// selection, if any, and whether the session's roles may trigger it.
type NextAction struct {
	Target  workflow.Status
	Label   string
	Allowed bool
}

// SelectionNextAction computes the role-gated next action for the
// selected board entry. Nil when nothing is selected, the selection is
// terminal, or the session is not fully authenticated.
func (c *Controller) SelectionNextAction() *NextAction {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selection == nil {
		return nil
	}
	next, ok := c.selection.Status.Next()
	if !ok {
		return nil
	}
	return &NextAction{
		Target:  next,
		Label:   c.selection.Status.NextActionLabel(),
		Allowed: c.authPhase == AuthOK && c.roles.CanTrigger(next),
	}
}
