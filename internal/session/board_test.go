package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PerezAngel/iep-bedrock-studio/internal/errors"
	"github.com/PerezAngel/iep-bedrock-studio/internal/workflow"
)

func TestRefreshBoardMergesAllBuckets(t *testing.T) {
	backend := newFakeBackend()
	backend.buckets["DRAFT"] = `[{"contentId":"d1"},{"contentId":"d2"}]`
	backend.buckets["IN_REVIEW"] = `[{"contentId":"r1"}]`
	backend.buckets["PUBLISHED"] = `[{"contentId":"p1"}]`

	c := newTestController(t, backend)
	require.NoError(t, c.RefreshBoard(context.Background()))

	snap := c.Snapshot()
	assert.Len(t, snap.Board[workflow.StatusDraft], 2)
	assert.Len(t, snap.Board[workflow.StatusInReview], 1)
	assert.Len(t, snap.Board[workflow.StatusApproved], 0)
	assert.Len(t, snap.Board[workflow.StatusPublished], 1)
	assert.Nil(t, snap.BoardErr)
}

func TestRefreshBoardPartialFailureKeepsGoodBuckets(t *testing.T) {
	backend := newFakeBackend()
	backend.buckets["DRAFT"] = `[{"contentId":"d1"}]`
	backend.buckets["IN_REVIEW"] = `[{"contentId":"r1"}]`

	c := newTestController(t, backend)
	require.NoError(t, c.RefreshBoard(context.Background()))

	// Second refresh: IN_REVIEW now fails, DRAFT gained an entry.
	backend.mu.Lock()
	backend.buckets["DRAFT"] = `[{"contentId":"d1"},{"contentId":"d2"}]`
	backend.bucketFail["IN_REVIEW"] = true
	backend.mu.Unlock()

	err := c.RefreshBoard(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeBoardRefreshFailed, errors.Code(err))
	assert.Contains(t, err.Error(), "IN_REVIEW")

	snap := c.Snapshot()
	assert.Len(t, snap.Board[workflow.StatusDraft], 2, "succeeded bucket installed")
	assert.Len(t, snap.Board[workflow.StatusInReview], 1, "failed bucket keeps previous contents")
	assert.NotNil(t, snap.BoardErr)
}

func TestRefreshBoardSupersedesInFlightCall(t *testing.T) {
	backend := newFakeBackend()
	release := make(chan struct{})
	backend.buckets["DRAFT"] = `[{"contentId":"from-first"}]`
	backend.bucketDelay["DRAFT"] = release

	c := newTestController(t, backend)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// First call blocks on the DRAFT bucket until released.
		c.RefreshBoard(context.Background())
	}()

	// Wait until the first call registered its epoch.
	for {
		c.mu.Lock()
		epoch := c.boardEpoch
		c.mu.Unlock()
		if epoch >= 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// Second call completes immediately with different data.
	backend.mu.Lock()
	backend.bucketDelay["DRAFT"] = nil
	backend.buckets["DRAFT"] = `[{"contentId":"from-second"}]`
	backend.mu.Unlock()
	require.NoError(t, c.RefreshBoard(context.Background()))

	// Release the first call; its results must be discarded.
	close(release)
	wg.Wait()

	snap := c.Snapshot()
	require.Len(t, snap.Board[workflow.StatusDraft], 1)
	assert.Equal(t, "from-second", snap.Board[workflow.StatusDraft][0].ContentID,
		"only the later call's results may render")
}

func TestRefreshBoardAllBucketsFail(t *testing.T) {
	backend := newFakeBackend()
	backend.buckets["DRAFT"] = `[{"contentId":"d1"}]`

	c := newTestController(t, backend)
	require.NoError(t, c.RefreshBoard(context.Background()))

	backend.mu.Lock()
	for _, s := range workflow.Statuses {
		backend.bucketFail[string(s)] = true
	}
	backend.mu.Unlock()

	err := c.RefreshBoard(context.Background())
	require.Error(t, err)

	snap := c.Snapshot()
	assert.Len(t, snap.Board[workflow.StatusDraft], 1, "every bucket retains last good contents")
}

func TestRefreshBoardReportsHTTPStatus(t *testing.T) {
	backend := newFakeBackend()
	backend.bucketFail["APPROVED"] = true

	c := newTestController(t, backend)
	err := c.RefreshBoard(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APPROVED")
	assert.Contains(t, err.Error(), "HTTP_500")
}
