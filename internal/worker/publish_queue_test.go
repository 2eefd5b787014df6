package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/pazar_api/internal/models"
)

type recordingNotifier struct {
	mu     sync.Mutex
	states []models.QueueState
}

func (n *recordingNotifier) NotifyQueue(_ int, s models.QueueState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, s)
}

func waitIdle(t *testing.T, q *PublishQueue, userID, results int) models.QueueState {
	t.Helper()
	var state models.QueueState
	require.Eventually(t, func() bool {
		state = q.State(userID)
		return !state.IsProcessing && len(state.Queue) == 0 && len(state.Results) == results
	}, 5*time.Second, 5*time.Millisecond)
	return state
}

func TestQueueRunsJobsOneAtATimeInOrder(t *testing.T) {
	var (
		active    int32
		maxActive int32
		mu        sync.Mutex
		order     []string
	)
	release := make(chan struct{})
	run := func(ctx context.Context, job *models.PublishJob, onStep func(string)) (string, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		if job.ID == "j1" {
			<-release
		}
		onStep("publishing")
		time.Sleep(2 * time.Millisecond)
		mu.Lock()
		order = append(order, job.ID)
		mu.Unlock()
		atomic.AddInt32(&active, -1)
		return "media-" + job.ID, nil
	}
	q := NewPublishQueue(run, nil, nil, 10)

	q.Enqueue(&models.PublishJob{ID: "j1", UserID: 1})
	require.Eventually(t, func() bool { return q.State(1).IsProcessing }, time.Second, time.Millisecond)
	for _, id := range []string{"j2", "j3", "j4"} {
		q.Enqueue(&models.PublishJob{ID: id, UserID: 1})
	}
	state := q.State(1)
	assert.Equal(t, "j1", state.CurrentJob.ID)
	assert.Len(t, state.Queue, 3)
	close(release)

	state = waitIdle(t, q, 1, 4)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
	assert.Equal(t, []string{"j1", "j2", "j3", "j4"}, order)
	for _, r := range state.Results {
		assert.Equal(t, models.JobStatusSuccess, r.Status)
	}
	assert.Equal(t, "media-j4", state.Results[3].MediaID)
}

func TestQueueFailureDoesNotBlockNextJob(t *testing.T) {
	run := func(_ context.Context, job *models.PublishJob, _ func(string)) (string, error) {
		if job.ID == "bad" {
			return "", errors.New("image 2: container failed")
		}
		return "m", nil
	}
	notifier := &recordingNotifier{}
	q := NewPublishQueue(run, notifier, nil, 10)

	q.Enqueue(&models.PublishJob{ID: "bad", UserID: 1})
	q.Enqueue(&models.PublishJob{ID: "good", UserID: 1})

	state := waitIdle(t, q, 1, 2)
	assert.Equal(t, models.JobStatusFailed, state.Results[0].Status)
	assert.Equal(t, "image 2: container failed", state.Results[0].Message)
	assert.Equal(t, models.JobStatusSuccess, state.Results[1].Status)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.NotEmpty(t, notifier.states)
}

func TestQueueRecoversPanickingRunner(t *testing.T) {
	run := func(_ context.Context, job *models.PublishJob, _ func(string)) (string, error) {
		if job.ID == "boom" {
			panic("nil map")
		}
		return "m", nil
	}
	q := NewPublishQueue(run, nil, nil, 10)

	q.Enqueue(&models.PublishJob{ID: "boom", UserID: 1})
	q.Enqueue(&models.PublishJob{ID: "ok", UserID: 1})

	state := waitIdle(t, q, 1, 2)
	assert.Equal(t, models.JobStatusFailed, state.Results[0].Status)
	assert.Equal(t, models.JobStatusSuccess, state.Results[1].Status)
}

func TestQueuesOfDifferentUsersAreIndependent(t *testing.T) {
	block := make(chan struct{})
	run := func(_ context.Context, job *models.PublishJob, _ func(string)) (string, error) {
		if job.UserID == 1 {
			<-block
		}
		return "m", nil
	}
	q := NewPublishQueue(run, nil, nil, 10)

	q.Enqueue(&models.PublishJob{ID: "a", UserID: 1})
	q.Enqueue(&models.PublishJob{ID: "b", UserID: 2})

	waitIdle(t, q, 2, 1)
	assert.True(t, q.State(1).IsProcessing)
	close(block)
	waitIdle(t, q, 1, 1)
}

func TestQueueCapsResultsAndClears(t *testing.T) {
	run := func(context.Context, *models.PublishJob, func(string)) (string, error) { return "m", nil }
	q := NewPublishQueue(run, nil, nil, 2)

	for i, id := range []string{"a", "b", "c"} {
		q.Enqueue(&models.PublishJob{ID: id, UserID: 1})
		waitIdle(t, q, 1, min(i+1, 2))
	}
	state := q.State(1)
	require.Len(t, state.Results, 2)
	assert.Equal(t, "c", state.Results[1].JobID)

	q.ClearResults(1)
	assert.Empty(t, q.State(1).Results)
}

func TestShutdownWaitsForRunningJob(t *testing.T) {
	started := make(chan struct{})
	run := func(ctx context.Context, _ *models.PublishJob, _ func(string)) (string, error) {
		close(started)
		time.Sleep(20 * time.Millisecond)
		return "m", ctx.Err()
	}
	q := NewPublishQueue(run, nil, nil, 10)
	q.Enqueue(&models.PublishJob{ID: "a", UserID: 1})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Shutdown(ctx))

	state := q.State(1)
	require.Len(t, state.Results, 1)
	assert.Equal(t, models.JobStatusSuccess, state.Results[0].Status)

	q.Enqueue(&models.PublishJob{ID: "late", UserID: 1})
	assert.Empty(t, q.State(1).Queue)
}

func TestShutdownDropsQueuedJobs(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var ran []string
	run := func(ctx context.Context, job *models.PublishJob, _ func(string)) (string, error) {
		ran = append(ran, job.ID)
		close(started)
		<-release
		return "m", nil
	}
	n := &recordingNotifier{}
	q := NewPublishQueue(run, n, nil, 10)
	q.Enqueue(&models.PublishJob{ID: "a", UserID: 1})
	<-started
	q.Enqueue(&models.PublishJob{ID: "b", UserID: 1})
	q.Enqueue(&models.PublishJob{ID: "c", UserID: 1})

	errc := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errc <- q.Shutdown(ctx)
	}()
	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return q.closed
	}, time.Second, time.Millisecond)
	close(release)
	require.NoError(t, <-errc)

	assert.Equal(t, []string{"a"}, ran)
	state := q.State(1)
	assert.Empty(t, state.Queue)
	assert.False(t, state.IsProcessing)
	require.Len(t, state.Results, 1)
	assert.Equal(t, "a", state.Results[0].JobID)

	n.mu.Lock()
	last := n.states[len(n.states)-1]
	n.mu.Unlock()
	assert.Empty(t, last.Queue)
}
