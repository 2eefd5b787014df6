package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pazar_api/internal/metrics"
	"github.com/GTDGit/pazar_api/internal/models"
)

var errRunnerPanic = errors.New("publish runner panicked")

// Runner executes one publish job to a terminal state.
type Runner func(ctx context.Context, job *models.PublishJob, onStep func(step string)) (string, error)

// QueueNotifier receives a user's queue snapshot after every transition.
type QueueNotifier interface {
	NotifyQueue(userID int, state models.QueueState)
}

type userQueue struct {
	pending []*models.PublishJob
	current *models.PublishJob
	results []models.PublishResult
	running bool
}

// PublishQueue is a FIFO per user. Each user's jobs are drained by a single
// goroutine, so at most one job per user is in flight; a running job is never
// interrupted by new submissions. Nothing is persisted.
type PublishQueue struct {
	mu          sync.Mutex
	users       map[int]*userQueue
	run         Runner
	notifier    QueueNotifier
	metrics     *metrics.Metrics
	resultLimit int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// NewPublishQueue constructs a queue. notifier may be nil. resultLimit caps the
// finished jobs kept per user for display (default 50).
func NewPublishQueue(run Runner, notifier QueueNotifier, m *metrics.Metrics, resultLimit int) *PublishQueue {
	if resultLimit <= 0 {
		resultLimit = 50
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PublishQueue{
		users:       make(map[int]*userQueue),
		run:         run,
		notifier:    notifier,
		metrics:     m,
		resultLimit: resultLimit,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Enqueue appends job to its user's queue and starts the drain loop when it
// is idle. It returns the job id.
func (q *PublishQueue) Enqueue(job *models.PublishJob) string {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		log.Warn().Str("job_id", job.ID).Msg("Publish queue closed, job dropped")
		return job.ID
	}
	uq := q.user(job.UserID)
	job.Status = models.JobStatusQueued
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}
	uq.pending = append(uq.pending, job)
	start := !uq.running
	if start {
		uq.running = true
		q.wg.Add(1)
	}
	state := q.snapshot(uq)
	q.mu.Unlock()

	q.metrics.QueueDelta(1)
	q.notify(job.UserID, state)
	if start {
		go q.drain(job.UserID)
	}
	return job.ID
}

// State returns a copy of the user's queue.
func (q *PublishQueue) State(userID int) models.QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshot(q.user(userID))
}

// ClearResults forgets the user's finished jobs.
func (q *PublishQueue) ClearResults(userID int) {
	q.mu.Lock()
	uq := q.user(userID)
	uq.results = nil
	state := q.snapshot(uq)
	q.mu.Unlock()
	q.notify(userID, state)
}

// Shutdown stops accepting jobs, drops queued ones and waits for the running
// jobs to finish. When ctx ends first, running jobs are cancelled.
func (q *PublishQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		return ctx.Err()
	}
}

func (q *PublishQueue) drain(userID int) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		uq := q.user(userID)
		// Once closed, jobs that have not started are dropped.
		if len(uq.pending) == 0 || q.closed || q.ctx.Err() != nil {
			dropped := len(uq.pending)
			uq.pending = nil
			uq.running = false
			uq.current = nil
			state := q.snapshot(uq)
			q.mu.Unlock()
			if dropped > 0 {
				q.metrics.QueueDelta(-dropped)
				log.Warn().Int("user_id", userID).Int("dropped", dropped).Msg("Publish queue closed, queued jobs dropped")
				q.notify(userID, state)
			}
			return
		}
		job := uq.pending[0]
		uq.pending[0] = nil
		uq.pending = uq.pending[1:]
		now := time.Now()
		job.Status = models.JobStatusProcessing
		job.StartedAt = &now
		uq.current = job
		state := q.snapshot(uq)
		q.mu.Unlock()

		q.metrics.QueueDelta(-1)
		q.notify(userID, state)
		q.execute(userID, job)
	}
}

func (q *PublishQueue) execute(userID int, job *models.PublishJob) {
	logger := log.With().Int("user_id", userID).Str("job_id", job.ID).Logger()
	logger.Info().Int("images", len(job.ImageURLs)).Msg("Publishing job")

	mediaID, err := q.runSafely(job, func(step string) {
		q.mu.Lock()
		job.Step = step
		state := q.snapshot(q.user(userID))
		q.mu.Unlock()
		q.notify(userID, state)
	})

	res := models.PublishResult{
		JobID:       job.ID,
		ProductName: job.ProductName,
		Status:      models.JobStatusSuccess,
		Message:     "Gönderi yayınlandı",
		MediaID:     mediaID,
		FinishedAt:  time.Now(),
	}
	if err != nil {
		res.Status = models.JobStatusFailed
		res.Message = err.Error()
		logger.Warn().Err(err).Msg("Publish job failed")
	} else {
		logger.Info().Str("media_id", mediaID).Msg("Publish job succeeded")
	}

	q.mu.Lock()
	uq := q.user(userID)
	job.Status = res.Status
	uq.current = nil
	uq.results = append(uq.results, res)
	if over := len(uq.results) - q.resultLimit; over > 0 {
		uq.results = append([]models.PublishResult(nil), uq.results[over:]...)
	}
	state := q.snapshot(uq)
	q.mu.Unlock()
	q.notify(userID, state)
}

// runSafely turns a panicking runner into a failed job so the user's queue
// keeps draining.
func (q *PublishQueue) runSafely(job *models.PublishJob, onStep func(string)) (mediaID string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("job_id", job.ID).Msg("Publish runner panicked")
			err = errRunnerPanic
		}
	}()
	return q.run(q.ctx, job, onStep)
}

func (q *PublishQueue) user(userID int) *userQueue {
	uq, ok := q.users[userID]
	if !ok {
		uq = &userQueue{}
		q.users[userID] = uq
	}
	return uq
}

// snapshot copies uq; the caller holds q.mu.
func (q *PublishQueue) snapshot(uq *userQueue) models.QueueState {
	state := models.QueueState{
		Queue:        make([]models.PublishJob, len(uq.pending)),
		IsProcessing: uq.current != nil,
		Results:      append([]models.PublishResult{}, uq.results...),
	}
	for i, j := range uq.pending {
		state.Queue[i] = *j
	}
	if uq.current != nil {
		cur := *uq.current
		state.CurrentJob = &cur
	}
	return state
}

func (q *PublishQueue) notify(userID int, state models.QueueState) {
	if q.notifier != nil {
		q.notifier.NotifyQueue(userID, state)
	}
}
