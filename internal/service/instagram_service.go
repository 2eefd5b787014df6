package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pazar_api/internal/catalog"
	"github.com/GTDGit/pazar_api/internal/metrics"
	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/internal/utils"
	"github.com/GTDGit/pazar_api/pkg/instagram"
)

const channelInstagram = "instagram"

// PublishRequest is the body of an Instagram publish call.
type PublishRequest struct {
	ImageURLs        []string         `json:"imageUrls" binding:"required,min=1,max=10,dive,httpurl"`
	Caption          string           `json:"caption" binding:"max=2200"`
	LocationID       string           `json:"locationId"`
	UserTags         []models.UserTag `json:"userTags" binding:"omitempty,max=20,dive"`
	GroupedProductID *int             `json:"groupedProductId"`
	ProductName      string           `json:"productName"`
}

// InstagramService validates publish requests and hands them to the queue.
type InstagramService struct {
	settings SettingsStore
	logs     PublishLogStore
	queue    PublishQueue
}

func NewInstagramService(settings SettingsStore, logs PublishLogStore, queue PublishQueue) *InstagramService {
	return &InstagramService{settings: settings, logs: logs, queue: queue}
}

// Enqueue checks the post and the user's credentials and queues the job.
// Posts with no image or more than ten are rejected here.
func (s *InstagramService) Enqueue(ctx context.Context, userID int, req PublishRequest) (string, error) {
	if n := len(req.ImageURLs); n == 0 || n > models.MaxPublishImages {
		return "", fmt.Errorf("%w: a post needs 1 to %d images, got %d", utils.ErrInvalidRequest, models.MaxPublishImages, n)
	}
	images := catalog.CleanImageURLs(req.ImageURLs)
	if len(images) != len(req.ImageURLs) {
		return "", fmt.Errorf("%w: image urls must not be empty", utils.ErrInvalidRequest)
	}
	if _, err := loadInstagramSettings(ctx, s.settings, userID); err != nil {
		return "", err
	}

	name := strings.TrimSpace(req.ProductName)
	if name == "" {
		name = captionTitle(req.Caption)
	}
	job := &models.PublishJob{
		ID:               uuid.NewString(),
		UserID:           userID,
		ImageURLs:        images,
		Caption:          req.Caption,
		LocationID:       strings.TrimSpace(req.LocationID),
		UserTags:         req.UserTags,
		GroupedProductID: req.GroupedProductID,
		ProductName:      name,
		Status:           models.JobStatusQueued,
		EnqueuedAt:       time.Now(),
	}
	id := s.queue.Enqueue(job)
	log.Info().Int("user_id", userID).Str("job_id", id).Int("images", len(images)).Msg("Instagram job queued")
	return id, nil
}

func (s *InstagramService) QueueState(userID int) models.QueueState {
	return s.queue.State(userID)
}

func (s *InstagramService) ClearResults(userID int) {
	s.queue.ClearResults(userID)
}

// SentItems returns the grouped product ids already published.
func (s *InstagramService) SentItems(ctx context.Context, userID int) ([]int, error) {
	items, err := s.logs.ListInstagramSent(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	return ids, nil
}

// InstagramRunner executes one queued job and records its outcome.
type InstagramRunner struct {
	settings  SettingsStore
	logs      PublishLogStore
	publisher InstagramPublisher
	metrics   *metrics.Metrics
}

func NewInstagramRunner(settings SettingsStore, logs PublishLogStore, publisher InstagramPublisher, m *metrics.Metrics) *InstagramRunner {
	return &InstagramRunner{settings: settings, logs: logs, publisher: publisher, metrics: m}
}

// Run publishes job and writes its log row. On success the originating
// grouped product is marked as sent. onStep receives state labels.
func (r *InstagramRunner) Run(ctx context.Context, job *models.PublishJob, onStep func(step string)) (string, error) {
	mediaID, err := r.publish(ctx, job, onStep)

	entry := &models.InstagramPublishLog{
		UserID:           job.UserID,
		JobID:            job.ID,
		ProductName:      job.ProductName,
		GroupedProductID: job.GroupedProductID,
		ImageCount:       len(job.ImageURLs),
		Status:           models.LogStatusSuccess,
	}
	if err != nil {
		m := err.Error()
		entry.Status = models.LogStatusFailed
		entry.ErrorMessage = &m
	} else {
		entry.MediaID = &mediaID
	}

	bg := context.WithoutCancel(ctx)
	if lerr := r.logs.CreateInstagramLog(bg, entry); lerr != nil {
		log.Error().Err(lerr).Str("job_id", job.ID).Msg("Instagram log not written")
	}
	if err == nil && job.GroupedProductID != nil {
		if merr := r.logs.MarkInstagramSent(bg, job.UserID, *job.GroupedProductID); merr != nil {
			log.Error().Err(merr).Str("job_id", job.ID).Msg("Sent marker not written")
		}
	}
	r.metrics.PublishFinished(channelInstagram, entry.Status)
	return mediaID, err
}

func (r *InstagramRunner) publish(ctx context.Context, job *models.PublishJob, onStep func(string)) (string, error) {
	st, err := loadInstagramSettings(ctx, r.settings, job.UserID)
	if err != nil {
		return "", err
	}

	post := instagram.Post{
		ImageURLs:  job.ImageURLs,
		Caption:    job.Caption,
		LocationID: job.LocationID,
	}
	for _, t := range job.UserTags {
		post.UserTags = append(post.UserTags, instagram.UserTag{Username: t.Username, X: t.X, Y: t.Y})
	}
	creds := instagram.Credentials{AccountID: st.InstagramAccountID, AccessToken: st.InstagramAccessToken}

	mediaID, err := r.publisher.Publish(ctx, creds, post, func(p instagram.Progress) {
		if onStep != nil {
			onStep(stepLabel(p))
		}
	})
	r.metrics.ProviderCall(channelInstagram, "publish", err)
	return mediaID, err
}

func stepLabel(p instagram.Progress) string {
	if p.Total > 0 {
		return fmt.Sprintf("%s %d/%d", p.Step, p.Item, p.Total)
	}
	return string(p.Step)
}

func loadInstagramSettings(ctx context.Context, store SettingsStore, userID int) (*models.UserSettings, error) {
	return loadSettings(ctx, store, userID, func(st *models.UserSettings) string {
		if !st.HasInstagram() {
			return "instagram access token and account id are required"
		}
		return ""
	})
}

// captionTitle is the first caption line, shortened for display.
func captionTitle(caption string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(caption), "\n")
	line = strings.TrimSpace(line)
	if r := []rune(line); len(r) > 60 {
		line = string(r[:60]) + "…"
	}
	if line == "" {
		return "Instagram gönderisi"
	}
	return line
}
