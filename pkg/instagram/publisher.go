package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pazar_api/pkg/retry"
)

// MaxImages is the carousel limit.
const MaxImages = 10

// Step names a state of the publish flow.
type Step string

const (
	StepCreated          Step = "created"
	StepItemContainer    Step = "item_container_pending"
	StepItemReady        Step = "item_container_ready"
	StepContainerPending Step = "container_pending"
	StepContainerReady   Step = "container_ready"
	StepPublishing       Step = "publishing"
	StepPublished        Step = "published"
	StepFailed           Step = "failed"
)

// Post is one Instagram post: a single image or a 2-10 image carousel.
type Post struct {
	ImageURLs  []string
	Caption    string
	LocationID string
	UserTags   []UserTag
}

// Progress reports a state transition. Item and Total are set on carousel
// item steps (Item is 1-based).
type Progress struct {
	Step  Step
	Item  int
	Total int
}

// Publisher runs the container, poll and publish protocol.
type Publisher struct {
	client         *Client
	interItemDelay time.Duration
	pollInterval   time.Duration
	pollTimeout    time.Duration

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// PublisherConfig holds the pacing of a Publisher.
type PublisherConfig struct {
	InterItemDelay time.Duration
	PollInterval   time.Duration
	PollTimeout    time.Duration
}

// NewPublisher constructs a Publisher. Zero durations fall back to 3s
// inter-item delay, 3s poll interval and 90s poll timeout.
func NewPublisher(client *Client, cfg PublisherConfig) *Publisher {
	if cfg.InterItemDelay <= 0 {
		cfg.InterItemDelay = 3 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 90 * time.Second
	}
	return &Publisher{
		client:         client,
		interItemDelay: cfg.InterItemDelay,
		pollInterval:   cfg.PollInterval,
		pollTimeout:    cfg.PollTimeout,
		sleep:          retry.Sleep,
		now:            time.Now,
	}
}

// ValidatePost checks the image count and URLs.
func ValidatePost(post Post) error {
	if len(post.ImageURLs) == 0 || len(post.ImageURLs) > MaxImages {
		return ErrInvalidPost
	}
	for i, u := range post.ImageURLs {
		if strings.TrimSpace(u) == "" {
			return fmt.Errorf("%w: image %d is empty", ErrInvalidPost, i+1)
		}
	}
	return nil
}

// Publish drives post to a terminal state and returns the published media id.
// Failures are *StepError values naming the step and, where relevant, the
// image. onProgress may be nil.
func (p *Publisher) Publish(ctx context.Context, creds Credentials, post Post, onProgress func(Progress)) (string, error) {
	if onProgress == nil {
		onProgress = func(Progress) {}
	}
	if err := ValidatePost(post); err != nil {
		return "", &StepError{Step: StepCreated, Err: err}
	}
	onProgress(Progress{Step: StepCreated})

	var creationID string
	var err error
	if len(post.ImageURLs) == 1 {
		creationID, err = p.singleContainer(ctx, creds, post, onProgress)
	} else {
		creationID, err = p.carouselContainer(ctx, creds, post, onProgress)
	}
	if err != nil {
		onProgress(Progress{Step: StepFailed})
		return "", err
	}

	onProgress(Progress{Step: StepPublishing})
	mediaID, err := p.client.Publish(ctx, creds, creationID)
	if err != nil {
		onProgress(Progress{Step: StepFailed})
		return "", &StepError{Step: StepPublishing, Err: err}
	}
	onProgress(Progress{Step: StepPublished})
	return mediaID, nil
}

func (p *Publisher) singleContainer(ctx context.Context, creds Credentials, post Post, onProgress func(Progress)) (string, error) {
	params := ContainerParams{
		ImageURL:   post.ImageURLs[0],
		Caption:    post.Caption,
		LocationID: post.LocationID,
	}
	if len(post.UserTags) > 0 {
		tags, err := json.Marshal(post.UserTags)
		if err != nil {
			return "", &StepError{Step: StepContainerPending, Image: 1, Err: err}
		}
		params.UserTags = string(tags)
	}

	onProgress(Progress{Step: StepContainerPending})
	id, err := p.client.CreateContainer(ctx, creds, params)
	if err != nil {
		return "", &StepError{Step: StepContainerPending, Image: 1, Err: err}
	}
	if err := p.waitReady(ctx, creds, id, "single"); err != nil {
		return "", &StepError{Step: StepContainerPending, Image: 1, Err: err}
	}
	onProgress(Progress{Step: StepContainerReady})
	return id, nil
}

func (p *Publisher) carouselContainer(ctx context.Context, creds Credentials, post Post, onProgress func(Progress)) (string, error) {
	total := len(post.ImageURLs)
	children := make([]string, 0, total)

	for i, imageURL := range post.ImageURLs {
		if i > 0 {
			if err := p.sleep(ctx, p.interItemDelay); err != nil {
				return "", &StepError{Step: StepItemContainer, Image: i + 1, Err: err}
			}
		}
		onProgress(Progress{Step: StepItemContainer, Item: i + 1, Total: total})
		id, err := p.client.CreateContainer(ctx, creds, ContainerParams{
			ImageURL:       imageURL,
			IsCarouselItem: true,
		})
		if err != nil {
			return "", &StepError{Step: StepItemContainer, Image: i + 1, Err: err}
		}
		children = append(children, id)
	}

	for i, id := range children {
		if err := p.waitReady(ctx, creds, id, fmt.Sprintf("item %d/%d", i+1, total)); err != nil {
			return "", &StepError{Step: StepItemContainer, Image: i + 1, Err: err}
		}
		onProgress(Progress{Step: StepItemReady, Item: i + 1, Total: total})
	}

	onProgress(Progress{Step: StepContainerPending})
	id, err := p.client.CreateContainer(ctx, creds, ContainerParams{
		MediaType: "CAROUSEL",
		Children:  strings.Join(children, ","),
		Caption:   post.Caption,
	})
	if err != nil {
		return "", &StepError{Step: StepContainerPending, Err: err}
	}
	if err := p.waitReady(ctx, creds, id, "carousel"); err != nil {
		return "", &StepError{Step: StepContainerPending, Err: err}
	}
	onProgress(Progress{Step: StepContainerReady})
	return id, nil
}

// waitReady polls until FINISHED, ERROR or the poll timeout. A timeout is
// not an error: the caller proceeds and lets publish decide. Failed status
// requests are logged and polling continues.
func (p *Publisher) waitReady(ctx context.Context, creds Credentials, containerID, label string) error {
	deadline := p.now().Add(p.pollTimeout)
	for p.now().Before(deadline) {
		code, status, err := p.client.ContainerStatus(ctx, creds, containerID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Str("container", containerID).Str("label", label).
				Msg("[INSTAGRAM] status check failed, continuing")
		case code == StatusFinished:
			return nil
		case code == StatusError:
			if status == "" {
				status = "unknown error"
			}
			return fmt.Errorf("%w: %s", ErrMediaProcessing, status)
		}

		if err := p.sleep(ctx, p.pollInterval); err != nil {
			return err
		}
	}
	log.Warn().Str("container", containerID).Str("label", label).Dur("timeout", p.pollTimeout).
		Msg("[INSTAGRAM] status poll timed out, publishing anyway")
	return nil
}
