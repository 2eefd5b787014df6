package models

import "time"

// JobStatus is the lifecycle state of an in-memory publish job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusSuccess    JobStatus = "success"
	JobStatusFailed     JobStatus = "failed"
)

// MaxPublishImages is the Instagram carousel limit.
const MaxPublishImages = 10

// UserTag places an account tag on a single-image post. X and Y are 0..1.
type UserTag struct {
	Username string  `json:"username" binding:"required"`
	X        float64 `json:"x" binding:"gte=0,lte=1"`
	Y        float64 `json:"y" binding:"gte=0,lte=1"`
}

// PublishJob is a queued Instagram post. Never persisted.
type PublishJob struct {
	ID               string     `json:"id"`
	UserID           int        `json:"-"`
	ImageURLs        []string   `json:"imageUrls"`
	Caption          string     `json:"caption"`
	LocationID       string     `json:"locationId,omitempty"`
	UserTags         []UserTag  `json:"userTags,omitempty"`
	GroupedProductID *int       `json:"groupedProductId,omitempty"`
	ProductName      string     `json:"productName,omitempty"`
	Status           JobStatus  `json:"status"`
	Step             string     `json:"step,omitempty"`
	EnqueuedAt       time.Time  `json:"enqueuedAt"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
}

// PublishResult is the terminal record of a job, kept for display.
type PublishResult struct {
	JobID       string    `json:"jobId"`
	ProductName string    `json:"productName"`
	Status      JobStatus `json:"status"`
	Message     string    `json:"message"`
	MediaID     string    `json:"mediaId,omitempty"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// QueueState is a snapshot of one user's publish queue.
type QueueState struct {
	Queue        []PublishJob    `json:"queue"`
	CurrentJob   *PublishJob     `json:"currentJob"`
	IsProcessing bool            `json:"isProcessing"`
	Results      []PublishResult `json:"results"`
}
