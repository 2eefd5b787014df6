package models

import "time"

// Publish log statuses.
const (
	LogStatusSuccess = "success"
	LogStatusFailed  = "failed"
)

// TelegramLog is one Telegram send attempt.
type TelegramLog struct {
	ID           int       `db:"id" json:"id"`
	UserID       int       `db:"user_id" json:"-"`
	ProductName  string    `db:"product_name" json:"productName"`
	ProductSlug  string    `db:"product_slug" json:"productSlug"`
	StockCount   *int      `db:"stock_count" json:"stockCount"`
	Status       string    `db:"status" json:"status"`
	ErrorMessage *string   `db:"error_message" json:"errorMessage,omitempty"`
	SentAt       time.Time `db:"sent_at" json:"sentAt"`
}

// InstagramPublishLog is one terminal Instagram publish job.
type InstagramPublishLog struct {
	ID               int       `db:"id" json:"id"`
	UserID           int       `db:"user_id" json:"-"`
	JobID            string    `db:"job_id" json:"jobId"`
	ProductName      string    `db:"product_name" json:"productName"`
	GroupedProductID *int      `db:"grouped_product_id" json:"groupedProductId,omitempty"`
	ImageCount       int       `db:"image_count" json:"imageCount"`
	Status           string    `db:"status" json:"status"`
	MediaID          *string   `db:"media_id" json:"mediaId,omitempty"`
	ErrorMessage     *string   `db:"error_message" json:"errorMessage,omitempty"`
	SentAt           time.Time `db:"sent_at" json:"sentAt"`
}

// InstagramSentItem marks a grouped product as already published.
type InstagramSentItem struct {
	UserID    int       `db:"user_id" json:"-"`
	ProductID int       `db:"product_id" json:"productId"`
	SentAt    time.Time `db:"sent_at" json:"sentAt"`
}

// HistoryEntry is the unified read model over both log tables.
type HistoryEntry struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	ProductName string    `json:"productName"`
	Detail      string    `json:"detail"`
	StockCount  *int      `json:"stockCount"`
	Status      string    `json:"status"`
	SentAt      time.Time `json:"sentAt"`
}

// HistoryCounts summarises a history page per channel.
type HistoryCounts struct {
	Total     int `json:"total"`
	Telegram  int `json:"telegram"`
	Instagram int `json:"instagram"`
}
