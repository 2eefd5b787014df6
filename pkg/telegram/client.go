// Package telegram sends product posts through the Telegram Bot API as a
// photo media group, falling back to a plain text message.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pazar_api/pkg/retry"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// MaxMediaGroup is the Bot API limit for one media group.
const MaxMediaGroup = 10

const defaultRetryAfter = 30 * time.Second

// ErrNoContent is returned when there is neither a photo nor text to send.
var ErrNoContent = errors.New("telegram: nothing to send")

// APIError is a Bot API error reply.
type APIError struct {
	HTTPStatus  int
	ErrorCode   int
	Description string
	RetryAfterS int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram error %d: %s", e.ErrorCode, e.Description)
}

// RateLimited reports whether the bot hit the flood limit.
func (e *APIError) RateLimited() bool {
	return e.ErrorCode == 429 || e.HTTPStatus == 429
}

// RetryAfter is the wait advertised in parameters.retry_after, 30s when the
// reply does not carry one. Zero for non rate-limit errors.
func (e *APIError) RetryAfter() time.Duration {
	if !e.RateLimited() {
		return 0
	}
	if e.RetryAfterS > 0 {
		return time.Duration(e.RetryAfterS) * time.Second
	}
	return defaultRetryAfter
}

// Photo is a downloaded image ready for upload.
type Photo struct {
	URL  string
	Data []byte
}

// Message is one product post.
type Message struct {
	Text      string
	ImageURLs []string
}

// Result describes what was actually delivered.
type Result struct {
	Photos   int
	TextOnly bool
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

type inputMediaPhoto struct {
	Type    string `json:"type"`
	Media   string `json:"media"`
	Caption string `json:"caption,omitempty"`
}

// Client talks to the Bot API. Sends are retried with exponential backoff,
// and flood-limit replies wait for the advertised retry_after.
type Client struct {
	http       *resty.Client
	downloader *resty.Client
	baseURL    string
	policy     retry.Policy
	debug      bool
}

// NewClient constructs a client. downloadTimeout bounds each image fetch.
func NewClient(baseURL string, retryBase, downloadTimeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if retryBase <= 0 {
		retryBase = 3 * time.Second
	}
	if downloadTimeout <= 0 {
		downloadTimeout = 15 * time.Second
	}
	return &Client{
		http:       resty.New().SetTimeout(120 * time.Second),
		downloader: resty.New().SetTimeout(downloadTimeout),
		baseURL:    baseURL,
		policy:     retry.DefaultPolicy(retryBase),
		debug:      os.Getenv("ENV") == "development",
	}
}

// Send downloads the message images and posts them as one media group with
// the text as caption of the first photo. When no image could be downloaded
// the text is sent alone.
func (c *Client) Send(ctx context.Context, token, chatID string, msg Message) (Result, error) {
	photos := c.DownloadImages(ctx, msg.ImageURLs)
	if len(photos) == 0 {
		if msg.Text == "" {
			return Result{}, ErrNoContent
		}
		return Result{TextOnly: true}, c.SendMessage(ctx, token, chatID, msg.Text)
	}
	if err := c.SendMediaGroup(ctx, token, chatID, photos, msg.Text); err != nil {
		return Result{}, err
	}
	return Result{Photos: len(photos)}, nil
}

// DownloadImages fetches up to MaxMediaGroup images. Failed downloads are
// logged and skipped.
func (c *Client) DownloadImages(ctx context.Context, urls []string) []Photo {
	photos := make([]Photo, 0, min(len(urls), MaxMediaGroup))
	for _, u := range urls {
		if len(photos) == MaxMediaGroup {
			break
		}
		resp, err := c.downloader.R().SetContext(ctx).Get(u)
		if err != nil {
			log.Warn().Err(err).Str("url", u).Msg("[TELEGRAM] image download failed")
			continue
		}
		if !resp.IsSuccess() || len(resp.Body()) == 0 {
			log.Warn().Int("status", resp.StatusCode()).Str("url", u).Msg("[TELEGRAM] image download failed")
			continue
		}
		photos = append(photos, Photo{URL: u, Data: resp.Body()})
	}
	return photos
}

// SendMediaGroup uploads photos as attachments of a single media group.
func (c *Client) SendMediaGroup(ctx context.Context, token, chatID string, photos []Photo, caption string) error {
	if len(photos) == 0 {
		return ErrNoContent
	}
	if len(photos) > MaxMediaGroup {
		photos = photos[:MaxMediaGroup]
	}

	media := make([]inputMediaPhoto, len(photos))
	for i := range photos {
		media[i] = inputMediaPhoto{Type: "photo", Media: fmt.Sprintf("attach://photo%d", i)}
	}
	media[0].Caption = caption
	mediaJSON, err := json.Marshal(media)
	if err != nil {
		return fmt.Errorf("telegram media encode: %w", err)
	}

	return c.call(ctx, token, "sendMediaGroup", func(r *resty.Request) {
		r.SetMultipartFormData(map[string]string{
			"chat_id": chatID,
			"media":   string(mediaJSON),
		})
		for i, p := range photos {
			name := fmt.Sprintf("photo%d", i)
			r.SetFileReader(name, name+".jpg", bytes.NewReader(p.Data))
		}
	})
}

// SendMessage sends a plain text message.
func (c *Client) SendMessage(ctx context.Context, token, chatID, text string) error {
	return c.call(ctx, token, "sendMessage", func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json").
			SetBody(map[string]string{"chat_id": chatID, "text": text})
	})
}

func (c *Client) call(ctx context.Context, token, method string, build func(*resty.Request)) error {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, token, method)
	return retry.Do(ctx, c.withRetryLog(method), func(ctx context.Context, attempt int) error {
		if c.debug {
			log.Debug().Str("method", method).Int("attempt", attempt+1).Msg("[TELEGRAM] Outgoing request")
		}
		req := c.http.R().SetContext(ctx)
		build(req)
		resp, err := req.Post(url)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Permanent(ctx.Err())
			}
			return fmt.Errorf("telegram %s failed: %w", method, err)
		}

		var out apiResponse
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return fmt.Errorf("telegram %s decode (%d): %w", method, resp.StatusCode(), err)
		}
		if out.OK {
			return nil
		}

		apiErr := &APIError{HTTPStatus: resp.StatusCode(), ErrorCode: out.ErrorCode, Description: out.Description}
		if out.Parameters != nil {
			apiErr.RetryAfterS = out.Parameters.RetryAfter
		}
		if apiErr.RateLimited() || resp.StatusCode() >= 500 {
			return apiErr
		}
		return retry.Permanent(apiErr)
	})
}

func (c *Client) withRetryLog(method string) retry.Policy {
	p := c.policy
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		log.Warn().Err(err).Str("method", method).Int("attempt", attempt+1).Dur("delay", delay).
			Msg("[TELEGRAM] send failed, retrying")
	}
	return p
}
