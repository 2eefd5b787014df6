// Package instagram drives the Instagram Graph API content publishing flow:
// media containers, status polling and publish, for single posts and
// carousels.
package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pazar_api/pkg/retry"
)

// DefaultBaseURL is the pinned Graph API version.
const DefaultBaseURL = "https://graph.facebook.com/v18.0"

// Container status codes reported by the Graph API.
const (
	StatusFinished   = "FINISHED"
	StatusError      = "ERROR"
	StatusInProgress = "IN_PROGRESS"
)

// Credentials identify the Instagram business account.
type Credentials struct {
	AccountID   string
	AccessToken string
}

// UserTag tags an account on a single-image post. X and Y are in 0..1.
type UserTag struct {
	Username string  `json:"username"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// ContainerParams is the body of a media container request.
type ContainerParams struct {
	ImageURL       string `json:"image_url,omitempty"`
	Caption        string `json:"caption,omitempty"`
	LocationID     string `json:"location_id,omitempty"`
	UserTags       string `json:"user_tags,omitempty"`
	IsCarouselItem bool   `json:"is_carousel_item,omitempty"`
	MediaType      string `json:"media_type,omitempty"`
	Children       string `json:"children,omitempty"`
	AccessToken    string `json:"access_token"`
}

type publishParams struct {
	CreationID  string `json:"creation_id"`
	AccessToken string `json:"access_token"`
}

type idResponse struct {
	ID    string    `json:"id"`
	Error *APIError `json:"error"`
}

type statusResponse struct {
	StatusCode string    `json:"status_code"`
	Status     string    `json:"status"`
	Error      *APIError `json:"error"`
}

// Client is a thin Graph API client. Container and publish calls are
// retried on network failures and transient API errors.
type Client struct {
	http    *resty.Client
	baseURL string
	policy  retry.Policy
	debug   bool
}

// NewClient constructs a client. retryBase is the first backoff delay.
func NewClient(baseURL string, retryBase time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if retryBase <= 0 {
		retryBase = 2 * time.Second
	}
	return &Client{
		http:    resty.New().SetTimeout(60 * time.Second),
		baseURL: baseURL,
		policy:  retry.DefaultPolicy(retryBase),
		debug:   os.Getenv("ENV") == "development",
	}
}

// CreateContainer creates a media container and returns its id.
func (c *Client) CreateContainer(ctx context.Context, creds Credentials, params ContainerParams) (string, error) {
	params.AccessToken = creds.AccessToken
	return c.postForID(ctx, fmt.Sprintf("%s/%s/media", c.baseURL, creds.AccountID), params)
}

// Publish publishes a ready container and returns the media id.
func (c *Client) Publish(ctx context.Context, creds Credentials, creationID string) (string, error) {
	body := publishParams{CreationID: creationID, AccessToken: creds.AccessToken}
	return c.postForID(ctx, fmt.Sprintf("%s/%s/media_publish", c.baseURL, creds.AccountID), body)
}

// ContainerStatus returns the container's status_code and status text.
// It is not retried; callers poll.
func (c *Client) ContainerStatus(ctx context.Context, creds Credentials, containerID string) (string, string, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, containerID)
	c.logRequest("GET", url)

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"fields":       "status_code,status",
			"access_token": creds.AccessToken,
		}).
		Get(url)
	if err != nil {
		return "", "", fmt.Errorf("instagram status request failed: %w", err)
	}
	var out statusResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", "", fmt.Errorf("instagram status decode: %w", err)
	}
	if out.Error != nil {
		out.Error.HTTPStatus = resp.StatusCode()
		return "", "", out.Error
	}
	return out.StatusCode, out.Status, nil
}

func (c *Client) postForID(ctx context.Context, url string, body any) (string, error) {
	var id string
	err := retry.Do(ctx, c.withRetryLog(url), func(ctx context.Context, attempt int) error {
		c.logRequest("POST", url)
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			Post(url)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Permanent(ctx.Err())
			}
			return fmt.Errorf("instagram request failed: %w", err)
		}

		var out idResponse
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			err = fmt.Errorf("instagram decode (%d): %w", resp.StatusCode(), err)
			// Gateway pages from the edge are retried like network failures.
			if resp.StatusCode() >= http.StatusInternalServerError {
				return err
			}
			return retry.Permanent(err)
		}
		if out.Error != nil {
			out.Error.HTTPStatus = resp.StatusCode()
			if out.Error.Transient() {
				return out.Error
			}
			return retry.Permanent(out.Error)
		}
		if out.ID == "" {
			return retry.Permanent(ErrMissingContainerID)
		}
		id = out.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (c *Client) withRetryLog(url string) retry.Policy {
	p := c.policy
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		log.Warn().Err(err).Str("url", url).Int("attempt", attempt+1).Dur("delay", delay).
			Msg("[INSTAGRAM] transient error, retrying")
	}
	return p
}

func (c *Client) logRequest(method, url string) {
	if !c.debug {
		return
	}
	log.Debug().Str("method", method).Str("url", url).Msg("[INSTAGRAM] Outgoing request")
}
