package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// tokenSafetyMargin is subtracted from the provider's expires_in.
const tokenSafetyMargin = 60 * time.Second

// RefreshSummary is the outcome of the last scheduled refresh for a user.
type RefreshSummary struct {
	SiteCount    int       `json:"siteCount"`
	IkasCount    int       `json:"ikasCount"`
	SiteError    string    `json:"siteError,omitempty"`
	IkasError    string    `json:"ikasError,omitempty"`
	FinishedAt   time.Time `json:"finishedAt"`
	DurationSecs float64   `json:"durationSecs"`
}

// TokenCache stores İKAS access tokens and refresh summaries per user.
type TokenCache struct {
	redis *RedisClient
}

// NewTokenCache creates a new TokenCache.
func NewTokenCache(redis *RedisClient) *TokenCache {
	return &TokenCache{redis: redis}
}

func (c *TokenCache) keyIkasToken(userID int, store string) string {
	return fmt.Sprintf("ikas:token:%d:%s", userID, store)
}

func (c *TokenCache) keyRefresh(userID int) string {
	return fmt.Sprintf("refresh:summary:%d", userID)
}

// GetIkasToken returns a cached token, or ok=false when none is cached.
func (c *TokenCache) GetIkasToken(ctx context.Context, userID int, store string) (string, bool, error) {
	token, err := c.redis.Get(ctx, c.keyIkasToken(userID, store))
	if errors.Is(err, ErrCacheMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// SetIkasToken caches a token for expiresIn minus a one-minute margin.
// Tokens that would expire within the margin are not cached.
func (c *TokenCache) SetIkasToken(ctx context.Context, userID int, store, token string, expiresIn time.Duration) error {
	ttl := expiresIn - tokenSafetyMargin
	if ttl <= 0 {
		return nil
	}
	return c.redis.Set(ctx, c.keyIkasToken(userID, store), token, ttl)
}

// InvalidateIkasToken drops a cached token, e.g. after a 401.
func (c *TokenCache) InvalidateIkasToken(ctx context.Context, userID int, store string) error {
	return c.redis.Delete(ctx, c.keyIkasToken(userID, store))
}

// SetRefreshSummary stores the last refresh summary for a week.
func (c *TokenCache) SetRefreshSummary(ctx context.Context, userID int, s *RefreshSummary) error {
	return c.redis.SetJSON(ctx, c.keyRefresh(userID), s, 7*24*time.Hour)
}

// GetRefreshSummary returns the last refresh summary or ErrCacheMiss.
func (c *TokenCache) GetRefreshSummary(ctx context.Context, userID int) (*RefreshSummary, error) {
	var s RefreshSummary
	if err := c.redis.GetJSON(ctx, c.keyRefresh(userID), &s); err != nil {
		return nil, err
	}
	return &s, nil
}
