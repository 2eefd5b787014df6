package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/pazar_api/internal/cache"
	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/internal/repository"
	"github.com/GTDGit/pazar_api/pkg/ikas"
	"github.com/GTDGit/pazar_api/pkg/instagram"
	"github.com/GTDGit/pazar_api/pkg/storefront"
	"github.com/GTDGit/pazar_api/pkg/telegram"
	"github.com/GTDGit/pazar_api/pkg/trendyol"
)

// Storage and provider contracts used by the services. The repository and
// pkg clients satisfy them; tests use in-memory fakes.

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type SettingsStore interface {
	Get(ctx context.Context, userID int) (*models.UserSettings, error)
	Upsert(ctx context.Context, s *models.UserSettings) error
}

type RefreshableStore interface {
	ListRefreshable(ctx context.Context) ([]models.UserSettings, error)
}

type RefreshSummaryStore interface {
	SetRefreshSummary(ctx context.Context, userID int, s *cache.RefreshSummary) error
	GetRefreshSummary(ctx context.Context, userID int) (*cache.RefreshSummary, error)
}

type TrendyolStore interface {
	ListByUser(ctx context.Context, userID int) ([]models.TrendyolProduct, error)
	Replace(ctx context.Context, userID int, rows []models.TrendyolProduct) error
	UpdateLinks(ctx context.Context, userID int, updates []repository.LinkUpdate) (updated, deleted int, err error)
}

type SiteStore interface {
	ListByUser(ctx context.Context, userID int) ([]models.SiteProduct, error)
	Replace(ctx context.Context, userID int, rows []models.SiteProduct) error
	UpdatePrice(ctx context.Context, userID int, trendyolKey, price string) error
}

type IkasStore interface {
	ListByUser(ctx context.Context, userID int) ([]models.IkasProduct, error)
	Replace(ctx context.Context, userID int, rows []models.IkasProduct) error
}

type MatchingStore interface {
	ListByUser(ctx context.Context, userID int) ([]models.MatchingRow, error)
	Replace(ctx context.Context, userID int, rows []models.MatchingRow) error
	DeleteAll(ctx context.Context, userID int) (int64, error)
}

type GroupedStore interface {
	ListByUser(ctx context.Context, userID int) ([]models.GroupedProduct, error)
	GetByID(ctx context.Context, userID, id int) (*models.GroupedProduct, error)
	GetByIDs(ctx context.Context, userID int, ids []int) ([]models.GroupedProduct, error)
	UpsertMany(ctx context.Context, userID int, products []models.GroupedProduct) error
	Delete(ctx context.Context, userID, id int) error
}

type PublishLogStore interface {
	CreateTelegramLog(ctx context.Context, l *models.TelegramLog) error
	ListTelegramLogs(ctx context.Context, userID, limit int) ([]models.TelegramLog, error)
	CreateInstagramLog(ctx context.Context, l *models.InstagramPublishLog) error
	ListInstagramLogs(ctx context.Context, userID, limit int) ([]models.InstagramPublishLog, error)
	MarkInstagramSent(ctx context.Context, userID, productID int) error
	ListInstagramSent(ctx context.Context, userID int) ([]models.InstagramSentItem, error)
}

type TokenStore interface {
	GetIkasToken(ctx context.Context, userID int, store string) (string, bool, error)
	SetIkasToken(ctx context.Context, userID int, store, token string, expiresIn time.Duration) error
	InvalidateIkasToken(ctx context.Context, userID int, store string) error
}

type ListingScraper interface {
	Scrape(ctx context.Context, targetURL string) ([]trendyol.Listing, error)
}

type StorefrontAPI interface {
	FetchProducts(ctx context.Context, feedURL string) ([]storefront.Product, error)
	UpdatePrice(ctx context.Context, updateURL, trendyolKey string, price decimal.Decimal) (string, error)
}

type IkasAPI interface {
	FetchToken(ctx context.Context, creds ikas.Credentials) (*ikas.Token, error)
	ListVariants(ctx context.Context, accessToken string) ([]ikas.Variant, error)
	SaveVariantPrices(ctx context.Context, accessToken string, items []ikas.PriceInput) (*ikas.PushResult, error)
}

type TelegramAPI interface {
	Send(ctx context.Context, token, chatID string, msg telegram.Message) (telegram.Result, error)
}

type InstagramPublisher interface {
	Publish(ctx context.Context, creds instagram.Credentials, post instagram.Post, onProgress func(instagram.Progress)) (string, error)
}

// PublishQueue serializes publish jobs per user.
type PublishQueue interface {
	Enqueue(job *models.PublishJob) string
	State(userID int) models.QueueState
	ClearResults(userID int)
}
