package handler

import (
	"context"
	"io"

	"github.com/GTDGit/pazar_api/internal/cache"
	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/internal/pricing"
	"github.com/GTDGit/pazar_api/internal/service"
	"github.com/GTDGit/pazar_api/pkg/ikas"
)

type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
}

type SettingsService interface {
	Get(ctx context.Context, userID int) (*models.UserSettings, error)
	Save(ctx context.Context, userID int, st *models.UserSettings) (*models.UserSettings, error)
}

type ProductService interface {
	ListTrendyol(ctx context.Context, userID int) ([]models.TrendyolProduct, error)
	ScrapeTrendyol(ctx context.Context, userID int) ([]models.TrendyolProduct, error)
	UpdateTrendyolLinks(ctx context.Context, userID int) (*service.LinkUpdateResult, error)
	ListSite(ctx context.Context, userID int) ([]models.SiteProduct, error)
	RefreshSite(ctx context.Context, userID int) ([]models.SiteProduct, error)
	UpdateSitePrice(ctx context.Context, userID int, u service.PriceUpdate) (string, error)
	UpdateSitePrices(ctx context.Context, userID int, updates []service.PriceUpdate) (*service.BulkPriceResult, error)
}

type IkasService interface {
	List(ctx context.Context, userID int) ([]models.IkasProduct, error)
	Sync(ctx context.Context, userID int) ([]models.IkasProduct, error)
	Push(ctx context.Context, userID int, prices []ikas.PriceInput) (*ikas.PushResult, error)
}

type MatchingService interface {
	List(ctx context.Context, userID int) ([]models.MatchingRow, error)
	Clear(ctx context.Context, userID int) (int64, error)
	Upload(ctx context.Context, userID int, filename string, r io.Reader) (*service.MappingUploadResult, error)
	Suggestions(ctx context.Context, userID int) ([]models.MappingSuggestion, error)
}

type MatchService interface {
	Compare(ctx context.Context, userID int) ([]pricing.MatchResult, error)
	Export(ctx context.Context, userID int) ([]pricing.CatalogMatchResult, error)
}

type GroupedService interface {
	Preview(filename string, r io.Reader) (*service.SheetPreview, error)
	Upload(ctx context.Context, userID int, filename string, r io.Reader) (*service.GroupUploadResult, error)
	List(ctx context.Context, userID int) ([]models.GroupedProduct, error)
	Delete(ctx context.Context, userID, id int) error
}

type TelegramService interface {
	SendBatch(ctx context.Context, userID int, ids []int, onProgress func(service.TelegramProgress)) (*service.BatchResult, error)
	SendOne(ctx context.Context, userID, id int) error
}

type InstagramService interface {
	Enqueue(ctx context.Context, userID int, req service.PublishRequest) (string, error)
	QueueState(userID int) models.QueueState
	ClearResults(userID int)
	SentItems(ctx context.Context, userID int) ([]int, error)
}

type HistoryService interface {
	List(ctx context.Context, userID int) (*service.HistoryPage, error)
}

type RefreshService interface {
	RefreshUser(ctx context.Context, st *models.UserSettings) *cache.RefreshSummary
	LastSummary(ctx context.Context, userID int) (*cache.RefreshSummary, error)
}
