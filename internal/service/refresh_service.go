package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pazar_api/internal/cache"
	"github.com/GTDGit/pazar_api/internal/models"
)

// RefreshService re-downloads storefront feeds and İKAS catalogs for every
// configured user.
type RefreshService struct {
	users     RefreshableStore
	products  *ProductService
	ikas      *IkasService
	summaries RefreshSummaryStore
}

func NewRefreshService(users RefreshableStore, products *ProductService, ikas *IkasService, summaries RefreshSummaryStore) *RefreshService {
	return &RefreshService{users: users, products: products, ikas: ikas, summaries: summaries}
}

// RunAll refreshes each configured user in turn. A user's failure is logged
// and recorded in their summary; it never stops the loop. failed counts users
// with at least one failing source.
func (s *RefreshService) RunAll(ctx context.Context) (refreshed, failed int, err error) {
	users, err := s.users.ListRefreshable(ctx)
	if err != nil {
		return 0, 0, err
	}
	for i := range users {
		if err := ctx.Err(); err != nil {
			return refreshed, failed, err
		}
		sum := s.RefreshUser(ctx, &users[i])
		refreshed++
		if sum.SiteError != "" || sum.IkasError != "" {
			failed++
		}
	}
	return refreshed, failed, nil
}

// RefreshUser refreshes one user's storefront and İKAS tables and caches the
// summary.
func (s *RefreshService) RefreshUser(ctx context.Context, st *models.UserSettings) *cache.RefreshSummary {
	start := time.Now()
	sum := &cache.RefreshSummary{}
	logger := log.With().Int("user_id", st.UserID).Logger()

	if st.SiteProductsAPIURL != "" {
		rows, err := s.products.RefreshSite(ctx, st.UserID)
		if err != nil {
			sum.SiteError = err.Error()
			logger.Warn().Err(err).Msg("Scheduled storefront refresh failed")
		} else {
			sum.SiteCount = len(rows)
		}
	}
	if st.HasIkas() {
		rows, err := s.ikas.Sync(ctx, st.UserID)
		if err != nil {
			sum.IkasError = err.Error()
			logger.Warn().Err(err).Msg("Scheduled İKAS sync failed")
		} else {
			sum.IkasCount = len(rows)
		}
	}

	sum.FinishedAt = time.Now()
	sum.DurationSecs = sum.FinishedAt.Sub(start).Seconds()
	if err := s.summaries.SetRefreshSummary(context.WithoutCancel(ctx), st.UserID, sum); err != nil {
		logger.Warn().Err(err).Msg("Refresh summary not cached")
	}
	logger.Info().Int("site", sum.SiteCount).Int("ikas", sum.IkasCount).Msg("Scheduled refresh finished")
	return sum
}

// LastSummary returns the cached summary of the last scheduled refresh.
func (s *RefreshService) LastSummary(ctx context.Context, userID int) (*cache.RefreshSummary, error) {
	return s.summaries.GetRefreshSummary(ctx, userID)
}
