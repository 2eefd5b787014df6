package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pazar_api/internal/metrics"
	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/internal/utils"
	"github.com/GTDGit/pazar_api/pkg/ikas"
)

// IkasService syncs catalog variants from İKAS and pushes prices back.
type IkasService struct {
	settings SettingsStore
	products IkasStore
	tokens   TokenStore
	api      IkasAPI
	metrics  *metrics.Metrics
}

func NewIkasService(settings SettingsStore, products IkasStore, tokens TokenStore, api IkasAPI, m *metrics.Metrics) *IkasService {
	return &IkasService{settings: settings, products: products, tokens: tokens, api: api, metrics: m}
}

// List returns the stored variants.
func (s *IkasService) List(ctx context.Context, userID int) ([]models.IkasProduct, error) {
	return s.products.ListByUser(ctx, userID)
}

// Sync downloads every variant and replaces the user's rows. When İKAS
// returns no variants the stored rows are left untouched.
func (s *IkasService) Sync(ctx context.Context, userID int) ([]models.IkasProduct, error) {
	st, err := s.loadSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	var variants []ikas.Variant
	err = s.withToken(ctx, st, func(token string) error {
		var err error
		variants, err = s.api.ListVariants(ctx, token)
		return err
	})
	s.metrics.ProviderCall("ikas", "list_variants", err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrProvider, err)
	}

	rows := make([]models.IkasProduct, len(variants))
	for i, v := range variants {
		rows[i] = models.IkasProduct{
			UserID:          userID,
			ProductID:       v.ProductID,
			VariantID:       v.VariantID,
			Name:            v.ProductName,
			SKU:             v.SKU,
			Barcode:         v.Barcode,
			NormalPrice:     v.SellPrice,
			DiscountedPrice: v.DiscountPrice,
			BuyPrice:        v.BuyPrice,
		}
	}
	if len(rows) == 0 {
		log.Warn().Int("user_id", userID).Msg("İKAS returned no variants, keeping stored rows")
		return rows, nil
	}

	if err := s.products.Replace(ctx, userID, rows); err != nil {
		return nil, err
	}
	log.Info().Int("user_id", userID).Int("count", len(rows)).Msg("İKAS variants replaced")
	return rows, nil
}

// Push saves variant prices in İKAS. Items without a positive sell price are
// not sent and are reported as failed.
func (s *IkasService) Push(ctx context.Context, userID int, prices []ikas.PriceInput) (*ikas.PushResult, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: no prices to push", utils.ErrInvalidRequest)
	}
	st, err := s.loadSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	valid := make([]ikas.PriceInput, 0, len(prices))
	var rejected []string
	for _, p := range prices {
		if p.ProductID == "" || p.VariantID == "" || !p.SellPrice.IsPositive() {
			rejected = append(rejected, fmt.Sprintf("variant %s: sell price must be positive", p.VariantID))
			continue
		}
		valid = append(valid, p)
	}

	res := &ikas.PushResult{Errors: []string{}}
	if len(valid) > 0 {
		err = s.withToken(ctx, st, func(token string) error {
			r, err := s.api.SaveVariantPrices(ctx, token, valid)
			if r != nil {
				res = r
			}
			return err
		})
		s.metrics.ProviderCall("ikas", "save_variant_prices", err)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", utils.ErrProvider, err)
		}
	}

	res.Failed += len(rejected)
	res.Errors = append(res.Errors, rejected...)
	log.Info().Int("user_id", userID).Int("updated", res.Updated).Int("failed", res.Failed).Msg("İKAS price push finished")
	return res, nil
}

func (s *IkasService) loadSettings(ctx context.Context, userID int) (*models.UserSettings, error) {
	return loadSettings(ctx, s.settings, userID, func(st *models.UserSettings) string {
		if !st.HasIkas() {
			return "ikas client id, client secret and store name are required"
		}
		return ""
	})
}

// withToken runs fn with a cached token. A rejected cached token is dropped
// and fn is retried once with a fresh one.
func (s *IkasService) withToken(ctx context.Context, st *models.UserSettings, fn func(token string) error) error {
	token, cached, err := s.token(ctx, st)
	if err != nil {
		return err
	}
	err = fn(token)
	if err == nil || !cached || !errors.Is(err, ikas.ErrUnauthorized) {
		return err
	}

	if err := s.tokens.InvalidateIkasToken(ctx, st.UserID, st.IkasStoreName); err != nil {
		log.Warn().Err(err).Int("user_id", st.UserID).Msg("İKAS token invalidation failed")
	}
	token, _, err = s.token(ctx, st)
	if err != nil {
		return err
	}
	return fn(token)
}

func (s *IkasService) token(ctx context.Context, st *models.UserSettings) (string, bool, error) {
	if tok, ok, err := s.tokens.GetIkasToken(ctx, st.UserID, st.IkasStoreName); err != nil {
		log.Warn().Err(err).Int("user_id", st.UserID).Msg("İKAS token cache read failed")
	} else if ok {
		return tok, true, nil
	}

	tok, err := s.api.FetchToken(ctx, ikas.Credentials{
		StoreName:    st.IkasStoreName,
		ClientID:     st.IkasClientID,
		ClientSecret: st.IkasClientSecret,
	})
	s.metrics.ProviderCall("ikas", "fetch_token", err)
	if err != nil {
		return "", false, err
	}
	if err := s.tokens.SetIkasToken(ctx, st.UserID, st.IkasStoreName, tok.AccessToken, tok.ExpiresIn); err != nil {
		log.Warn().Err(err).Int("user_id", st.UserID).Msg("İKAS token cache write failed")
	}
	return tok.AccessToken, false, nil
}
