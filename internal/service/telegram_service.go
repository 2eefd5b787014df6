package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pazar_api/internal/catalog"
	"github.com/GTDGit/pazar_api/internal/metrics"
	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/internal/utils"
	"github.com/GTDGit/pazar_api/pkg/retry"
	"github.com/GTDGit/pazar_api/pkg/telegram"
)

const channelTelegram = "telegram"

// TelegramProgress is reported after each product of a batch.
type TelegramProgress struct {
	Current     int    `json:"current"`
	Total       int    `json:"total"`
	Percent     int    `json:"percent"`
	ProductName string `json:"productName"`
	Status      string `json:"status"`
}

// BatchResult counts the outcome of a batch send.
type BatchResult struct {
	SuccessCount int `json:"successCount"`
	FailCount    int `json:"failCount"`
}

// TelegramService delivers grouped products to the user's Telegram chat.
type TelegramService struct {
	settings   SettingsStore
	products   GroupedStore
	logs       PublishLogStore
	api        TelegramAPI
	metrics    *metrics.Metrics
	batchLimit int
	delay      time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// NewTelegramService constructs the service. delay is the pause between
// products; a negative value falls back to 2s and a non-positive batchLimit
// to 30.
func NewTelegramService(
	settings SettingsStore,
	products GroupedStore,
	logs PublishLogStore,
	api TelegramAPI,
	m *metrics.Metrics,
	batchLimit int,
	delay time.Duration,
) *TelegramService {
	if batchLimit <= 0 {
		batchLimit = 30
	}
	if delay < 0 {
		delay = 2 * time.Second
	}
	return &TelegramService{
		settings:   settings,
		products:   products,
		logs:       logs,
		api:        api,
		metrics:    m,
		batchLimit: batchLimit,
		delay:      delay,
		sleep:      retry.Sleep,
	}
}

// SendBatch sends the products one by one, pausing between them. ctx is
// checked before each product and interrupts the pause; on cancellation the
// counts so far are returned with ctx's error.
func (s *TelegramService) SendBatch(ctx context.Context, userID int, ids []int, onProgress func(TelegramProgress)) (*BatchResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: ids are required", utils.ErrInvalidRequest)
	}
	if len(ids) > s.batchLimit {
		return nil, fmt.Errorf("%w: at most %d products per batch", utils.ErrBatchTooLarge, s.batchLimit)
	}
	st, err := s.loadSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	products, err := s.products.GetByIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	res := &BatchResult{}
	total := len(products)
	for i := range products {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		p := &products[i]
		status := models.LogStatusSuccess
		if err := s.send(ctx, st, p); err != nil {
			status = models.LogStatusFailed
			res.FailCount++
		} else {
			res.SuccessCount++
		}
		if onProgress != nil {
			onProgress(TelegramProgress{
				Current:     i + 1,
				Total:       total,
				Percent:     (i + 1) * 100 / total,
				ProductName: p.Name,
				Status:      status,
			})
		}
		if i < total-1 && s.delay > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				return res, err
			}
		}
	}

	log.Info().
		Int("user_id", userID).
		Int("success", res.SuccessCount).
		Int("failed", res.FailCount).
		Msg("Telegram batch finished")
	return res, nil
}

// SendOne sends a single product synchronously.
func (s *TelegramService) SendOne(ctx context.Context, userID, id int) error {
	st, err := s.loadSettings(ctx, userID)
	if err != nil {
		return err
	}
	p, err := s.products.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.send(ctx, st, p); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrProvider, err)
	}
	return nil
}

// send delivers one product, writes its log row and deletes it on success.
func (s *TelegramService) send(ctx context.Context, st *models.UserSettings, p *models.GroupedProduct) error {
	msg := telegram.Message{
		Text:      catalog.TelegramCaption(p, st),
		ImageURLs: catalog.CleanImageURLs(p.Images()),
	}
	_, sendErr := s.api.Send(ctx, st.TelegramBotToken, st.TelegramChatID, msg)
	s.metrics.ProviderCall(channelTelegram, "send", sendErr)

	stock := p.TotalStock
	entry := &models.TelegramLog{
		UserID:      st.UserID,
		ProductName: p.Name,
		ProductSlug: p.GroupID,
		StockCount:  &stock,
		Status:      models.LogStatusSuccess,
	}
	if sendErr != nil {
		m := sendErr.Error()
		entry.Status = models.LogStatusFailed
		entry.ErrorMessage = &m
	}
	// The log is written even when the request was cancelled mid-send.
	if err := s.logs.CreateTelegramLog(context.WithoutCancel(ctx), entry); err != nil {
		log.Error().Err(err).Int("user_id", st.UserID).Int("product_id", p.ID).Msg("Telegram log not written")
	}
	s.metrics.PublishFinished(channelTelegram, entry.Status)

	if sendErr != nil {
		log.Warn().Err(sendErr).Int("user_id", st.UserID).Int("product_id", p.ID).Msg("Telegram send failed")
		return sendErr
	}
	if err := s.products.Delete(context.WithoutCancel(ctx), st.UserID, p.ID); err != nil && !errors.Is(err, utils.ErrNotFound) {
		log.Error().Err(err).Int("user_id", st.UserID).Int("product_id", p.ID).Msg("Sent product not deleted")
	}
	return nil
}

func (s *TelegramService) loadSettings(ctx context.Context, userID int) (*models.UserSettings, error) {
	return loadSettings(ctx, s.settings, userID, func(st *models.UserSettings) string {
		if !st.HasTelegram() {
			return "telegram bot token and chat id are required"
		}
		return ""
	})
}
