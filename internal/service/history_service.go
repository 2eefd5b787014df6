package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/GTDGit/pazar_api/internal/models"
)

// HistoryLimit caps each log source and the merged result.
const HistoryLimit = 200

// HistoryPage is the merged publish history.
type HistoryPage struct {
	Entries []models.HistoryEntry `json:"entries"`
	Counts  models.HistoryCounts  `json:"counts"`
}

// HistoryService merges both channels' publish logs.
type HistoryService struct {
	logs PublishLogStore
}

func NewHistoryService(logs PublishLogStore) *HistoryService {
	return &HistoryService{logs: logs}
}

// List returns the newest entries across Telegram and Instagram.
func (s *HistoryService) List(ctx context.Context, userID int) (*HistoryPage, error) {
	tg, err := s.logs.ListTelegramLogs(ctx, userID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("telegram logs: %w", err)
	}
	ig, err := s.logs.ListInstagramLogs(ctx, userID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("instagram logs: %w", err)
	}
	return mergeHistory(tg, ig), nil
}

func mergeHistory(tg []models.TelegramLog, ig []models.InstagramPublishLog) *HistoryPage {
	entries := make([]models.HistoryEntry, 0, len(tg)+len(ig))
	for _, l := range tg {
		entries = append(entries, models.HistoryEntry{
			ID:          "tg-" + strconv.Itoa(l.ID),
			Source:      channelTelegram,
			ProductName: l.ProductName,
			Detail:      l.ProductSlug,
			StockCount:  l.StockCount,
			Status:      l.Status,
			SentAt:      l.SentAt,
		})
	}
	for _, l := range ig {
		detail := fmt.Sprintf("%d görsel", l.ImageCount)
		if l.ErrorMessage != nil && *l.ErrorMessage != "" {
			detail = *l.ErrorMessage
		}
		entries = append(entries, models.HistoryEntry{
			ID:          "ig-" + strconv.Itoa(l.ID),
			Source:      channelInstagram,
			ProductName: l.ProductName,
			Detail:      detail,
			Status:      l.Status,
			SentAt:      l.SentAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].SentAt.After(entries[j].SentAt) })
	if len(entries) > HistoryLimit {
		entries = entries[:HistoryLimit]
	}

	page := &HistoryPage{Entries: entries}
	for _, e := range entries {
		if e.Source == channelTelegram {
			page.Counts.Telegram++
		} else {
			page.Counts.Instagram++
		}
	}
	page.Counts.Total = len(entries)
	return page
}
