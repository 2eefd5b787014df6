package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/pazar_api/internal/models"
)

func TestMergeHistorySortsNewestFirst(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	stock := 3
	tg := []models.TelegramLog{
		{ID: 1, ProductName: "A", ProductSlug: "G1", StockCount: &stock, Status: "success", SentAt: base},
		{ID: 2, ProductName: "B", Status: "failed", SentAt: base.Add(2 * time.Minute)},
	}
	ig := []models.InstagramPublishLog{
		{ID: 1, ProductName: "C", ImageCount: 4, Status: "success", SentAt: base.Add(time.Minute)},
	}

	page := mergeHistory(tg, ig)

	require.Len(t, page.Entries, 3)
	assert.Equal(t, "tg-2", page.Entries[0].ID)
	assert.Equal(t, "ig-1", page.Entries[1].ID)
	assert.Equal(t, "4 görsel", page.Entries[1].Detail)
	assert.Equal(t, "G1", page.Entries[2].Detail)
	assert.Equal(t, models.HistoryCounts{Total: 3, Telegram: 2, Instagram: 1}, page.Counts)
}

func TestHistoryIsCapped(t *testing.T) {
	logs := &fakeLogs{}
	base := time.Now()
	for i := 0; i < HistoryLimit; i++ {
		logs.telegram = append(logs.telegram, models.TelegramLog{ID: i, SentAt: base.Add(-time.Duration(i) * time.Second)})
		logs.instagram = append(logs.instagram, models.InstagramPublishLog{ID: i, SentAt: base.Add(-time.Duration(i)*time.Second - time.Millisecond)})
	}

	page, err := NewHistoryService(logs).List(context.Background(), 1)

	require.NoError(t, err)
	assert.Len(t, page.Entries, HistoryLimit)
	assert.Equal(t, HistoryLimit, page.Counts.Total)
	assert.Equal(t, HistoryLimit/2, page.Counts.Telegram)
}
