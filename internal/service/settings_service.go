package service

import (
	"context"
	"fmt"

	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/internal/utils"
)

// SettingsService reads and stores per-user integration settings.
type SettingsService struct {
	store SettingsStore
}

func NewSettingsService(store SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

// Get returns the user's settings, or empty defaults when none were saved.
func (s *SettingsService) Get(ctx context.Context, userID int) (*models.UserSettings, error) {
	st, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = &models.UserSettings{UserID: userID}
	}
	return st, nil
}

// Save upserts the user's settings.
func (s *SettingsService) Save(ctx context.Context, userID int, st *models.UserSettings) (*models.UserSettings, error) {
	st.UserID = userID
	if err := s.store.Upsert(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// loadSettings fetches settings and runs check, wrapping its complaint in
// ErrSettingsMissing.
func loadSettings(ctx context.Context, store SettingsStore, userID int, check func(*models.UserSettings) string) (*models.UserSettings, error) {
	st, err := store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = &models.UserSettings{UserID: userID}
	}
	if check != nil {
		if msg := check(st); msg != "" {
			return nil, fmt.Errorf("%w: %s", utils.ErrSettingsMissing, msg)
		}
	}
	return st, nil
}
