package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/pazar_api/internal/models"
)

// SettingsRepository handles data access for user_settings.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

const settingsColumns = `
	user_id, telegram_bot_token, telegram_chat_id,
	site_url, site_products_api_url, site_update_price_api_url,
	trendyol_target_url, trendyol_brand_slug, replace_genel_markalar,
	ikas_client_id, ikas_client_secret, ikas_store_name, ikas_excel_mapping,
	contact_phone, contact_whatsapp, label_stock_code, label_size_range, label_whatsapp,
	instagram_access_token, instagram_account_id, updated_at`

// Get returns the user's settings, or nil when none were saved yet.
func (r *SettingsRepository) Get(ctx context.Context, userID int) (*models.UserSettings, error) {
	var s models.UserSettings
	err := r.db.GetContext(ctx, &s, `SELECT `+settingsColumns+` FROM user_settings WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert writes the full settings row for s.UserID.
func (r *SettingsRepository) Upsert(ctx context.Context, s *models.UserSettings) error {
	const q = `
		INSERT INTO user_settings (
			user_id, telegram_bot_token, telegram_chat_id,
			site_url, site_products_api_url, site_update_price_api_url,
			trendyol_target_url, trendyol_brand_slug, replace_genel_markalar,
			ikas_client_id, ikas_client_secret, ikas_store_name, ikas_excel_mapping,
			contact_phone, contact_whatsapp, label_stock_code, label_size_range, label_whatsapp,
			instagram_access_token, instagram_account_id, updated_at
		) VALUES (
			:user_id, :telegram_bot_token, :telegram_chat_id,
			:site_url, :site_products_api_url, :site_update_price_api_url,
			:trendyol_target_url, :trendyol_brand_slug, :replace_genel_markalar,
			:ikas_client_id, :ikas_client_secret, :ikas_store_name, :ikas_excel_mapping,
			:contact_phone, :contact_whatsapp, :label_stock_code, :label_size_range, :label_whatsapp,
			:instagram_access_token, :instagram_account_id, NOW()
		)
		ON CONFLICT (user_id) DO UPDATE SET
			telegram_bot_token = EXCLUDED.telegram_bot_token,
			telegram_chat_id = EXCLUDED.telegram_chat_id,
			site_url = EXCLUDED.site_url,
			site_products_api_url = EXCLUDED.site_products_api_url,
			site_update_price_api_url = EXCLUDED.site_update_price_api_url,
			trendyol_target_url = EXCLUDED.trendyol_target_url,
			trendyol_brand_slug = EXCLUDED.trendyol_brand_slug,
			replace_genel_markalar = EXCLUDED.replace_genel_markalar,
			ikas_client_id = EXCLUDED.ikas_client_id,
			ikas_client_secret = EXCLUDED.ikas_client_secret,
			ikas_store_name = EXCLUDED.ikas_store_name,
			ikas_excel_mapping = EXCLUDED.ikas_excel_mapping,
			contact_phone = EXCLUDED.contact_phone,
			contact_whatsapp = EXCLUDED.contact_whatsapp,
			label_stock_code = EXCLUDED.label_stock_code,
			label_size_range = EXCLUDED.label_size_range,
			label_whatsapp = EXCLUDED.label_whatsapp,
			instagram_access_token = EXCLUDED.instagram_access_token,
			instagram_account_id = EXCLUDED.instagram_account_id,
			updated_at = NOW()`

	_, err := r.db.NamedExecContext(ctx, q, s)
	return err
}

// ListRefreshable returns settings of users with a storefront feed or İKAS
// credentials configured.
func (r *SettingsRepository) ListRefreshable(ctx context.Context) ([]models.UserSettings, error) {
	var out []models.UserSettings
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+settingsColumns+`
		FROM user_settings
		WHERE site_products_api_url <> ''
		   OR (ikas_client_id <> '' AND ikas_client_secret <> '' AND ikas_store_name <> '')
		ORDER BY user_id`)
	return out, err
}
