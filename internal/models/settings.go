package models

import "time"

// UserSettings holds per-user credentials and caption preferences.
// Empty strings mean "not configured".
type UserSettings struct {
	UserID int `db:"user_id" json:"userId"`

	TelegramBotToken string `db:"telegram_bot_token" json:"telegramBotToken"`
	TelegramChatID   string `db:"telegram_chat_id" json:"telegramChatId"`

	SiteURL               string `db:"site_url" json:"siteUrl"`
	SiteProductsAPIURL    string `db:"site_products_api_url" json:"siteProductsApiUrl"`
	SiteUpdatePriceAPIURL string `db:"site_update_price_api_url" json:"siteUpdatePriceApiUrl"`

	TrendyolTargetURL    string `db:"trendyol_target_url" json:"trendyolTargetUrl"`
	TrendyolBrandSlug    string `db:"trendyol_brand_slug" json:"trendyolBrandSlug"`
	ReplaceGenelMarkalar bool   `db:"replace_genel_markalar" json:"replaceGenelMarkalar"`

	IkasClientID     string `db:"ikas_client_id" json:"ikasClientId"`
	IkasClientSecret string `db:"ikas_client_secret" json:"ikasClientSecret"`
	IkasStoreName    string `db:"ikas_store_name" json:"ikasStoreName"`
	IkasExcelMapping string `db:"ikas_excel_mapping" json:"ikasExcelMapping"`

	ContactPhone    string `db:"contact_phone" json:"contactPhone"`
	ContactWhatsapp string `db:"contact_whatsapp" json:"contactWhatsapp"`
	LabelStockCode  string `db:"label_stock_code" json:"labelStockCode"`
	LabelSizeRange  string `db:"label_size_range" json:"labelSizeRange"`
	LabelWhatsapp   string `db:"label_whatsapp" json:"labelWhatsapp"`

	InstagramAccessToken string `db:"instagram_access_token" json:"instagramAccessToken"`
	InstagramAccountID   string `db:"instagram_account_id" json:"instagramAccountId"`

	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// HasTelegram reports whether bot token and chat are configured.
func (s *UserSettings) HasTelegram() bool {
	return s != nil && s.TelegramBotToken != "" && s.TelegramChatID != ""
}

// HasInstagram reports whether Graph API credentials are configured.
func (s *UserSettings) HasInstagram() bool {
	return s != nil && s.InstagramAccessToken != "" && s.InstagramAccountID != ""
}

// HasIkas reports whether İKAS OAuth credentials are configured.
func (s *UserSettings) HasIkas() bool {
	return s != nil && s.IkasClientID != "" && s.IkasClientSecret != "" && s.IkasStoreName != ""
}
