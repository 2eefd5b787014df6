package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pazar_api/internal/middleware"
	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/internal/utils"
)

// SettingsHandler serves the per-user integration settings.
type SettingsHandler struct {
	settings SettingsService
}

func NewSettingsHandler(settings SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

type settingsRequest struct {
	TelegramBotToken string `json:"telegramBotToken"`
	TelegramChatID   string `json:"telegramChatId"`

	SiteURL               string `json:"siteUrl" binding:"omitempty,httpurl"`
	SiteProductsAPIURL    string `json:"siteProductsApiUrl" binding:"omitempty,httpurl"`
	SiteUpdatePriceAPIURL string `json:"siteUpdatePriceApiUrl" binding:"omitempty,httpurl"`

	TrendyolTargetURL    string `json:"trendyolTargetUrl" binding:"omitempty,httpurl"`
	TrendyolBrandSlug    string `json:"trendyolBrandSlug" binding:"max=120"`
	ReplaceGenelMarkalar bool   `json:"replaceGenelMarkalar"`

	IkasClientID     string `json:"ikasClientId"`
	IkasClientSecret string `json:"ikasClientSecret"`
	IkasStoreName    string `json:"ikasStoreName" binding:"max=120"`
	IkasExcelMapping string `json:"ikasExcelMapping"`

	ContactPhone    string `json:"contactPhone" binding:"max=40"`
	ContactWhatsapp string `json:"contactWhatsapp" binding:"max=40"`
	LabelStockCode  string `json:"labelStockCode" binding:"max=60"`
	LabelSizeRange  string `json:"labelSizeRange" binding:"max=60"`
	LabelWhatsapp   string `json:"labelWhatsapp" binding:"max=60"`

	InstagramAccessToken string `json:"instagramAccessToken"`
	InstagramAccountID   string `json:"instagramAccountId"`
}

func (r settingsRequest) toModel() *models.UserSettings {
	t := strings.TrimSpace
	return &models.UserSettings{
		TelegramBotToken:      t(r.TelegramBotToken),
		TelegramChatID:        t(r.TelegramChatID),
		SiteURL:               t(r.SiteURL),
		SiteProductsAPIURL:    t(r.SiteProductsAPIURL),
		SiteUpdatePriceAPIURL: t(r.SiteUpdatePriceAPIURL),
		TrendyolTargetURL:     t(r.TrendyolTargetURL),
		TrendyolBrandSlug:     strings.Trim(t(r.TrendyolBrandSlug), "/"),
		ReplaceGenelMarkalar:  r.ReplaceGenelMarkalar,
		IkasClientID:          t(r.IkasClientID),
		IkasClientSecret:      t(r.IkasClientSecret),
		IkasStoreName:         t(r.IkasStoreName),
		IkasExcelMapping:      r.IkasExcelMapping,
		ContactPhone:          t(r.ContactPhone),
		ContactWhatsapp:       t(r.ContactWhatsapp),
		LabelStockCode:        t(r.LabelStockCode),
		LabelSizeRange:        t(r.LabelSizeRange),
		LabelWhatsapp:         t(r.LabelWhatsapp),
		InstagramAccessToken:  t(r.InstagramAccessToken),
		InstagramAccountID:    t(r.InstagramAccountID),
	}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	st, err := h.settings.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Settings retrieved", st)
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	st, err := h.settings.Save(c.Request.Context(), middleware.UserID(c), req.toModel())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Settings saved", st)
}
