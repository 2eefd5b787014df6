package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pazar_api/internal/cache"
	"github.com/GTDGit/pazar_api/internal/middleware"
	"github.com/GTDGit/pazar_api/internal/utils"
)

// RefreshHandler exposes the scheduled catalog refresh to the dashboard.
type RefreshHandler struct {
	refresh  RefreshService
	settings SettingsService
}

func NewRefreshHandler(refresh RefreshService, settings SettingsService) *RefreshHandler {
	return &RefreshHandler{refresh: refresh, settings: settings}
}

// Summary handles GET /v1/refresh/summary. Data is null before the first run.
func (h *RefreshHandler) Summary(c *gin.Context) {
	sum, err := h.refresh.LastSummary(c.Request.Context(), middleware.UserID(c))
	if errors.Is(err, cache.ErrCacheMiss) {
		utils.Success(c, http.StatusOK, "No refresh yet", nil)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Refresh summary retrieved", sum)
}

// Run handles POST /v1/refresh and refreshes the caller's tables now.
func (h *RefreshHandler) Run(c *gin.Context) {
	st, err := h.settings.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Refresh finished", h.refresh.RefreshUser(c.Request.Context(), st))
}
