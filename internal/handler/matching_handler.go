package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pazar_api/internal/middleware"
	"github.com/GTDGit/pazar_api/internal/utils"
)

type MatchingHandler struct {
	matching MatchingService
}

func NewMatchingHandler(matching MatchingService) *MatchingHandler {
	return &MatchingHandler{matching: matching}
}

// Upload handles POST /v1/matching/upload (multipart "file").
func (h *MatchingHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	res, err := h.matching.Upload(c.Request.Context(), middleware.UserID(c), fh.Filename, f)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Mapping uploaded", res)
}

func (h *MatchingHandler) List(c *gin.Context) {
	rows, err := h.matching.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Mapping retrieved", gin.H{"count": len(rows), "rows": rows})
}

func (h *MatchingHandler) Clear(c *gin.Context) {
	n, err := h.matching.Clear(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Mapping cleared", gin.H{"deleted": n})
}

// Suggestions handles GET /v1/matching/suggestions.
func (h *MatchingHandler) Suggestions(c *gin.Context) {
	rows, err := h.matching.Suggestions(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Suggestions computed", gin.H{"count": len(rows), "suggestions": rows})
}
