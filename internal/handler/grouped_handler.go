package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pazar_api/internal/middleware"
	"github.com/GTDGit/pazar_api/internal/service"
	"github.com/GTDGit/pazar_api/internal/utils"
)

// GroupedHandler serves grouped products and their Telegram delivery.
type GroupedHandler struct {
	grouped  GroupedService
	telegram TelegramService
}

func NewGroupedHandler(grouped GroupedService, telegram TelegramService) *GroupedHandler {
	return &GroupedHandler{grouped: grouped, telegram: telegram}
}

// Preview handles POST /v1/grouped-products/preview.
func (h *GroupedHandler) Preview(c *gin.Context) {
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

	res, err := h.grouped.Preview(fh.Filename, f)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Columns read", res)
}

// Upload handles POST /v1/grouped-products/upload.
func (h *GroupedHandler) Upload(c *gin.Context) {
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

	res, err := h.grouped.Upload(c.Request.Context(), middleware.UserID(c), fh.Filename, f)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Products grouped", res)
}

func (h *GroupedHandler) List(c *gin.Context) {
	rows, err := h.grouped.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Grouped products retrieved", gin.H{"count": len(rows), "products": rows})
}

func (h *GroupedHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.grouped.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Grouped product deleted", gin.H{"id": id})
}

// SendOne handles POST /v1/grouped-products/:id/send-telegram.
func (h *GroupedHandler) SendOne(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.telegram.SendOne(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Product sent to Telegram", gin.H{"id": id})
}

type sendBatchRequest struct {
	IDs []int `json:"ids" binding:"required,min=1"`
}

// SendBatch handles POST /v1/grouped-products/send-telegram. Progress is
// streamed as SSE; errors raised before the first product are plain JSON.
// The request context is the abort signal.
func (h *GroupedHandler) SendBatch(c *gin.Context) {
	var req sendBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	userID := middleware.UserID(c)
	streaming := false
	res, err := h.telegram.SendBatch(c.Request.Context(), userID, req.IDs, func(p service.TelegramProgress) {
		if !streaming {
			streamHeaders(c)
			streaming = true
		}
		c.SSEvent("progress", p)
		c.Writer.Flush()
	})

	if !streaming {
		if err != nil {
			respondError(c, err)
			return
		}
		streamHeaders(c)
	}
	if err != nil {
		if errors.Is(err, c.Request.Context().Err()) {
			log.Info().Int("user_id", userID).Int("sent", res.SuccessCount).Msg("Telegram batch aborted by client")
			return
		}
		c.SSEvent("error", gin.H{"message": err.Error()})
	}
	if res != nil {
		c.SSEvent("done", res)
	}
	c.Writer.Flush()
}

func streamHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
