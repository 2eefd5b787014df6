package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pazar_api/internal/middleware"
	"github.com/GTDGit/pazar_api/internal/service"
	"github.com/GTDGit/pazar_api/internal/utils"
)

type InstagramHandler struct {
	instagram InstagramService
}

func NewInstagramHandler(instagram InstagramService) *InstagramHandler {
	return &InstagramHandler{instagram: instagram}
}

// Publish handles POST /v1/instagram/publish. The post is queued and
// published in the background.
func (h *InstagramHandler) Publish(c *gin.Context) {
	var req service.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	jobID, err := h.instagram.Enqueue(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusAccepted, "Post queued", gin.H{"jobId": jobID})
}

func (h *InstagramHandler) Queue(c *gin.Context) {
	utils.Success(c, http.StatusOK, "Queue retrieved", h.instagram.QueueState(middleware.UserID(c)))
}

func (h *InstagramHandler) ClearResults(c *gin.Context) {
	userID := middleware.UserID(c)
	h.instagram.ClearResults(userID)
	utils.Success(c, http.StatusOK, "Results cleared", h.instagram.QueueState(userID))
}

func (h *InstagramHandler) SentItems(c *gin.Context) {
	ids, err := h.instagram.SentItems(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Sent items retrieved", gin.H{"productIds": ids})
}
