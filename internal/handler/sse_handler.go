package handler

import (
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pazar_api/internal/middleware"
	"github.com/GTDGit/pazar_api/internal/sse"
)

// SSEHandler streams a user's publish queue events.
type SSEHandler struct {
	hub       *sse.Hub
	instagram InstagramService
	keepAlive time.Duration
}

// NewSSEHandler creates a new SSEHandler.
func NewSSEHandler(hub *sse.Hub, instagram InstagramService) *SSEHandler {
	return &SSEHandler{hub: hub, instagram: instagram, keepAlive: 30 * time.Second}
}

// Stream handles GET /v1/events?token=<jwt>. The current queue is sent first
// so a reconnecting tab starts from a full snapshot.
func (h *SSEHandler) Stream(c *gin.Context) {
	userID := middleware.UserID(c)
	clientID := fmt.Sprintf("user-%d-%d", userID, time.Now().UnixNano())

	streamHeaders(c)

	client := h.hub.Register(clientID, userID)
	defer h.hub.Unregister(clientID)

	c.SSEvent("connected", gin.H{
		"clientId":  clientID,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	c.SSEvent(string(sse.EventQueue), h.instagram.QueueState(userID))
	c.Writer.Flush()

	log.Info().Str("client_id", clientID).Int("user_id", userID).Msg("Event stream started")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent(string(msg.Event), msg.Data)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"timestamp": time.Now().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
