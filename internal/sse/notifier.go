package sse

import (
	"github.com/GTDGit/pazar_api/internal/models"
)

// HubNotifier pushes publish queue snapshots to the owner's streams.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyQueue(userID int, state models.QueueState) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Send(userID, EventQueue, state)
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (n *NopNotifier) NotifyQueue(int, models.QueueState) {}
