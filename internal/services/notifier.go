package services

import "github.com/krasol/hobbyhub-backend/internal/models"

// Notifier delivers a new-message event to a recipient. Delivery is
// fire-and-forget; failures are invisible to the caller.
type Notifier interface {
	Notify(recipientID string, message *models.Message)
}

type NopNotifier struct{}

func (NopNotifier) Notify(string, *models.Message) {}
