package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"glimpse/internal/models"
)

// Dispatcher routes freshly created cards to their owner's websocket
// connections. When Redis is available the card travels through pub/sub so
// every instance delivers it; without Redis it goes straight to the local hub.
type Dispatcher struct {
	hub      *Hub
	notifier *Notifier
}

// NewDispatcher creates a Dispatcher backed by the given hub and notifier.
func NewDispatcher(hub *Hub, notifier *Notifier) *Dispatcher {
	return &Dispatcher{hub: hub, notifier: notifier}
}

type cardEnvelope struct {
	Type    string       `json:"type"`
	Payload *models.Card `json:"payload"`
}

// PublishCard delivers a card to the owner's active connections. Owners with
// no connection on any instance are skipped; the card is persisted and they
// pick it up on their next cards fetch.
func (d *Dispatcher) PublishCard(ctx context.Context, card *models.Card) error {
	if !d.hub.IsOnline(card.OwnerID) {
		return nil
	}

	data, err := json.Marshal(cardEnvelope{Type: "card", Payload: card})
	if err != nil {
		return fmt.Errorf("marshal card %d: %w", card.ID, err)
	}

	if d.notifier != nil && d.notifier.Ready() {
		return d.notifier.PublishUser(ctx, card.OwnerID, string(data))
	}

	d.hub.Broadcast(card.OwnerID, string(data))
	return nil
}
