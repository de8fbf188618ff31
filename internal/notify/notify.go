package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/fixroute/backend/internal/models"
)

// Dispatcher hands notification intents to a delivery transport. Delivery
// itself (push, email, in-app feed) lives outside this service; implementations
// here only forward the intent.
type Dispatcher interface {
	Dispatch(ctx context.Context, intents []models.NotificationIntent) error
}

// LogDispatcher records intents in the service log. Used when no transport is
// configured; the intents are persisted with the routing decision either way.
type LogDispatcher struct {
	Logger zerolog.Logger
}

func (d LogDispatcher) Dispatch(ctx context.Context, intents []models.NotificationIntent) error {
	for _, in := range intents {
		d.Logger.Info().
			Str("audience", string(in.Audience)).
			Str("provider_id", in.ProviderID).
			Bool("high_priority", in.HighPriority).
			Str("title", in.Title).
			Msg("notification intent")
	}
	return nil
}
