package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// RegisterTicketObservers subscribes the logging and metrics handlers to ticket events.
func RegisterTicketObservers(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) {
	if dispatcher == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	count := func(action string) events.EventHandler {
		return func(_ context.Context, _ events.Event) error {
			metrics.RecordTicket(action)
			return nil
		}
	}
	dispatcher.Subscribe(events.EventTicketCreated, count("created"))
	dispatcher.Subscribe(events.EventTicketUpdated, count("updated"))
	dispatcher.Subscribe(events.EventTicketStatusChanged, count("status_changed"))
	dispatcher.Subscribe(events.EventTicketDeleted, count("deleted"))

	dispatcher.Subscribe(events.EventTicketCreated, func(_ context.Context, e events.Event) error {
		logger.Debug("ticket created", zap.String("ticket_id", e.TicketID), zap.String("user_id", e.Actor.UserID))
		return nil
	})
	dispatcher.Subscribe(events.EventTicketStatusChanged, func(_ context.Context, e events.Event) error {
		fields := []zap.Field{zap.String("ticket_id", e.TicketID), zap.String("by", e.Actor.UserID)}
		if p, ok := e.Payload.(events.TicketStatusChangedPayload); ok {
			fields = append(fields, zap.String("from", string(p.OldStatus)), zap.String("to", string(p.NewStatus)))
		}
		logger.Info("ticket status changed", fields...)
		return nil
	})
	dispatcher.Subscribe(events.EventTicketDeleted, func(_ context.Context, e events.Event) error {
		logger.Info("ticket deleted", zap.String("ticket_id", e.TicketID), zap.String("by", e.Actor.UserID))
		return nil
	})
}
