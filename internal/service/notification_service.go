package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/config"
	"github.com/spec-kit/support-chat/internal/events"
	"github.com/spec-kit/support-chat/internal/repository"
)

// Publisher pushes JSON payloads to a pub/sub channel.
type Publisher interface {
	Enabled() bool
	PublishJSON(ctx context.Context, channel string, payload any) error
}

// NotificationService hands chat events to the human support desk.
type NotificationService struct {
	dispatcher events.Dispatcher
	archive    repository.TicketArchive
	publisher  Publisher
	channel    string
	logger     *zap.Logger
}

// NewNotificationService creates the service. archive and publisher may be nil.
func NewNotificationService(dispatcher events.Dispatcher, archive repository.TicketArchive, publisher Publisher, cfg config.RedisConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		archive:    archive,
		publisher:  publisher,
		channel:    cfg.EscalationChannel,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketEscalated, n.handleTicketEscalated)
	n.dispatcher.Subscribe(events.EventFeedbackReceived, n.handleFeedbackReceived)
	n.dispatcher.Subscribe(events.EventSessionClosed, n.handleSessionClosed)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.String("session_id", event.SessionID))
	return n.archiveTicket(ctx, event)
}

func (n *NotificationService) handleTicketEscalated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketEscalated", zap.String("ticket_id", event.TicketID), zap.String("session_id", event.SessionID))
	return errors.Join(n.archiveTicket(ctx, event), n.publish(ctx, event))
}

func (n *NotificationService) handleFeedbackReceived(ctx context.Context, event events.Event) error {
	n.logger.Info("FeedbackReceived", zap.String("session_id", event.SessionID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleSessionClosed(ctx context.Context, event events.Event) error {
	n.logger.Debug("SessionClosed", zap.String("session_id", event.SessionID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) archiveTicket(ctx context.Context, event events.Event) error {
	if n.archive == nil {
		return nil
	}
	payload, ok := event.Payload.(events.TicketPayload)
	if !ok {
		return fmt.Errorf("event %s: unexpected payload %T", event.Type, event.Payload)
	}
	err := n.archive.Save(ctx, event.SessionID, payload.Ticket)
	if errors.Is(err, repository.ErrArchiveDisabled) {
		return nil
	}
	return err
}

func (n *NotificationService) publish(ctx context.Context, event events.Event) error {
	if n.publisher == nil || !n.publisher.Enabled() || n.channel == "" {
		return nil
	}
	if err := n.publisher.PublishJSON(ctx, n.channel, event); err != nil {
		return fmt.Errorf("publish escalation %s: %w", event.TicketID, err)
	}
	n.logger.Debug("escalation published", zap.String("channel", n.channel), zap.String("ticket_id", event.TicketID))
	return nil
}
