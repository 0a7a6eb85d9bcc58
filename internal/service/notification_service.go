package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/kafka"
)

// NotificationService forwards pipeline events to operator-facing
// sinks: the log, an optional Kafka topic, and stub email/webhook
// endpoints. Sink failures never affect the pipeline.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	producer   *kafka.Producer
}

// NewNotificationService creates the service. producer may be nil when
// no Kafka brokers are configured.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, producer *kafka.Producer) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		producer:   producer,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketReceived, n.handleTicketReceived)
	n.dispatcher.Subscribe(events.EventTicketResolved, n.handleTicketResolved)
	n.dispatcher.Subscribe(events.EventTicketFailed, n.handleTicketFailed)
	n.dispatcher.Subscribe(events.EventApprovalRequired, n.handleApprovalRequired)
}

func (n *NotificationService) handleTicketReceived(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketReceived", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketResolved(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketResolved", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.forwardToKafka(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketFailed(ctx context.Context, event events.Event) error {
	n.logger.Warn("TicketFailed", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.forwardToKafka(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleApprovalRequired(ctx context.Context, event events.Event) error {
	n.logger.Info("ApprovalRequired", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) forwardToKafka(ctx context.Context, event events.Event) {
	if n.producer == nil {
		return
	}
	if err := n.producer.Send(ctx, event.TicketID, event); err != nil {
		n.logger.Warn("kafka sink failed", zap.String("ticket_id", event.TicketID), zap.Error(err))
	}
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
