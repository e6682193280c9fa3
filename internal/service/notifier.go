package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/config"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/events"
)

// Notification is the boundary payload handed to the external dispatch
// collaborator: fire-and-forget, at-most-once best effort.
type Notification struct {
	TicketID   string
	Event      string
	Recipients []string
}

// Sender delivers a notification. Implementations live outside the
// engine; delivery failure never affects committed state.
type Sender interface {
	Send(ctx context.Context, notification Notification) error
}

// Notifier bridges domain events to the notification dispatcher.
type Notifier struct {
	dispatcher events.Dispatcher
	sender     Sender
	logger     *zap.Logger
}

// NewNotifier creates the service.
func NewNotifier(dispatcher events.Dispatcher, sender Sender, logger *zap.Logger) *Notifier {
	return &Notifier{dispatcher: dispatcher, sender: sender, logger: logger}
}

// RegisterHandlers subscribes to the events that trigger notifications.
func (n *Notifier) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventGrievanceSubmitted, n.handleSubmitted)
	n.dispatcher.Subscribe(events.EventStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventAssigned, n.handleAssigned)
	n.dispatcher.Subscribe(events.EventSubAssigned, n.handleSubAssigned)
	n.dispatcher.Subscribe(events.EventApprovalRecorded, n.handleApprovalRecorded)
}

// notifiableStatuses are the states whose first entry triggers an
// outbound notification.
var notifiableStatuses = map[domain.TicketStatus]struct{}{
	domain.TicketStatusUnderReview: {},
	domain.TicketStatusAssigned:    {},
	domain.TicketStatusInProgress:  {},
}

func (n *Notifier) handleSubmitted(ctx context.Context, event events.Event) error {
	n.send(ctx, event, []string{event.ActorID})
	return nil
}

func (n *Notifier) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StatusChangedPayload)
	if !ok {
		return nil
	}
	if _, notifiable := notifiableStatuses[payload.NewStatus]; !notifiable || !payload.FirstEntry {
		return nil
	}
	n.send(ctx, event, []string{"citizen", event.ActorID})
	return nil
}

func (n *Notifier) handleAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AssignedPayload)
	if !ok {
		return nil
	}
	recipients := []string{payload.DepartmentID}
	if payload.OfficerID != nil {
		recipients = append(recipients, *payload.OfficerID)
	}
	n.send(ctx, event, recipients)
	return nil
}

func (n *Notifier) handleSubAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SubAssignedPayload)
	if !ok {
		return nil
	}
	n.send(ctx, event, []string{payload.ToOfficerID})
	return nil
}

func (n *Notifier) handleApprovalRecorded(ctx context.Context, event events.Event) error {
	n.send(ctx, event, []string{"citizen"})
	return nil
}

func (n *Notifier) send(ctx context.Context, event events.Event, recipients []string) {
	if n.sender == nil {
		return
	}
	notification := Notification{
		TicketID:   event.TicketID,
		Event:      string(event.Type),
		Recipients: recipients,
	}
	if err := n.sender.Send(ctx, notification); err != nil {
		n.logger.Warn("notification dispatch failed",
			zap.String("ticket_id", event.TicketID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
}

// LogSender is the development sender: it logs instead of delivering.
type LogSender struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewLogSender creates the stub sender.
func NewLogSender(logger *zap.Logger, cfg config.NotificationConfig) *LogSender {
	return &LogSender{logger: logger, cfg: cfg}
}

// Send logs the notification. A configured webhook URL is recorded for
// the operator but delivery stays stubbed.
func (s *LogSender) Send(ctx context.Context, notification Notification) error {
	fields := []zap.Field{
		zap.String("ticket_id", notification.TicketID),
		zap.String("event", notification.Event),
		zap.String("recipients", strings.Join(notification.Recipients, ",")),
	}
	if s.cfg.WebhookURL != "" {
		fields = append(fields, zap.String("webhook_url", s.cfg.WebhookURL))
	}
	s.logger.Info("notification", fields...)
	return nil
}
