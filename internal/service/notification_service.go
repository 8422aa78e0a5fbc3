package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/repair-report-service/internal/config"
	"github.com/spec-kit/repair-report-service/internal/events"
)

// NotificationService observes report events and emits operator
// notifications. It is a best-effort observer and never affects the
// outcome of the request that produced the event.
type NotificationService struct {
	broadcaster events.Broadcaster
	logger      *zap.Logger
	cfg         config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(broadcaster events.Broadcaster, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		broadcaster: broadcaster,
		logger:      logger,
		cfg:         cfg,
	}
}

// Run consumes events until ctx is cancelled.
func (n *NotificationService) Run(ctx context.Context) {
	if n.broadcaster == nil {
		return
	}
	ch, leave := n.broadcaster.Subscribe()
	defer leave()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			n.handle(ctx, event)
		}
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) {
	n.logger.Info("report event",
		zap.String("event_id", event.ID),
		zap.String("kind", string(event.Kind)))

	switch event.Kind {
	case events.KindNewReport:
		n.sendEmailNotificationStub(ctx, event)
		n.sendWebhookNotificationStub(ctx, event)
	case events.KindUpdateReport, events.KindDeleteReport:
		n.sendWebhookNotificationStub(ctx, event)
	}
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("event_id", event.ID),
		zap.String("kind", string(event.Kind)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_id", event.ID),
		zap.String("kind", string(event.Kind)))
}
