package worker

import (
	"context"

	"github.com/spec-kit/repair-report-service/internal/service"
)

// StartNotificationWorker runs the notification consumer in the
// background until ctx is cancelled.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	go notificationService.Run(ctx)
}
