package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/service"
	"github.com/spec-kit/support-chat/internal/session"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// SessionJanitor returns a loop for an errgroup that evicts idle sessions until
// ctx is cancelled.
func SessionJanitor(store *session.Store, interval time.Duration, logger *zap.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if store == nil {
			<-ctx.Done()
			return nil
		}
		logger.Debug("starting session janitor", zap.Int("sessions", store.Len()))
		return store.RunJanitor(ctx, interval)
	}
}
