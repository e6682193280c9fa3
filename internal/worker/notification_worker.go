package worker

import (
	"github.com/bytevantagees-gif/janasamparka-engine/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notifier *service.Notifier) {
	if notifier == nil {
		return
	}
	notifier.RegisterHandlers()
}
