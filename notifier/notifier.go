package notifier

import (
	"github.com/n1k61n/web3-sosial/logger"
	"github.com/n1k61n/web3-sosial/models"

	"go.uber.org/zap"
)

// Notifier consumes notification events after their triggering transaction
// has committed. Delivery is best-effort: implementations must never block
// the host and have no way to fail a transaction retroactively.
type Notifier interface {
	Notify(ev models.NotificationEvent)
}

// LogNotifier writes every event to the application log. It stands in for
// the external notification service in single-process deployments.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(ev models.NotificationEvent) {
	logger.Logger.Info("notification",
		zap.String("kind", ev.Kind),
		zap.String("actor", ev.Actor),
		zap.String("recipient", ev.Recipient),
		zap.Uint64("post_id", ev.PostID))
}

// ChannelNotifier buffers events on a channel for an in-process consumer.
// Events are dropped when the buffer is full rather than blocking the host.
type ChannelNotifier struct {
	ch chan models.NotificationEvent
}

func NewChannelNotifier(buffer int) *ChannelNotifier {
	return &ChannelNotifier{ch: make(chan models.NotificationEvent, buffer)}
}

func (n *ChannelNotifier) Notify(ev models.NotificationEvent) {
	select {
	case n.ch <- ev:
	default:
		logger.Logger.Warn("notification dropped, buffer full",
			zap.String("kind", ev.Kind),
			zap.String("recipient", ev.Recipient))
	}
}

// Events exposes the consumer side of the buffer.
func (n *ChannelNotifier) Events() <-chan models.NotificationEvent {
	return n.ch
}
