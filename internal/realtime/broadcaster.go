package realtime

import (
	"github.com/sirupsen/logrus"
)

// Broadcaster pushes events to connected dashboard clients. It is an
// explicitly constructed capability handed to the components that need
// it, never ambient global state.
type Broadcaster interface {
	Broadcast(event string, payload any)
}

// LogBroadcaster is the default no-transport implementation.
type LogBroadcaster struct{}

func NewLogBroadcaster() *LogBroadcaster {
	return &LogBroadcaster{}
}

func (b *LogBroadcaster) Broadcast(event string, payload any) {
	logrus.WithFields(logrus.Fields{
		"event":   event,
		"payload": payload,
	}).Debug("realtime: event (no transport attached)")
}
