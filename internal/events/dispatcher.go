package events

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Dispatcher fans a consent change out to its listeners. Delivery is
// synchronous and best-effort: a listener error or panic is logged and the
// remaining listeners still run. Listeners are registered at startup;
// Dispatch may be called concurrently afterwards.
type Dispatcher struct {
	listeners []Listener
	logger    *logrus.Logger
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher(logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Subscribe registers a listener. Not safe to call after Dispatch is in use.
func (d *Dispatcher) Subscribe(listener Listener) {
	d.listeners = append(d.listeners, listener)
}

// Dispatch delivers the event to every listener in registration order.
func (d *Dispatcher) Dispatch(ctx context.Context, event ConsentChangedEvent) {
	for _, listener := range d.listeners {
		d.deliver(ctx, listener, event)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, listener Listener, event ConsentChangedEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithFields(logrus.Fields{
				"event": event.Name,
				"panic": r,
			}).Error("Consent listener panicked")
		}
	}()

	if err := listener.OnConsentChanged(ctx, event); err != nil {
		d.logger.WithError(err).WithField("event", event.Name).Warn("Consent listener failed")
	}
}
