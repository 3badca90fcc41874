// internal/notify/multi.go
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Channel is a named delivery route inside a Multi.
type Channel struct {
	Name       string
	Dispatcher Dispatcher
}

// Multi delivers to every channel in order. A failing channel does not stop
// delivery to the others; all failures are returned joined.
type Multi struct {
	channels  []Channel
	onFailure func(channel string)
}

func NewMulti(channels ...Channel) *Multi {
	return &Multi{channels: channels}
}

// OnFailure registers a hook called once per failed channel delivery.
func (m *Multi) OnFailure(fn func(channel string)) *Multi {
	m.onFailure = fn
	return m
}

func (m *Multi) Channels() []string {
	names := make([]string, 0, len(m.channels))
	for _, c := range m.channels {
		names = append(names, c.Name)
	}
	return names
}

func (m *Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, c := range m.channels {
		if err := c.Dispatcher.Notify(ctx, n); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"channel": c.Name,
				"kind":    n.Kind,
			}).Warn("Notification delivery failed")
			if m.onFailure != nil {
				m.onFailure(c.Name)
			}
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
		}
	}
	return errors.Join(errs...)
}
