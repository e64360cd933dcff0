package web

import (
	"github.com/posthog/posthog-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Tracker records dashboard usage.
type Tracker interface {
	Track(distinctID, event string, props map[string]any)
	Close() error
}

type NopTracker struct{}

func (NopTracker) Track(string, string, map[string]any) {}

func (NopTracker) Close() error { return nil }

type PostHogTracker struct {
	client posthog.Client
}

// NewPostHogTracker returns a NopTracker when apiKey is empty.
func NewPostHogTracker(apiKey, endpoint string) (Tracker, error) {
	if apiKey == "" {
		return NopTracker{}, nil
	}

	client, err := posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
	if err != nil {
		return nil, eris.Wrap(err, "posthog client")
	}

	return &PostHogTracker{client: client}, nil
}

func (t *PostHogTracker) Track(distinctID, event string, props map[string]any) {
	properties := posthog.NewProperties()
	for k, v := range props {
		properties.Set(k, v)
	}

	err := t.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: properties,
	})
	if err != nil {
		zap.L().Debug("posthog enqueue failed", zap.String("event", event), zap.Error(err))
	}
}

func (t *PostHogTracker) Close() error {
	return t.client.Close()
}
