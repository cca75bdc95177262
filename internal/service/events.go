package service

import "context"

// Publisher is the event sink for user and cart events. Publish
// failures are logged, never propagated to the caller.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type NopPublisher struct{}

func (NopPublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	return nil
}
