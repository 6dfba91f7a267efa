package ports

import "context"

// EventPublisher delivers integration events to the bus. Implementations must
// tolerate redelivery; consumers dedupe on the event id.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}
