package queue

import "context"

// Job consumes one message type off the deferral queue.
type Job interface {
	// Name returns the unique identifier of the job.
	Name() string

	// Type returns the message type the job handles.
	Type() string

	// Handle processes one dequeued payload.
	Handle(ctx context.Context, payload interface{}) error
}
