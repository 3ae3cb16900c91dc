package notify

import "context"

// Channel delivers rendered content to one destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, content string) error
}
