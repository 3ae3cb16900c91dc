package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MultiChannel fans content out to several channels.
type MultiChannel struct {
	channels []Channel
}

// NewMultiChannel constructs a MultiChannel, skipping nil channels.
func NewMultiChannel(channels ...Channel) *MultiChannel {
	m := &MultiChannel{}
	for _, channel := range channels {
		if channel != nil {
			m.channels = append(m.channels, channel)
		}
	}
	return m
}

// Len reports the number of configured channels.
func (m *MultiChannel) Len() int {
	if m == nil {
		return 0
	}
	return len(m.channels)
}

// Name implements Channel.
func (m *MultiChannel) Name() string {
	names := make([]string, 0, len(m.channels))
	for _, channel := range m.channels {
		names = append(names, channel.Name())
	}
	return strings.Join(names, "+")
}

// Send delivers to every channel and joins the failures.
func (m *MultiChannel) Send(ctx context.Context, content string) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, channel := range m.channels {
		if err := channel.Send(ctx, content); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", channel.Name(), err))
		}
	}
	return errors.Join(errs...)
}
