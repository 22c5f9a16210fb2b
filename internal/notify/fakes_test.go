package notify

import (
	"context"
	"fmt"
)

type fakeSink struct {
	events []Event
	err    error
}

func (s *fakeSink) Notify(ctx context.Context, event Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

var errSinkUnavailable = fmt.Errorf("sink unavailable")
