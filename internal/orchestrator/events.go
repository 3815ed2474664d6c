package orchestrator

import "github.com/example/genai-gateway/internal/failure"

type EventKind int

const (
	EventFragment EventKind = iota
	EventError
)

// Event is one item on a relay stream: either a text fragment or a terminal
// error. An error event is always the last event before the channel closes.
type Event struct {
	Kind EventKind
	Text string
	Err  *failure.ClassifiedError
}

func Fragment(text string) Event {
	return Event{Kind: EventFragment, Text: text}
}

func StreamError(err *failure.ClassifiedError) Event {
	return Event{Kind: EventError, Err: err}
}
