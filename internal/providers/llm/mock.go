package llm

import (
	"context"
	"sync"

	"google.golang.org/api/iterator"
)

// ScriptedClient replays canned output. It is used in tests and whenever a
// deterministic upstream is needed.
type ScriptedClient struct {
	// Fragments are yielded in order by Stream.
	Fragments []string
	// StreamErr, if set, is returned after the fragments instead of
	// iterator.Done.
	StreamErr error
	// BlockAfterFragments makes the stream wait for context cancellation
	// after the last fragment, then return the context error.
	BlockAfterFragments bool

	// Text and GenerateErr are returned by Generate.
	Text        string
	GenerateErr error

	mu     sync.Mutex
	calls  []Call
	closed bool
}

// maxRecordedCalls bounds the call log of a long-lived client; the oldest
// calls are dropped first.
const maxRecordedCalls = 64

func (m *ScriptedClient) record(call Call) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	if n := len(m.calls); n > maxRecordedCalls {
		m.calls = append(m.calls[:0], m.calls[n-maxRecordedCalls:]...)
	}
	m.mu.Unlock()
}

func (m *ScriptedClient) Stream(ctx context.Context, call Call) Stream {
	m.record(call)
	return &scriptedStream{ctx: ctx, client: m}
}

func (m *ScriptedClient) Generate(ctx context.Context, call Call) (string, error) {
	m.record(call)
	if m.GenerateErr != nil {
		return "", m.GenerateErr
	}
	return m.Text, nil
}

func (m *ScriptedClient) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Calls returns the most recent calls received, oldest first.
func (m *ScriptedClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Closed reports whether Close was called.
func (m *ScriptedClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type scriptedStream struct {
	ctx    context.Context
	client *ScriptedClient
	next   int
}

func (s *scriptedStream) Next() (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if s.next < len(s.client.Fragments) {
		f := s.client.Fragments[s.next]
		s.next++
		return f, nil
	}
	if s.client.BlockAfterFragments {
		<-s.ctx.Done()
		return "", s.ctx.Err()
	}
	if s.client.StreamErr != nil {
		return "", s.client.StreamErr
	}
	return "", iterator.Done
}

// StaticConstructor returns a Constructor that always hands out c and records
// the keys it was asked for in keys, when non-nil.
func StaticConstructor(c Client, keys *[]string) Constructor {
	var mu sync.Mutex
	return func(_ context.Context, apiKey string) (Client, error) {
		if keys != nil {
			mu.Lock()
			*keys = append(*keys, apiKey)
			mu.Unlock()
		}
		return c, nil
	}
}
