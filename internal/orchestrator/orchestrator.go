// Package orchestrator relays streamed generation from the upstream model to
// a caller.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"google.golang.org/api/iterator"

	"github.com/example/genai-gateway/internal/failure"
	"github.com/example/genai-gateway/internal/logging"
	"github.com/example/genai-gateway/internal/metrics"
	"github.com/example/genai-gateway/internal/models"
	"github.com/example/genai-gateway/internal/providers/llm"
)

// Relay drives streaming generation calls.
type Relay struct {
	resolver     llm.Resolver
	defaultModel string
	logger       *slog.Logger
	metrics      *metrics.Collector
}

// New returns a Relay. logger and m may be nil.
func New(resolver llm.Resolver, defaultModel string, logger *slog.Logger, m *metrics.Collector) *Relay {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Relay{
		resolver:     resolver,
		defaultModel: defaultModel,
		logger:       logger,
		metrics:      m,
	}
}

// Model returns the model a request will use.
func (r *Relay) Model(req models.GenerationRequest) string {
	if m := strings.TrimSpace(req.SelectedModel); m != "" {
		return m
	}
	return r.defaultModel
}

// Stream starts the generation and returns its events. Fragments arrive in
// generation order. If the client cannot be resolved or the upstream fails,
// exactly one error event follows whatever was already sent. The channel is
// always closed.
//
// Cancelling ctx stops consumption of the upstream stream; no further events,
// including error events, are sent after that.
func (r *Relay) Stream(ctx context.Context, req models.GenerationRequest) <-chan Event {
	out := make(chan Event)
	go r.run(ctx, req, out)
	return out
}

func (r *Relay) run(ctx context.Context, req models.GenerationRequest, out chan<- Event) {
	defer close(out)

	model := r.Model(req)
	log := logging.FromContext(ctx, r.logger).With("operation", failure.OpStreaming, "model", model)

	send := func(ev Event) bool {
		if ctx.Err() != nil {
			return false
		}
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	client, err := r.resolver.Resolve(ctx, req.CustomAPIKey)
	if err != nil {
		log.Warn("client unavailable", "error", failure.Redact(err.Error()))
		send(StreamError(failure.Unavailable(model)))
		return
	}
	defer client.Close()

	// Cancelling streamCtx on return releases the upstream stream.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	system := req.SystemInstruction
	if strings.TrimSpace(system) == "" {
		system = ""
	}
	stream := client.Stream(streamCtx, llm.Call{
		Model:             model,
		SystemInstruction: system,
		History:           models.FilterTurns(req.ChatHistory),
		Prompt:            req.UserPrompt,
	})

	fragments := 0
	for {
		text, err := stream.Next()
		if errors.Is(err, iterator.Done) {
			log.Debug("stream completed", "fragments", fragments)
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				log.Info("caller disconnected", "fragments", fragments)
				return
			}
			cerr := failure.Classify(err, failure.OpStreaming, model)
			log.Error("stream failed", "kind", cerr.Kind, "fragments", fragments, "error", failure.Redact(err.Error()))
			send(StreamError(cerr))
			return
		}
		if !send(Fragment(text)) {
			log.Info("caller disconnected", "fragments", fragments)
			return
		}
		fragments++
		r.metrics.AddFragment()
	}
}
