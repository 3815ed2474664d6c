package llm

import (
	"context"

	"github.com/example/genai-gateway/internal/models"
)

// Call is one generation request to the upstream model.
type Call struct {
	Model string
	// SystemInstruction is attached only when non-blank.
	SystemInstruction string
	// History holds prior turns, already filtered; Prompt becomes the final
	// user turn.
	History []models.ConversationTurn
	Prompt  string
	// JSONResponse asks the model for a machine-parseable reply.
	JSONResponse bool
}

// Stream yields generated text fragments in order. Next returns
// iterator.Done once the upstream finishes; any other error ends the stream.
// A Stream is not restartable.
type Stream interface {
	Next() (string, error)
}

// Client is a per-request handle on the upstream API.
type Client interface {
	Stream(ctx context.Context, call Call) Stream
	Generate(ctx context.Context, call Call) (string, error)
	Close() error
}

// Resolver hands out a Client for a request, using override as the
// credential when non-blank.
type Resolver interface {
	Resolve(ctx context.Context, override string) (Client, error)
}
