package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/genai-gateway/internal/config"
)

// ErrUnavailable means no usable client could be built, either because no
// credential was available or because the SDK rejected it before any call.
var ErrUnavailable = errors.New("ai service unavailable")

// Constructor builds a Client for apiKey.
type Constructor func(ctx context.Context, apiKey string) (Client, error)

// Factory resolves clients against the process-wide default credential.
// Clients are never cached; the caller closes each one.
type Factory struct {
	defaultKey string
	newClient  Constructor
}

var _ Resolver = (*Factory)(nil)

// NewFactory returns a Factory using cfg.APIKey as the default credential.
// A nil newClient means NewGeminiClient.
func NewFactory(cfg config.UpstreamConfig, newClient Constructor) *Factory {
	if newClient == nil {
		newClient = NewGeminiClient
	}
	return &Factory{
		defaultKey: strings.TrimSpace(cfg.APIKey),
		newClient:  newClient,
	}
}

// Resolve returns a Client for override, falling back to the default key.
// Errors wrap ErrUnavailable.
func (f *Factory) Resolve(ctx context.Context, override string) (Client, error) {
	key := strings.TrimSpace(override)
	if key == "" {
		key = f.defaultKey
	}
	if key == "" {
		return nil, fmt.Errorf("%w: no api key configured or supplied", ErrUnavailable)
	}
	c, err := f.newClient(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: client construction failed: %v", ErrUnavailable, err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: client construction returned no client", ErrUnavailable)
	}
	return c, nil
}
