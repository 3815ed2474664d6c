package llm

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/example/genai-gateway/internal/models"
)

// GeminiClient talks to the Gemini API through the generative-ai-go SDK.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient is the production Constructor.
func NewGeminiClient(ctx context.Context, apiKey string) (Client, error) {
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiClient{client: c}, nil
}

func (g *GeminiClient) model(call Call) *genai.GenerativeModel {
	m := g.client.GenerativeModel(call.Model)
	if strings.TrimSpace(call.SystemInstruction) != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(call.SystemInstruction))
	}
	if call.JSONResponse {
		m.ResponseMIMEType = "application/json"
	}
	return m
}

// Stream sends the prompt as the last user turn of a chat seeded with the
// call history.
func (g *GeminiClient) Stream(ctx context.Context, call Call) Stream {
	m := g.model(call)
	if len(call.History) == 0 {
		return &geminiStream{iter: m.GenerateContentStream(ctx, genai.Text(call.Prompt))}
	}
	cs := m.StartChat()
	cs.History = toContents(call.History)
	return &geminiStream{iter: cs.SendMessageStream(ctx, genai.Text(call.Prompt))}
}

func (g *GeminiClient) Generate(ctx context.Context, call Call) (string, error) {
	m := g.model(call)
	var (
		resp *genai.GenerateContentResponse
		err  error
	)
	if len(call.History) > 0 {
		cs := m.StartChat()
		cs.History = toContents(call.History)
		resp, err = cs.SendMessage(ctx, genai.Text(call.Prompt))
	} else {
		resp, err = m.GenerateContent(ctx, genai.Text(call.Prompt))
	}
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

type geminiStream struct {
	iter *genai.GenerateContentResponseIterator
}

// Next skips chunks that carry no text, such as a trailing usage-only chunk.
func (s *geminiStream) Next() (string, error) {
	for {
		resp, err := s.iter.Next()
		if err != nil {
			return "", err
		}
		if text := responseText(resp); text != "" {
			return text, nil
		}
	}
}

func toContents(turns []models.ConversationTurn) []*genai.Content {
	out := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		out = append(out, &genai.Content{
			Role:  string(t.Role),
			Parts: []genai.Part{genai.Text(t.Text)},
		})
	}
	return out
}

// responseText joins the text parts of the first candidate.
func responseText(r *genai.GenerateContentResponse) string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	c := r.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range c.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
