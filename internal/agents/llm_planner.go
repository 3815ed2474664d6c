package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/genai-gateway/internal/failure"
	"github.com/example/genai-gateway/internal/logging"
	"github.com/example/genai-gateway/internal/models"
	"github.com/example/genai-gateway/internal/providers/llm"
	"github.com/example/genai-gateway/internal/sanitizer"
)

const subtaskSystemInstruction = `You are a productivity assistant that breaks a task into subtasks.
Given a task title and its category, produce 3 to 5 short, concrete, actionable steps.
Output ONLY a JSON array of strings, one string per step. No prose, no numbering, no code fences.

Example output: ["Draft the outline", "Collect reference material", "Write the first version"]`

// SubtaskPlanner asks the model for a subtask list and validates the reply.
type SubtaskPlanner struct {
	resolver     llm.Resolver
	defaultModel string
	logger       *slog.Logger
}

// NewSubtaskPlanner returns a planner. logger may be nil.
func NewSubtaskPlanner(resolver llm.Resolver, defaultModel string, logger *slog.Logger) *SubtaskPlanner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &SubtaskPlanner{resolver: resolver, defaultModel: defaultModel, logger: logger}
}

// Model returns the model a request will use.
func (p *SubtaskPlanner) Model(req models.SubtaskRequest) string {
	if m := strings.TrimSpace(req.SelectedModel); m != "" {
		return m
	}
	return p.defaultModel
}

// Plan runs one generation call and returns the validated list.
//
// Errors: one wrapping llm.ErrUnavailable when no client could be built
// (nothing was sent upstream), otherwise a *failure.ClassifiedError, either
// an upstream failure or a malformed payload.
func (p *SubtaskPlanner) Plan(ctx context.Context, req models.SubtaskRequest) (models.SubtaskList, error) {
	model := p.Model(req)
	log := logging.FromContext(ctx, p.logger).With("operation", failure.OpSubtasks, "model", model)

	client, err := p.resolver.Resolve(ctx, req.CustomAPIKey)
	if err != nil {
		log.Warn("client unavailable", "error", failure.Redact(err.Error()))
		return nil, err
	}
	defer client.Close()

	raw, err := client.Generate(ctx, llm.Call{
		Model:             model,
		SystemInstruction: subtaskSystemInstruction,
		Prompt:            buildSubtaskPrompt(req),
		JSONResponse:      true,
	})
	if err != nil {
		cerr := failure.Classify(err, failure.OpSubtasks, model)
		log.Error("generation failed", "kind", cerr.Kind, "error", failure.Redact(err.Error()))
		return nil, cerr
	}

	list, err := sanitizer.ValidateSubtaskList(sanitizer.ExtractJSON(raw))
	if err != nil {
		var verr *sanitizer.ValidationError
		if errors.As(err, &verr) {
			log.Warn("invalid subtask payload", "stage", verr.Stage, "error", verr.Err, "raw", raw)
		}
		return nil, failure.Malformed(model, raw, err)
	}
	log.Debug("subtasks generated", "count", len(list))
	return list, nil
}

func buildSubtaskPrompt(req models.SubtaskRequest) string {
	return fmt.Sprintf("Task title: %q\nTask category: %q\n\nReturn the JSON array of subtasks.",
		req.TaskTitle, req.Category())
}
