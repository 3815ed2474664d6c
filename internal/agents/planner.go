package agents

import (
	"context"

	"github.com/example/genai-gateway/internal/models"
)

// Planner turns a task into an ordered list of subtasks.
type Planner interface {
	// Model reports the model a request resolves to, for error reporting.
	Model(req models.SubtaskRequest) string
	Plan(ctx context.Context, req models.SubtaskRequest) (models.SubtaskList, error)
}

var _ Planner = (*SubtaskPlanner)(nil)

// StaticPlanner returns a fixed list without calling a model.
type StaticPlanner struct {
	Steps models.SubtaskList
}

func (p *StaticPlanner) Model(models.SubtaskRequest) string { return "static" }

func (p *StaticPlanner) Plan(ctx context.Context, _ models.SubtaskRequest) (models.SubtaskList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(models.SubtaskList, len(p.Steps))
	copy(out, p.Steps)
	return out, nil
}
