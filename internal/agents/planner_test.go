package agents

import (
	"context"
	"reflect"
	"testing"

	"github.com/example/genai-gateway/internal/models"
)

func TestStaticPlanner(t *testing.T) {
	p := &StaticPlanner{Steps: models.SubtaskList{"a", "b"}}

	got, err := p.Plan(context.Background(), models.SubtaskRequest{TaskTitle: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, p.Steps) {
		t.Errorf("expected %v, got %v", p.Steps, got)
	}
	got[0] = "changed"
	if p.Steps[0] != "a" {
		t.Error("expected returned list to be a copy")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Plan(ctx, models.SubtaskRequest{}); err == nil {
		t.Error("expected error for cancelled context")
	}
}
