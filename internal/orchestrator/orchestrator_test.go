package orchestrator

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/example/genai-gateway/internal/config"
	"github.com/example/genai-gateway/internal/failure"
	"github.com/example/genai-gateway/internal/models"
	"github.com/example/genai-gateway/internal/providers/llm"
)

const testModel = "gemini-test"

func newRelay(client *llm.ScriptedClient, defaultKey string) *Relay {
	f := llm.NewFactory(config.UpstreamConfig{APIKey: defaultKey, DefaultModel: testModel}, llm.StaticConstructor(client, nil))
	return New(f, testModel, nil, nil)
}

func collect(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("relay stream did not close")
		}
	}
}

func text(events []Event) string {
	var b strings.Builder
	for _, ev := range events {
		if ev.Kind == EventFragment {
			b.WriteString(ev.Text)
		}
	}
	return b.String()
}

func TestRelayCompletes(t *testing.T) {
	client := &llm.ScriptedClient{Fragments: []string{"Hi", " there"}}
	relay := newRelay(client, "key")

	events := collect(t, relay.Stream(context.Background(), models.GenerationRequest{
		UserPrompt:        "Hello",
		ChatHistory:       []models.ConversationTurn{},
		SystemInstruction: "",
	}))

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(events), events)
	}
	for _, ev := range events {
		if ev.Kind != EventFragment {
			t.Errorf("expected only fragments, got %+v", ev)
		}
	}
	if got := text(events); got != "Hi there" {
		t.Errorf("expected %q, got %q", "Hi there", got)
	}
	if !client.Closed() {
		t.Error("expected client to be closed")
	}
}

func TestRelayFailsAfterPartialOutput(t *testing.T) {
	client := &llm.ScriptedClient{
		Fragments: []string{"Hi"},
		StreamErr: errors.New("googleapi: Error 400: API key not valid. Please pass a valid API key."),
	}
	relay := newRelay(client, "key")

	events := collect(t, relay.Stream(context.Background(), models.GenerationRequest{UserPrompt: "Hello"}))

	if len(events) != 2 {
		t.Fatalf("expected fragment then error, got %+v", events)
	}
	if events[0].Kind != EventFragment || events[0].Text != "Hi" {
		t.Errorf("expected fragment Hi first, got %+v", events[0])
	}
	last := events[1]
	if last.Kind != EventError || last.Err == nil {
		t.Fatalf("expected error event last, got %+v", last)
	}
	if last.Err.Kind != failure.KindCredentialInvalid {
		t.Errorf("expected %s, got %s", failure.KindCredentialInvalid, last.Err.Kind)
	}
	if !strings.Contains(last.Err.Message, testModel) {
		t.Errorf("expected message to reference model, got %q", last.Err.Message)
	}
	if !client.Closed() {
		t.Error("expected client to be closed on failure")
	}
}

func TestRelayUpstreamFailureBeforeOutput(t *testing.T) {
	client := &llm.ScriptedClient{StreamErr: errors.New("connection reset")}
	events := collect(t, newRelay(client, "key").Stream(context.Background(), models.GenerationRequest{UserPrompt: "x"}))

	if len(events) != 1 || events[0].Kind != EventError {
		t.Fatalf("expected a single error event, got %+v", events)
	}
	if events[0].Err.Kind != failure.KindUpstreamFailure {
		t.Errorf("expected %s, got %s", failure.KindUpstreamFailure, events[0].Err.Kind)
	}
}

func TestRelayUnavailable(t *testing.T) {
	client := &llm.ScriptedClient{Fragments: []string{"never"}}
	relay := newRelay(client, "")

	events := collect(t, relay.Stream(context.Background(), models.GenerationRequest{UserPrompt: "Hello"}))

	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %+v", events)
	}
	if events[0].Kind != EventError || events[0].Err.Kind != failure.KindCredentialMissing {
		t.Errorf("expected credential missing error, got %+v", events[0])
	}
	if len(client.Calls()) != 0 {
		t.Error("expected no upstream call")
	}
}

func TestRelayShapesCall(t *testing.T) {
	client := &llm.ScriptedClient{}
	relay := newRelay(client, "key")

	t.Run("history_filtered_and_model_override", func(t *testing.T) {
		collect(t, relay.Stream(context.Background(), models.GenerationRequest{
			SystemInstruction: "Be brief.",
			UserPrompt:        "next",
			SelectedModel:     "gemini-custom",
			ChatHistory: []models.ConversationTurn{
				{Role: models.RoleUser, Text: "q1"},
				{Role: "system", Text: "dropped"},
				{Role: models.RoleModel, Text: ""},
				{Role: models.RoleModel, Text: "a1"},
			},
		}))
		calls := client.Calls()
		call := calls[len(calls)-1]
		want := []models.ConversationTurn{
			{Role: models.RoleUser, Text: "q1"},
			{Role: models.RoleModel, Text: "a1"},
		}
		if !reflect.DeepEqual(call.History, want) {
			t.Errorf("expected history %v, got %v", want, call.History)
		}
		if call.Prompt != "next" {
			t.Errorf("expected prompt next, got %q", call.Prompt)
		}
		if call.Model != "gemini-custom" {
			t.Errorf("expected selected model, got %q", call.Model)
		}
		if call.SystemInstruction != "Be brief." {
			t.Errorf("expected system instruction, got %q", call.SystemInstruction)
		}
	})

	t.Run("blank_system_instruction_omitted", func(t *testing.T) {
		collect(t, relay.Stream(context.Background(), models.GenerationRequest{
			SystemInstruction: "  \n ",
			UserPrompt:        "",
		}))
		calls := client.Calls()
		call := calls[len(calls)-1]
		if call.SystemInstruction != "" {
			t.Errorf("expected no system instruction, got %q", call.SystemInstruction)
		}
		if call.Model != testModel {
			t.Errorf("expected default model, got %q", call.Model)
		}
		if call.Prompt != "" {
			t.Errorf("expected empty prompt forwarded as-is, got %q", call.Prompt)
		}
	})
}

func TestRelayCallerDisconnect(t *testing.T) {
	client := &llm.ScriptedClient{Fragments: []string{"a", "b"}, BlockAfterFragments: true}
	relay := newRelay(client, "key")

	ctx, cancel := context.WithCancel(context.Background())
	ch := relay.Stream(ctx, models.GenerationRequest{UserPrompt: "x"})

	first := <-ch
	second := <-ch
	if first.Text != "a" || second.Text != "b" {
		t.Fatalf("expected fragments a and b, got %+v %+v", first, second)
	}
	cancel()

	for ev := range ch {
		if ev.Kind == EventError {
			t.Errorf("expected no error event after caller disconnect, got %+v", ev)
		}
	}
	if !client.Closed() {
		t.Error("expected client to be closed after disconnect")
	}
}
