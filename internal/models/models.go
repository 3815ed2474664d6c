package models

import (
	"encoding/json"
	"strings"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// DefaultTaskCategory is used when a SubtaskRequest leaves the category blank.
const DefaultTaskCategory = "general"

// GenerationRequest is the body of a streaming generation call.
type GenerationRequest struct {
	SystemInstruction string             `json:"systemInstruction,omitempty"`
	UserPrompt        string             `json:"userPrompt"`
	ChatHistory       []ConversationTurn `json:"chatHistory,omitempty"`
	SelectedModel     string             `json:"selectedModel,omitempty"`
	CustomAPIKey      string             `json:"customApiKey,omitempty"`
}

type ConversationTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// UnmarshalJSON accepts both {"role","text"} and the Gemini content shape
// {"role","parts":[{"text"}]}; part texts are concatenated. A turn whose role
// or text is not a JSON string decodes to an empty field instead of failing
// the request, so FilterTurns drops it.
func (t *ConversationTurn) UnmarshalJSON(b []byte) error {
	*t = ConversationTurn{}
	var raw struct {
		Role  json.RawMessage `json:"role"`
		Text  json.RawMessage `json:"text"`
		Parts json.RawMessage `json:"parts"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		// not an object
		return nil
	}
	role, _ := stringValue(raw.Role)
	t.Role = Role(role)
	t.Text, _ = stringValue(raw.Text)
	if t.Text == "" && len(raw.Parts) > 0 {
		var parts []struct {
			Text json.RawMessage `json:"text"`
		}
		if err := json.Unmarshal(raw.Parts, &parts); err != nil {
			return nil
		}
		var sb strings.Builder
		for _, p := range parts {
			text, _ := stringValue(p.Text)
			sb.WriteString(text)
		}
		t.Text = sb.String()
	}
	return nil
}

func stringValue(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// FilterTurns drops turns whose role is not user or model, or whose text is
// empty. Order of the remaining turns is preserved.
func FilterTurns(turns []ConversationTurn) []ConversationTurn {
	out := make([]ConversationTurn, 0, len(turns))
	for _, t := range turns {
		if t.Role != RoleUser && t.Role != RoleModel {
			continue
		}
		if t.Text == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SubtaskRequest is the body of a subtask generation call.
type SubtaskRequest struct {
	TaskTitle     string `json:"taskTitle"`
	TaskCategory  string `json:"taskCategory,omitempty"`
	SelectedModel string `json:"selectedModel,omitempty"`
	CustomAPIKey  string `json:"customApiKey,omitempty"`
}

// Category returns the task category, or DefaultTaskCategory if blank.
func (r SubtaskRequest) Category() string {
	if c := strings.TrimSpace(r.TaskCategory); c != "" {
		return c
	}
	return DefaultTaskCategory
}

// SubtaskList is an ordered list of actionable steps.
type SubtaskList []string
