// Package sanitizer pulls a JSON payload out of model output and checks it
// against the shape the caller expects.
//
// Validation has two stages. A candidate that does not parse fails with
// StageSyntax; a candidate that parses to the wrong shape fails with
// StageShape. Both are reported as *ValidationError so diagnostics can tell
// them apart even though callers surface a single malformed-response kind.
package sanitizer

import (
	"fmt"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/example/genai-gateway/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fencePattern matches text wrapped in a fenced code block with an optional
// language tag. The body is greedy so inner fences stay part of the body.
var fencePattern = regexp.MustCompile("(?s)^```([A-Za-z0-9_+.\\-]*)[ \\t]*\\r?\\n(.*)```$")

type Stage string

const (
	StageSyntax Stage = "syntax_invalid"
	StageShape  Stage = "shape_invalid"
)

type ValidationError struct {
	Stage Stage
	// Raw is the candidate text that failed.
	Raw string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ExtractJSON returns the trimmed body of a fenced block, or the trimmed raw
// text when it is not fenced.
func ExtractJSON(raw string) string {
	text := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[2])
	}
	return text
}

// ValidateSubtaskList parses candidate and requires an array whose elements
// are all strings. Any array length, including zero, is accepted.
func ValidateSubtaskList(candidate string) (models.SubtaskList, error) {
	var parsed any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil, &ValidationError{Stage: StageSyntax, Raw: candidate, Err: err}
	}

	items, ok := parsed.([]any)
	if !ok {
		return nil, &ValidationError{
			Stage: StageShape,
			Raw:   candidate,
			Err:   fmt.Errorf("expected a JSON array, got %s", describe(parsed)),
		}
	}
	out := make(models.SubtaskList, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, &ValidationError{
				Stage: StageShape,
				Raw:   candidate,
				Err:   fmt.Errorf("element %d: expected a string, got %s", i, describe(item)),
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
