package resolver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reslib/paper-metadata-api/internal/models"
)

// resultSchema is the wire contract for the agent's reply: an object with a
// string "title" and an array-of-strings "authors". Extra keys are tolerated;
// the model sometimes volunteers a confidence or commentary field.
const resultSchema = `{
	"type": "object",
	"properties": {
		"title": {"type": "string"},
		"authors": {
			"type": "array",
			"items": {"type": "string"}
		}
	},
	"required": ["title", "authors"]
}`

var compiledSchema = jsonschema.MustCompileString("extraction_result.json", resultSchema)

// ValidationError explains why a raw agent response was rejected.
type ValidationError struct {
	Reason string
	Raw    string
}

func (e *ValidationError) Error() string {
	return "invalid agent response: " + e.Reason
}

// Validate decides in one place whether a raw agent response is usable.
// It strips a single fenced code block if present, checks the JSON against
// the wire contract, and decodes it. An empty authors list and an empty
// title are both valid; they are handled at persistence time, not here.
func Validate(raw string) (*models.ExtractionResult, error) {
	content := StripFence(raw)

	var v any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("not valid JSON: %v", err), Raw: raw}
	}

	if err := compiledSchema.Validate(v); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("does not match contract: %v", err), Raw: raw}
	}

	var result models.ExtractionResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("failed to decode: %v", err), Raw: raw}
	}

	result.Title = strings.TrimSpace(result.Title)
	if result.Authors == nil {
		result.Authors = []string{}
	}

	return &result, nil
}

// StripFence removes one leading/trailing markdown code fence (with an
// optional language tag) so that fenced JSON still parses.
func StripFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// drop the language tag line, e.g. "json"
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "" || !strings.ContainsAny(first, "{[") {
			s = s[idx+1:]
		}
	}

	s = strings.TrimSpace(s)
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}
