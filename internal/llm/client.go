// Package llm wraps the model provider behind the minimal contract the
// pipeline depends on: given a prompt and a respond-as-JSON directive,
// return a JSON object or an error.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when the model reply contains no parseable JSON object.
var ErrNoJSON = errors.New("llm: response contains no JSON object")

// Client is the capability boundary between the pipeline and the LLM provider.
type Client interface {
	// CompleteJSON sends system+user prompts and returns the JSON object
	// embedded in the model's reply.
	CompleteJSON(ctx context.Context, system, prompt string, temperature float64) (json.RawMessage, error)
}

// ExtractJSON pulls the first JSON object out of a model reply. Models are
// instructed to answer with bare JSON but occasionally wrap it in a code
// fence or surrounding prose.
func ExtractJSON(text string) (json.RawMessage, error) {
	// Prefer a fenced block when present.
	if body, ok := fencedBlock(text); ok {
		text = body
	}

	start := strings.IndexByte(text, '{')
	if start == -1 {
		return nil, ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if !json.Valid([]byte(candidate)) {
					return nil, ErrNoJSON
				}
				return json.RawMessage(candidate), nil
			}
		}
	}
	return nil, ErrNoJSON
}

func fencedBlock(text string) (string, bool) {
	for _, tag := range []string{"```json", "```JSON", "```"} {
		idx := strings.Index(text, tag)
		if idx == -1 {
			continue
		}
		body := text[idx+len(tag):]
		if end := strings.Index(body, "```"); end != -1 {
			return body[:end], true
		}
	}
	return "", false
}
