package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONBare(t *testing.T) {
	raw, err := ExtractJSON(`{"intent_type": "lookup", "entities": []}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"intent_type": "lookup", "entities": []}`, string(raw))
}

func TestExtractJSONFenced(t *testing.T) {
	text := "Here is the result:\n```json\n{\"answer\": \"42\"}\n```\nDone."
	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer": "42"}`, string(raw))
}

func TestExtractJSONSurroundingProse(t *testing.T) {
	text := `Sure! The plan is {"query_plans": [{"sql": "SELECT 1"}]} as requested.`
	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query_plans": [{"sql": "SELECT 1"}]}`, string(raw))
}

func TestExtractJSONNestedAndStrings(t *testing.T) {
	text := `{"a": {"b": "braces } in { string"}, "c": 1}`
	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, text, string(raw))
}

func TestExtractJSONNoObject(t *testing.T) {
	_, err := ExtractJSON("no json here at all")
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestExtractJSONUnbalanced(t *testing.T) {
	_, err := ExtractJSON(`{"a": 1`)
	assert.ErrorIs(t, err, ErrNoJSON)
}
