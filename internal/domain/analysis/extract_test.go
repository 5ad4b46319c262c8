package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractResultPlainJSON(t *testing.T) {
	raw := `{"viralityScore": 87, "emotionalTone": "Excitement", "suggestions": ["Add a hook", "Use hashtags"]}`

	res, ok := ExtractResult(raw)
	require.True(t, ok)
	assert.Equal(t, 87, res.ViralityScore)
	assert.Equal(t, "Excitement", res.EmotionalTone)
	assert.Equal(t, []string{"Add a hook", "Use hashtags"}, res.Suggestions)
}

func TestExtractResultFencedJSON(t *testing.T) {
	raw := "```json\n{\"viralityScore\": 42, \"emotionalTone\": \"Calm\", \"suggestions\": [\"Shorten it\"]}\n```"

	res, ok := ExtractResult(raw)
	require.True(t, ok)
	assert.Equal(t, 42, res.ViralityScore)
	assert.Equal(t, "Calm", res.EmotionalTone)
}

func TestExtractResultEmbeddedInProse(t *testing.T) {
	raw := `Sure! Here is the analysis you asked for:
{"viralityScore": 63, "emotionalTone": "Humor", "suggestions": ["Mention {trending} topics", "Ask a question"]}
Let me know if you need anything else.`

	res, ok := ExtractResult(raw)
	require.True(t, ok)
	assert.Equal(t, 63, res.ViralityScore)
	// The brace inside a string value must not end the scan early.
	assert.Equal(t, []string{"Mention {trending} topics", "Ask a question"}, res.Suggestions)
}

func TestExtractResultNestedObject(t *testing.T) {
	raw := `prefix {"viralityScore": 70, "emotionalTone": "Bold", "suggestions": ["a"], "extra": {"nested": true}} suffix`

	res, ok := ExtractResult(raw)
	require.True(t, ok)
	assert.Equal(t, 70, res.ViralityScore)
}

func TestExtractResultNoJSONDegrades(t *testing.T) {
	res, ok := ExtractResult("The model refused to answer in the requested format.")
	require.False(t, ok)
	assert.Equal(t, DegradedResult(), res)
	assert.Equal(t, DefaultScore, res.ViralityScore)
	assert.Equal(t, DefaultTone, res.EmotionalTone)
	assert.Len(t, res.Suggestions, 1)
}

func TestExtractResultEmptyInputDegrades(t *testing.T) {
	res, ok := ExtractResult("")
	require.False(t, ok)
	assert.Equal(t, DegradedResult(), res)
}

func TestExtractResultScoreAsString(t *testing.T) {
	res, ok := ExtractResult(`{"viralityScore": "88", "emotionalTone": "Hype", "suggestions": ["x"]}`)
	require.True(t, ok)
	assert.Equal(t, 88, res.ViralityScore)
}

func TestExtractResultScoreAsFloat(t *testing.T) {
	res, ok := ExtractResult(`{"viralityScore": 73.6, "emotionalTone": "Warm", "suggestions": ["x"]}`)
	require.True(t, ok)
	assert.Equal(t, 73, res.ViralityScore)
}

func TestClampBounds(t *testing.T) {
	assert.Equal(t, 100, Result{ViralityScore: 120, EmotionalTone: "x", Suggestions: []string{"s"}}.Clamp().ViralityScore)
	assert.Equal(t, 0, Result{ViralityScore: -3, EmotionalTone: "x", Suggestions: []string{"s"}}.Clamp().ViralityScore)
}

func TestClampFillsEmptyFields(t *testing.T) {
	res := Result{ViralityScore: 50}.Clamp()
	assert.Equal(t, DefaultTone, res.EmotionalTone)
	assert.NotEmpty(t, res.Suggestions)
}

func TestExtractResultMissingFields(t *testing.T) {
	res, ok := ExtractResult(`{"emotionalTone": "Flat"}`)
	require.True(t, ok)
	assert.Equal(t, DefaultScore, res.ViralityScore)
	assert.Equal(t, "Flat", res.EmotionalTone)
	assert.NotEmpty(t, res.Suggestions)
}
