package reasoning

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FxBias/internal/domain/models"
)

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"score\":1}\n```": `{"score":1}`,
		"```\n{\"score\":1}```":       `{"score":1}`,
		"  {\"score\":1}  ":           `{"score":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, StripFences(in), in)
	}
}

func TestParseScore(t *testing.T) {
	s, err := ParseScore("```json\n{\"score\": 2, \"rationale\": \"PMI above 50 and rising\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Score)
	assert.Equal(t, "PMI above 50 and rising", s.Rationale)

	s, err = ParseScore(`{"score": -1.0, "rationale": "soft"}`)
	require.NoError(t, err)
	assert.Equal(t, -1, s.Score)
}

func TestParseScoreRejects(t *testing.T) {
	cases := map[string]ParseErrorKind{
		`{"score": 3, "rationale": "x"}`:   KindOutOfRange,
		`{"score": -2.5, "rationale": "x"}`: KindOutOfRange,
		`{"score": 1.5, "rationale": "x"}`: KindOutOfRange,
		`{"rationale": "x"}`:               KindMissingField,
		`score is two`:                     KindMalformed,
		`{"score": true}`:                  KindMalformed,
	}
	for raw, kind := range cases {
		_, err := ParseScore(raw)
		var pe *ParseError
		require.True(t, errors.As(err, &pe), raw)
		assert.Equal(t, kind, pe.Kind, raw)
		assert.Equal(t, raw, pe.Raw)
	}
}

func TestParseRecap(t *testing.T) {
	r, err := ParseRecap(`{"bias":"Bullish","narrativeReasoning":"Strong PMI.","eventModifiers":[
		{"heading":"NFP","flag":"Green Flag","description":"beat"},
		{"heading":"Noise","flag":"Purple Flag","description":"?"}]}`)
	require.NoError(t, err)
	assert.Equal(t, models.BiasBullish, r.Bias)
	require.Len(t, r.EventModifiers, 1)
	assert.Equal(t, models.FlagGreen, r.EventModifiers[0].Flag)
}

func TestParseRecapRejectsUnknownBias(t *testing.T) {
	_, err := ParseRecap(`{"bias":"Moon","narrativeReasoning":"","eventModifiers":[]}`)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindInvalidValue, pe.Kind)
}

func TestPrompts(t *testing.T) {
	p := ScoringPrompt("USD", "CPI", "Target is 2%", "CPI 3.1%")
	assert.Contains(t, p, `regarding "CPI"`)
	assert.Contains(t, p, "\n\nRules: Target is 2%\n\nData: CPI 3.1%")

	r := RecapPrompt("EUR", `{"CPI":{"score":1}}`, "ECB speaks")
	assert.Contains(t, r, `Analyze the scored data for EUR: {"CPI":{"score":1}}.`)
	assert.Contains(t, r, "live economic events stream for context: ECB speaks.")
}
