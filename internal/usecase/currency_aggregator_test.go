package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FxBias/internal/domain/models"
)

func scoresOf(kv map[string]int) map[string]models.IndicatorScore {
	out := make(map[string]models.IndicatorScore, len(kv))
	for k, v := range kv {
		out[k] = models.IndicatorScore{Indicator: k, Score: v, Rationale: "r"}
	}
	return out
}

func TestComposite(t *testing.T) {
	agg := NewCurrencyAggregator(&stubReasoner{}, testCatalog(t), nil, nil)

	tests := []struct {
		name   string
		scores map[string]int
		want   int
	}{
		{"empty", nil, 0},
		{"pmi averaged", map[string]int{"Manufacturing PMI": 2, "Services PMI": 1, "CPI": 1}, 3},
		{"half rounds up", map[string]int{"Manufacturing PMI": 1, "Services PMI": 0}, 1},
		{"negative half rounds toward zero", map[string]int{"Manufacturing PMI": -1, "Services PMI": 0}, 0},
		{"single pmi counts alone", map[string]int{"Services PMI": -2, "COT": -1}, -3},
		{"ungrouped summed", map[string]int{"CPI": 2, "COT": 2}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, agg.Composite(scoresOf(tt.scores)))
		})
	}
}

func TestDirectionOf(t *testing.T) {
	assert.Equal(t, models.DirectionBullish, DirectionOf(1))
	assert.Equal(t, models.DirectionBearish, DirectionOf(-1))
	assert.Equal(t, models.DirectionNeutral, DirectionOf(0))
}

func TestAggregateWithRecap(t *testing.T) {
	reasoner := &stubReasoner{recap: `{"bias": "Bullish", "narrativeReasoning": "solid data", "eventModifiers": [
		{"heading": "NFP beat", "flag": "Green Flag", "description": "jobs strong"},
		{"heading": "noise", "flag": "Purple Flag", "description": "dropped"}
	]}`}
	agg := NewCurrencyAggregator(reasoner, testCatalog(t), nil, nil)

	out := agg.Aggregate(context.Background(), "USD", scoresOf(map[string]int{"CPI": 2}), -1, "NFP 250k vs 180k")
	assert.Equal(t, "USD", out.Currency)
	assert.Equal(t, 2, out.CompositeScore)
	assert.Equal(t, models.DirectionBullish, out.Direction)
	assert.Equal(t, -1, out.RiskModifier)
	assert.Equal(t, 0, out.EventModifierScore)
	require.NotNil(t, out.Recap)
	assert.Equal(t, models.BiasBullish, out.Recap.Bias)
	require.Len(t, out.Recap.EventModifiers, 1)
	assert.Equal(t, models.FlagGreen, out.Recap.EventModifiers[0].Flag)

	prompts := reasoner.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], `Analyze the scored data for USD: {"CPI":{"score":2,"rationale":"r"}}`)
	assert.Contains(t, prompts[0], "live economic events stream for context: NFP 250k vs 180k.")
}

func TestAggregateToleratesRecapFailure(t *testing.T) {
	agg := NewCurrencyAggregator(&stubReasoner{recapErr: errors.New("quota")}, testCatalog(t), nil, nil)

	out := agg.Aggregate(context.Background(), "EUR", nil, 0, "")
	assert.Nil(t, out.Recap)
	assert.Equal(t, 0, out.CompositeScore)
	assert.Equal(t, models.DirectionNeutral, out.Direction)
	assert.NotNil(t, out.Scores)

	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"currency":"EUR","scores":{},"baseScore":0,"direction":"Neutral","riskModifier":0,"eventModifierScore":0}`, string(b))
}
