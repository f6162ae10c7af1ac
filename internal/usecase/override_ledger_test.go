package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FxBias/internal/domain/models"
)

func TestOverrideLedgerRecordsScore(t *testing.T) {
	repo := &memOverrides{}
	pub := &recordingPublisher{}
	ledger := NewOverrideLedger(repo, pub, nil)
	ledger.now = func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.FixedZone("CET", 3600)) }

	rec, err := ledger.Record(context.Background(), models.OverrideRequest{
		Type:            "score",
		CurrencyCode:    "USD",
		Indicator:       "CPI",
		OriginalValue:   float64(1),
		OverriddenValue: float64(2),
		Justification:   "hot print",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, time.UTC, rec.Timestamp.Location())
	assert.Equal(t, 11, rec.Timestamp.Hour())
	assert.Equal(t, "CPI", rec.Indicator)

	require.Len(t, repo.records, 1)
	assert.Same(t, rec, repo.records[0])
	assert.Len(t, pub.overrides, 1)
}

func TestOverrideLedgerBiasDropsIndicator(t *testing.T) {
	repo := &memOverrides{}
	ledger := NewOverrideLedger(repo, nil, nil)

	rec, err := ledger.Record(context.Background(), models.OverrideRequest{
		Type:            "bias",
		CurrencyCode:    "JPY",
		Indicator:       "CPI",
		OriginalValue:   "Neutral",
		OverriddenValue: "Very Bearish",
	})
	require.NoError(t, err)
	assert.Empty(t, rec.Indicator)
	assert.Equal(t, models.OverrideBias, rec.Type)
	assert.Len(t, repo.records, 1)
}

func TestOverrideLedgerRejects(t *testing.T) {
	tests := []struct {
		name string
		req  models.OverrideRequest
		msg  string
	}{
		{
			name: "missing original value",
			req:  models.OverrideRequest{Type: "score", CurrencyCode: "USD", Indicator: "CPI", OverriddenValue: float64(1)},
			msg:  "Missing required fields: type, currencyCode, originalValue, overriddenValue.",
		},
		{
			name: "missing type",
			req:  models.OverrideRequest{CurrencyCode: "USD", OriginalValue: float64(0), OverriddenValue: float64(1)},
			msg:  "Missing required fields: type, currencyCode, originalValue, overriddenValue.",
		},
		{
			name: "unknown type",
			req:  models.OverrideRequest{Type: "direction", CurrencyCode: "USD", OriginalValue: "a", OverriddenValue: "b"},
			msg:  `Field "type" must be one of: score, bias.`,
		},
		{
			name: "score without indicator",
			req:  models.OverrideRequest{Type: "score", CurrencyCode: "USD", OriginalValue: float64(0), OverriddenValue: float64(1)},
			msg:  `Field "indicator" is required for a "score" override.`,
		},
		{
			name: "score with string value",
			req:  models.OverrideRequest{Type: "score", CurrencyCode: "USD", Indicator: "CPI", OriginalValue: float64(0), OverriddenValue: "2"},
			msg:  `Values for a "score" override must be numbers.`,
		},
		{
			name: "bias outside vocabulary",
			req:  models.OverrideRequest{Type: "bias", CurrencyCode: "USD", OriginalValue: "Neutral", OverriddenValue: "Moon"},
			msg:  `Values for a "bias" override must be one of: Very Bullish, Bullish, Neutral, Bearish, Very Bearish`,
		},
		{
			name: "bias with number",
			req:  models.OverrideRequest{Type: "bias", CurrencyCode: "USD", OriginalValue: float64(1), OverriddenValue: "Bullish"},
			msg:  `Values for a "bias" override must be one of: Very Bullish, Bullish, Neutral, Bearish, Very Bearish`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memOverrides{}
			ledger := NewOverrideLedger(repo, nil, nil)

			_, err := ledger.Record(context.Background(), tt.req)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.msg, verr.Message)
			assert.Empty(t, repo.records)
		})
	}
}

func TestOverrideLedgerAcceptsUnlistedOriginalBias(t *testing.T) {
	ledger := NewOverrideLedger(&memOverrides{}, nil, nil)

	_, err := ledger.Record(context.Background(), models.OverrideRequest{
		Type:            "bias",
		CurrencyCode:    "GBP",
		OriginalValue:   "Slightly Bullish",
		OverriddenValue: "Bullish",
	})
	assert.NoError(t, err)
}
