package models

import "time"

type OverrideType string

const (
	OverrideScore OverrideType = "score"
	OverrideBias  OverrideType = "bias"
)

// OverrideRecord is an append-only audit entry for a manual correction.
// Values keep whatever JSON type the analyst sent (float64 for scores, string for bias).
type OverrideRecord struct {
	ID              string       `json:"id"`
	Timestamp       time.Time    `json:"timestamp"`
	Type            OverrideType `json:"type"`
	CurrencyCode    string       `json:"currencyCode"`
	Indicator       string       `json:"indicator,omitempty"`
	OriginalValue   interface{}  `json:"originalValue"`
	OverriddenValue interface{}  `json:"overriddenValue"`
	Justification   string       `json:"justification,omitempty"`
}
