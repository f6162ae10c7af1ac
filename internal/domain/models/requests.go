package models

// Requests accepted by the HTTP boundary.

type LaunchRequest struct {
	Currencies []string `query:"currency" json:"currencies" validate:"omitempty,max=16,dive,len=3,alpha"`
}

// OverrideRequest mirrors the override body. Values are decoded untyped so the
// ledger can tell strings, numbers and absent/null values apart.
type OverrideRequest struct {
	Type            string      `json:"type"`
	CurrencyCode    string      `json:"currencyCode"`
	Indicator       string      `json:"indicator"`
	OriginalValue   interface{} `json:"originalValue"`
	OverriddenValue interface{} `json:"overriddenValue"`
	Justification   string      `json:"justification"`
}

// TriggerMessage is the payload of a remote launch request on the trigger topic.
type TriggerMessage struct {
	Currencies  []string `json:"currencies" validate:"omitempty,max=16,dive,len=3,alpha"`
	RequestedBy string   `json:"requestedBy"`
}
