package models

import "time"

type Direction string

const (
	DirectionBullish Direction = "Bullish"
	DirectionBearish Direction = "Bearish"
	DirectionNeutral Direction = "Neutral"
)

// Bias is the narrative label produced by a recap or entered by an analyst.
type Bias string

const (
	BiasVeryBullish Bias = "Very Bullish"
	BiasBullish     Bias = "Bullish"
	BiasNeutral     Bias = "Neutral"
	BiasBearish     Bias = "Bearish"
	BiasVeryBearish Bias = "Very Bearish"
)

// BiasValues is the closed bias vocabulary, strongest bullish first.
var BiasValues = []Bias{BiasVeryBullish, BiasBullish, BiasNeutral, BiasBearish, BiasVeryBearish}

func (b Bias) Valid() bool {
	for _, v := range BiasValues {
		if b == v {
			return true
		}
	}
	return false
}

type Flag string

const (
	FlagGreen  Flag = "Green Flag"
	FlagYellow Flag = "Yellow Flag"
	FlagRed    Flag = "Red Flag"
)

const (
	MinScore = -2
	MaxScore = 2
)

// IndicatorScore is the reasoning service's verdict for one (currency, indicator) pair.
type IndicatorScore struct {
	Indicator string `json:"-"`
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

type EventModifier struct {
	Heading     string `json:"heading"`
	Flag        Flag   `json:"flag"`
	Description string `json:"description"`
}

type EconomicRecap struct {
	Bias               Bias            `json:"bias"`
	NarrativeReasoning string          `json:"narrativeReasoning"`
	EventModifiers     []EventModifier `json:"eventModifiers"`
}

// CurrencyAnalysis is one currency's entry in a daily snapshot.
// EventModifierScore is always 0; it is kept so stored documents keep their shape.
type CurrencyAnalysis struct {
	Currency           string                    `json:"currency"`
	Scores             map[string]IndicatorScore `json:"scores"`
	CompositeScore     int                       `json:"baseScore"`
	Direction          Direction                 `json:"direction"`
	RiskModifier       int                       `json:"riskModifier"`
	EventModifierScore int                       `json:"eventModifierScore"`
	Recap              *EconomicRecap            `json:"recap,omitempty"`
}

// AnalysisSnapshot holds every currency's analysis for one UTC calendar day.
type AnalysisSnapshot struct {
	Date      string                      `json:"date"`
	Data      map[string]CurrencyAnalysis `json:"data"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}
