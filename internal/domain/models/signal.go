package models

// RiskSignal is the per-series risk reading.
type RiskSignal string

const (
	RiskOn      RiskSignal = "Risk-On"
	RiskOff     RiskSignal = "Risk-Off"
	RiskNeutral RiskSignal = "Neutral"
)

// SeriesKey names one of the market series feeding the risk assessment.
type SeriesKey string

const (
	SeriesEquity     SeriesKey = "equity"
	SeriesVolatility SeriesKey = "volatility"
	SeriesRiskFX     SeriesKey = "risk_fx"
	SeriesLongYield  SeriesKey = "long_yield"
)

// RiskSeries lists the series in the order they are reported.
var RiskSeries = []SeriesKey{SeriesEquity, SeriesVolatility, SeriesRiskFX, SeriesLongYield}

// DataPoint is one daily observation. Series are ordered oldest first.
type DataPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// RiskAssessment is the outcome of one risk-sentiment pass.
// Modifier is +1, 0 or -1. Degraded is set when any series could not be fetched,
// in which case Modifier is 0 and Signals may be partial.
type RiskAssessment struct {
	Modifier int                      `json:"modifier"`
	Signals  map[SeriesKey]RiskSignal `json:"signals,omitempty"`
	Degraded bool                     `json:"degraded"`
}
