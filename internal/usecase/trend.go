package usecase

import (
	"github.com/markcheno/go-talib"

	"FxBias/internal/domain/models"
)

const (
	ShortWindow = 20
	LongWindow  = 50
)

// SMA returns the simple moving average of values over period, one entry per
// complete window. It is nil when the series is shorter than the window.
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	// talib pads the lookback with zeros.
	return talib.Sma(values, period)[period-1:]
}

// ClassifyTrend reads a series (oldest first) as Risk-On when latest > SMA20 > SMA50,
// Risk-Off when latest < SMA20 < SMA50, and Neutral otherwise or when the series
// is shorter than the long window.
func ClassifyTrend(series []models.DataPoint) models.RiskSignal {
	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}

	short := SMA(values, ShortWindow)
	long := SMA(values, LongWindow)
	if len(short) == 0 || len(long) == 0 {
		return models.RiskNeutral
	}

	latest := values[len(values)-1]
	s := short[len(short)-1]
	l := long[len(long)-1]

	switch {
	case latest > s && s > l:
		return models.RiskOn
	case latest < s && s < l:
		return models.RiskOff
	default:
		return models.RiskNeutral
	}
}
