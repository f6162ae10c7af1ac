package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FxBias/internal/domain/models"
	domrepo "FxBias/internal/domain/repository"
	"FxBias/internal/domain/service"
	xlogger "FxBias/pkg/logger"
)

const (
	// VolatilityCalm and VolatilityStressed bound the neutral band of the volatility gauge.
	VolatilityCalm     = 20.0
	VolatilityStressed = 25.0

	// RiskQuorum is how many of the four readings must agree to move the modifier.
	RiskQuorum = 3
)

// ClassifyVolatility reads the latest value of the volatility gauge.
func ClassifyVolatility(series []models.DataPoint) models.RiskSignal {
	if len(series) == 0 {
		return models.RiskNeutral
	}
	latest := series[len(series)-1].Value
	switch {
	case latest < VolatilityCalm:
		return models.RiskOn
	case latest > VolatilityStressed:
		return models.RiskOff
	default:
		return models.RiskNeutral
	}
}

// RiskSentimentAggregator turns four market series into a -1/0/+1 modifier.
type RiskSentimentAggregator struct {
	series  service.SeriesFetcher
	metrics domrepo.Metrics
	l       *xlogger.Logger
}

func NewRiskSentimentAggregator(series service.SeriesFetcher, metrics domrepo.Metrics, l *xlogger.Logger) *RiskSentimentAggregator {
	if l == nil {
		l = xlogger.NewNop()
	}
	return &RiskSentimentAggregator{series: series, metrics: metrics, l: l}
}

// Assess fetches every series in parallel and votes. A failed fetch degrades
// the result to a neutral modifier instead of failing the run.
func (a *RiskSentimentAggregator) Assess(ctx context.Context) models.RiskAssessment {
	start := time.Now()

	type item struct {
		key    models.SeriesKey
		series []models.DataPoint
		err    error
	}
	ch := make(chan item, len(models.RiskSeries))
	var wg sync.WaitGroup

	for _, key := range models.RiskSeries {
		wg.Add(1)
		go func(key models.SeriesKey) {
			defer wg.Done()
			defer guard(a.l, "fetch series "+string(key), func(r interface{}) {
				ch <- item{key: key, err: fmt.Errorf("series fetch panicked: %v", r)}
			})
			s, err := a.series.FetchSeries(ctx, key)
			ch <- item{key: key, series: s, err: err}
		}(key)
	}
	go func() { wg.Wait(); close(ch) }()

	fetched := make(map[models.SeriesKey][]models.DataPoint, len(models.RiskSeries))
	var firstErr error
	for it := range ch {
		if it.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", it.key, it.err)
			}
			continue
		}
		fetched[it.key] = it.series
	}

	if a.metrics != nil {
		a.metrics.RecordLatency("risk_assessment", time.Since(start).Seconds())
	}

	if firstErr != nil {
		a.l.Warn("risk sentiment degraded to neutral", xlogger.Error(firstErr))
		if a.metrics != nil {
			a.metrics.RecordError("risk_series")
			a.metrics.RecordRiskModifier(0)
		}
		return models.RiskAssessment{Modifier: 0, Degraded: true}
	}

	res := Vote(fetched)
	if a.metrics != nil {
		a.metrics.RecordRiskModifier(res.Modifier)
	}
	a.l.Info("risk sentiment assessed",
		xlogger.Int("modifier", res.Modifier),
		xlogger.Any("signals", res.Signals),
	)
	return res
}

// Vote classifies fully fetched series and applies the quorum rule.
func Vote(fetched map[models.SeriesKey][]models.DataPoint) models.RiskAssessment {
	signals := map[models.SeriesKey]models.RiskSignal{
		models.SeriesEquity:     ClassifyTrend(fetched[models.SeriesEquity]),
		models.SeriesVolatility: ClassifyVolatility(fetched[models.SeriesVolatility]),
		models.SeriesRiskFX:     ClassifyTrend(fetched[models.SeriesRiskFX]),
		models.SeriesLongYield:  ClassifyTrend(fetched[models.SeriesLongYield]),
	}

	on, off := 0, 0
	for _, s := range signals {
		switch s {
		case models.RiskOn:
			on++
		case models.RiskOff:
			off++
		}
	}

	res := models.RiskAssessment{Signals: signals}
	switch {
	case on >= RiskQuorum:
		res.Modifier = 1
	case off >= RiskQuorum:
		res.Modifier = -1
	}
	return res
}
