package usecase

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"FxBias/internal/domain/catalog"
	"FxBias/internal/domain/models"
	domrepo "FxBias/internal/domain/repository"
	"FxBias/internal/domain/service"
	"FxBias/internal/service/reasoning"
	xlogger "FxBias/pkg/logger"
)

// NeutralBand is the half-width of the composite range read as Neutral.
// Composites are integers, so any band below 1 behaves like 0.
const NeutralBand = 0

// CurrencyAggregator folds indicator scores into a composite and direction,
// then asks for a narrative recap.
type CurrencyAggregator struct {
	reasoner service.Reasoner
	groupOf  map[string]string
	groups   map[string][]string
	metrics  domrepo.Metrics
	l        *xlogger.Logger
}

func NewCurrencyAggregator(reasoner service.Reasoner, cat *catalog.Catalog, metrics domrepo.Metrics, l *xlogger.Logger) *CurrencyAggregator {
	if l == nil {
		l = xlogger.NewNop()
	}
	groups := cat.Groups()
	groupOf := make(map[string]string)
	for g, members := range groups {
		for _, m := range members {
			groupOf[m] = g
		}
	}
	return &CurrencyAggregator{reasoner: reasoner, groupOf: groupOf, groups: groups, metrics: metrics, l: l}
}

// Composite averages each group's present scores, adds every ungrouped score and
// rounds half up. Missing indicators contribute nothing.
func (a *CurrencyAggregator) Composite(scores map[string]models.IndicatorScore) int {
	total := 0.0
	for _, members := range a.groups {
		sum, n := 0, 0
		for _, m := range members {
			if s, ok := scores[m]; ok {
				sum += s.Score
				n++
			}
		}
		if n > 0 {
			total += float64(sum) / float64(n)
		}
	}
	for name, s := range scores {
		if _, grouped := a.groupOf[name]; !grouped {
			total += float64(s.Score)
		}
	}
	return int(math.Floor(total + 0.5))
}

func DirectionOf(composite int) models.Direction {
	switch {
	case composite > NeutralBand:
		return models.DirectionBullish
	case composite < -NeutralBand:
		return models.DirectionBearish
	default:
		return models.DirectionNeutral
	}
}

// Aggregate builds the currency's analysis. A failed recap is logged and the
// analysis is returned without one.
func (a *CurrencyAggregator) Aggregate(
	ctx context.Context,
	currency string,
	scores map[string]models.IndicatorScore,
	riskModifier int,
	events string,
) models.CurrencyAnalysis {
	if scores == nil {
		scores = map[string]models.IndicatorScore{}
	}
	composite := a.Composite(scores)
	out := models.CurrencyAnalysis{
		Currency:       currency,
		Scores:         scores,
		CompositeScore: composite,
		Direction:      DirectionOf(composite),
		RiskModifier:   riskModifier,
	}

	recap, err := a.recap(ctx, currency, scores, events)
	if err != nil {
		a.l.Warn("recap failed",
			xlogger.String("currency", currency),
			xlogger.Error(err),
		)
		if a.metrics != nil {
			a.metrics.RecordError("recap")
		}
		return out
	}
	out.Recap = recap
	return out
}

func (a *CurrencyAggregator) recap(ctx context.Context, currency string, scores map[string]models.IndicatorScore, events string) (*models.EconomicRecap, error) {
	payload, err := json.Marshal(scores)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	reply, err := a.reasoner.Complete(ctx, reasoning.RecapPrompt(currency, string(payload), events))
	if a.metrics != nil {
		a.metrics.RecordLatency("reasoning_recap", time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	return reasoning.ParseRecap(reply)
}
