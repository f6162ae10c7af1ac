package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"FxBias/internal/domain/catalog"
	"FxBias/internal/domain/models"
	domrepo "FxBias/internal/domain/repository"
	"FxBias/internal/domain/service"
	"FxBias/internal/service/reasoning"
	xlogger "FxBias/pkg/logger"
)

const DefaultMaxContentChars = 15000

// ErrNoContent marks a pair that was skipped because nothing readable was retrieved.
var ErrNoContent = errors.New("no content retrieved")

// IndicatorScorer scores one (currency, indicator) pair from its sources.
type IndicatorScorer struct {
	fetcher  service.ContentFetcher
	reasoner service.Reasoner
	maxChars int
	metrics  domrepo.Metrics
	l        *xlogger.Logger
}

func NewIndicatorScorer(
	fetcher service.ContentFetcher,
	reasoner service.Reasoner,
	maxChars int,
	metrics domrepo.Metrics,
	l *xlogger.Logger,
) *IndicatorScorer {
	if maxChars <= 0 {
		maxChars = DefaultMaxContentChars
	}
	if l == nil {
		l = xlogger.NewNop()
	}
	return &IndicatorScorer{fetcher: fetcher, reasoner: reasoner, maxChars: maxChars, metrics: metrics, l: l}
}

// Score retrieves every source concurrently, joins the text and asks for a score.
// It returns ErrNoContent when there is nothing to score, a *reasoning.ParseError
// for an unusable reply, or the reasoning service's own error.
func (s *IndicatorScorer) Score(ctx context.Context, currency string, ind catalog.Indicator, sources []string) (models.IndicatorScore, error) {
	if len(sources) == 0 {
		return models.IndicatorScore{}, ErrNoContent
	}

	content := s.collect(ctx, sources)
	if strings.TrimSpace(content) == "" {
		return models.IndicatorScore{}, ErrNoContent
	}

	prompt := reasoning.ScoringPrompt(currency, ind.Name, ind.RulesText(), content)

	start := time.Now()
	reply, err := s.reasoner.Complete(ctx, prompt)
	if s.metrics != nil {
		s.metrics.RecordLatency("reasoning_score", time.Since(start).Seconds())
	}
	if err != nil {
		return models.IndicatorScore{}, fmt.Errorf("score %s %s: %w", currency, ind.Name, err)
	}

	score, err := reasoning.ParseScore(reply)
	if err != nil {
		return models.IndicatorScore{}, fmt.Errorf("score %s %s: %w", currency, ind.Name, err)
	}
	score.Indicator = ind.Name
	return score, nil
}

func (s *IndicatorScorer) collect(ctx context.Context, sources []string) string {
	texts := make([]string, len(sources))
	var wg sync.WaitGroup
	for i, url := range sources {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			defer guard(s.l, "fetch "+url, func(interface{}) { texts[i] = "" })
			texts[i] = s.fetcher.Fetch(ctx, url)
		}(i, url)
	}
	wg.Wait()

	return TruncateRunes(strings.Join(texts, "\n\n"), s.maxChars)
}

// TruncateRunes cuts s to at most n characters without splitting a rune.
func TruncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
