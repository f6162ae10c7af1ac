package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"FxBias/internal/domain/catalog"
	"FxBias/internal/domain/models"
	domrepo "FxBias/internal/domain/repository"
	"FxBias/internal/domain/service"
	xlogger "FxBias/pkg/logger"
	"FxBias/pkg/util"
)

const lockTimeout = 5 * time.Second

// ControllerOption configures JobController.
type ControllerOption func(*JobController)

// WithRunLock adds a cross-instance guard on top of the in-process one.
func WithRunLock(lock domrepo.RunLock) ControllerOption {
	return func(c *JobController) { c.lock = lock }
}

// WithEventPublisher announces finished runs.
func WithEventPublisher(p domrepo.EventPublisher) ControllerOption {
	return func(c *JobController) { c.publisher = p }
}

// WithEventStreamURL sets the page read once per run as recap context.
func WithEventStreamURL(url string) ControllerOption {
	return func(c *JobController) { c.eventStreamURL = url }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *JobController) { c.now = now }
}

// JobController owns the analysis job: at most one run at a time, launched in
// the background and always returned to idle.
type JobController struct {
	cat       *catalog.Catalog
	risk      *RiskSentimentAggregator
	scorer    *IndicatorScorer
	agg       *CurrencyAggregator
	fetcher   service.ContentFetcher
	snapshots domrepo.SnapshotRepository
	metrics   domrepo.Metrics
	l         *xlogger.Logger

	lock           domrepo.RunLock
	publisher      domrepo.EventPublisher
	eventStreamURL string
	now            func() time.Time

	state  *JobState
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewJobController(
	cat *catalog.Catalog,
	risk *RiskSentimentAggregator,
	scorer *IndicatorScorer,
	agg *CurrencyAggregator,
	fetcher service.ContentFetcher,
	snapshots domrepo.SnapshotRepository,
	metrics domrepo.Metrics,
	l *xlogger.Logger,
	opts ...ControllerOption,
) *JobController {
	if l == nil {
		l = xlogger.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &JobController{
		cat:       cat,
		risk:      risk,
		scorer:    scorer,
		agg:       agg,
		fetcher:   fetcher,
		snapshots: snapshots,
		metrics:   metrics,
		l:         l,
		now:       time.Now,
		state:     NewJobState(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Launch starts a run over the requested currencies (all when empty) and
// returns immediately. It fails with ErrUnknownCurrency for a bad code and
// *models.JobConflictError while another run is active.
func (c *JobController) Launch(ctx context.Context, currencies []string) (*models.LaunchResult, error) {
	resolved, err := c.cat.Resolve(currencies)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	startedAt := c.now()

	ok, holder := c.state.TryStart(runID, resolved, startedAt)
	if !ok {
		conflict := &models.JobConflictError{RunID: holder.RunID}
		if holder.StartedAt != nil {
			conflict.StartedAt = *holder.StartedAt
		}
		return nil, conflict
	}

	if c.lock != nil {
		lctx, cancel := context.WithTimeout(ctx, lockTimeout)
		acquired, holderStart, err := c.lock.Acquire(lctx, runID, startedAt)
		cancel()
		switch {
		case err != nil:
			c.l.Warn("run lock unavailable, relying on local guard", xlogger.Error(err))
		case !acquired:
			c.state.Finish("")
			return nil, &models.JobConflictError{StartedAt: holderStart}
		}
	}

	done := make(chan struct{})
	c.wg.Add(1)
	go c.run(runID, resolved, startedAt, done)

	c.l.Info("analysis run launched",
		xlogger.String("run_id", runID),
		xlogger.Strings("currencies", resolved),
	)
	return &models.LaunchResult{RunID: runID, Currencies: resolved, StartedAt: startedAt, Done: done}, nil
}

func (c *JobController) Status() models.JobStatus {
	return c.state.Status(c.now())
}

// Close cancels an in-flight run and waits for it to unwind.
func (c *JobController) Close(ctx context.Context) error {
	c.cancel()
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for analysis run: %w", ctx.Err())
	}
}

func (c *JobController) run(runID string, currencies []string, startedAt time.Time, done chan struct{}) {
	defer c.wg.Done()
	defer close(done)

	summary := &models.RunSummary{RunID: runID, Currencies: currencies, Outcome: models.RunCompleted}
	defer func() {
		c.state.Finish(summary.Outcome)
	}()
	defer func() {
		if r := recover(); r != nil {
			summary.Outcome = models.RunPanicked
			summary.Error = fmt.Sprint(r)
			c.l.Error("analysis run panicked",
				xlogger.String("run_id", runID),
				xlogger.Any("panic", r),
				xlogger.String("stack", string(debug.Stack())),
			)
		}
		c.finish(summary, startedAt)
	}()

	if err := c.execute(c.ctx, currencies, summary); err != nil {
		summary.Outcome = models.RunFailed
		summary.Error = err.Error()
		c.l.Error("analysis run failed", xlogger.String("run_id", runID), xlogger.Error(err))
	}
}

func (c *JobController) execute(ctx context.Context, currencies []string, summary *models.RunSummary) error {
	c.state.SetProgress("Assessing market risk sentiment")

	var (
		risk   models.RiskAssessment
		events string
		wg     sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer guard(c.l, "risk assessment", func(interface{}) {
			risk = models.RiskAssessment{Degraded: true}
		})
		risk = c.risk.Assess(ctx)
	}()
	go func() {
		defer wg.Done()
		defer guard(c.l, "event stream fetch", func(interface{}) { events = "" })
		if c.eventStreamURL != "" {
			events = c.fetcher.Fetch(ctx, c.eventStreamURL)
		}
	}()
	wg.Wait()
	summary.RiskModifier = risk.Modifier

	data := make(map[string]models.CurrencyAnalysis, len(currencies))
	for _, cur := range currencies {
		if err := ctx.Err(); err != nil {
			return err
		}
		scores := make(map[string]models.IndicatorScore)

		for _, ind := range c.cat.Indicators {
			sources := c.cat.SourcesFor(cur, ind.Name)
			if len(sources) == 0 {
				continue
			}
			c.state.SetProgress(fmt.Sprintf("Analyzing %s - %s", cur, ind.Name))

			score, err := c.scorer.Score(ctx, cur, ind, sources)
			switch {
			case errors.Is(err, ErrNoContent):
				summary.Skipped++
				c.recordIndicator(cur, "skipped")
				c.l.Debug("indicator skipped, no content", xlogger.String("currency", cur), xlogger.String("indicator", ind.Name))
			case err != nil:
				summary.Failed++
				c.recordIndicator(cur, "failed")
				c.l.Warn("indicator scoring failed",
					xlogger.String("currency", cur),
					xlogger.String("indicator", ind.Name),
					xlogger.Error(err),
				)
			default:
				summary.Scored++
				c.recordIndicator(cur, "scored")
				scores[ind.Name] = score
			}
		}

		c.state.SetProgress(fmt.Sprintf("Generating recap for %s", cur))
		data[cur] = c.agg.Aggregate(ctx, cur, scores, risk.Modifier, events)
	}

	c.state.SetProgress("Saving results")
	now := c.now()
	snap := &models.AnalysisSnapshot{Date: util.DateKey(now), Data: data, UpdatedAt: now}
	if len(currencies) < len(c.cat.Currencies) {
		c.keepUntouched(ctx, snap)
	}
	summary.Date = snap.Date

	if err := c.snapshots.Upsert(ctx, snap); err != nil {
		return fmt.Errorf("persist snapshot %s: %w", snap.Date, err)
	}
	return nil
}

// keepUntouched carries over today's entries for currencies a partial run did not analyse.
func (c *JobController) keepUntouched(ctx context.Context, snap *models.AnalysisSnapshot) {
	prev, err := c.snapshots.Latest(ctx)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			c.l.Warn("could not load today's snapshot for merge", xlogger.Error(err))
		}
		return
	}
	if prev.Date != snap.Date {
		return
	}
	for cur, a := range prev.Data {
		if _, ok := snap.Data[cur]; !ok {
			snap.Data[cur] = a
		}
	}
}

func (c *JobController) finish(summary *models.RunSummary, startedAt time.Time) {
	summary.Duration = c.now().Sub(startedAt)
	summary.DurationMs = summary.Duration.Milliseconds()

	if c.metrics != nil {
		c.metrics.RecordRun(summary.Outcome, summary.Duration.Seconds())
	}

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	if c.lock != nil {
		if err := c.lock.Release(ctx, summary.RunID); err != nil {
			c.l.Warn("run lock release failed", xlogger.String("run_id", summary.RunID), xlogger.Error(err))
		}
	}
	if c.publisher != nil {
		if err := c.publisher.PublishRun(ctx, summary); err != nil {
			c.l.Warn("run event publish failed", xlogger.String("run_id", summary.RunID), xlogger.Error(err))
		}
	}

	c.l.Info("analysis run finished",
		xlogger.String("run_id", summary.RunID),
		xlogger.String("outcome", string(summary.Outcome)),
		xlogger.Int("scored", summary.Scored),
		xlogger.Int("skipped", summary.Skipped),
		xlogger.Int("failed", summary.Failed),
		xlogger.Duration("duration_ms", summary.Duration),
	)
}

func (c *JobController) recordIndicator(currency, outcome string) {
	if c.metrics != nil {
		c.metrics.RecordIndicator(currency, outcome)
	}
}
