package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FxBias/internal/domain/models"
)

var runDay = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

type controllerFixture struct {
	fetcher   *stubFetcher
	reasoner  *stubReasoner
	series    *stubSeries
	snapshots *memSnapshots
	publisher *recordingPublisher
}

func newFixture() *controllerFixture {
	return &controllerFixture{
		fetcher: &stubFetcher{pages: map[string]string{
			"https://src.test/usd/mpmi":  "ISM manufacturing 52.8",
			"https://src.test/usd/spmi":  "ISM services 51.0",
			"https://src.test/usd/cpi-a": "CPI 3.1% y/y",
			"https://src.test/usd/cpi-b": "core CPI 3.8%",
			"https://src.test/eur/mpmi":  "HCOB manufacturing 46.1",
		}},
		reasoner: &stubReasoner{
			scores: map[string]string{
				"Manufacturing PMI": `{"score": 2, "rationale": "expanding"}`,
				"Services PMI":      `{"score": 1, "rationale": "steady"}`,
				"CPI":               `{"score": 1, "rationale": "sticky"}`,
			},
			recap: `{"bias": "Bullish", "narrativeReasoning": "growth holds", "eventModifiers": []}`,
		},
		series:    &stubSeries{},
		snapshots: newMemSnapshots(),
		publisher: &recordingPublisher{},
	}
}

func (f *controllerFixture) controller(t *testing.T, opts ...ControllerOption) *JobController {
	t.Helper()
	cat := testCatalog(t)
	opts = append([]ControllerOption{
		WithClock(func() time.Time { return runDay }),
		WithEventPublisher(f.publisher),
	}, opts...)
	c := NewJobController(
		cat,
		NewRiskSentimentAggregator(f.series, nil, nil),
		NewIndicatorScorer(f.fetcher, f.reasoner, 0, nil, nil),
		NewCurrencyAggregator(f.reasoner, cat, nil, nil),
		f.fetcher,
		f.snapshots,
		nil,
		nil,
		opts...,
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Close(ctx)
	})
	return c
}

type fakeLock struct {
	acquired bool
	holder   time.Time
	err      error
	released []string
}

func (l *fakeLock) Acquire(context.Context, string, time.Time) (bool, time.Time, error) {
	return l.acquired, l.holder, l.err
}

func (l *fakeLock) Release(_ context.Context, owner string) error {
	l.released = append(l.released, owner)
	return nil
}

func TestLaunchPersistsSnapshot(t *testing.T) {
	f := newFixture()
	c := f.controller(t)

	res, err := c.Launch(context.Background(), []string{"usd"})
	require.NoError(t, err)
	assert.Equal(t, []string{"USD"}, res.Currencies)
	assert.NotEmpty(t, res.RunID)
	waitDone(t, res)

	snap, err := f.snapshots.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", snap.Date)
	require.Contains(t, snap.Data, "USD")

	usd := snap.Data["USD"]
	assert.Len(t, usd.Scores, 3)
	assert.Equal(t, 3, usd.CompositeScore)
	assert.Equal(t, models.DirectionBullish, usd.Direction)
	require.NotNil(t, usd.Recap)
	assert.Equal(t, models.BiasBullish, usd.Recap.Bias)

	runs := f.publisher.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunCompleted, runs[0].Outcome)
	assert.Equal(t, 3, runs[0].Scored)
	assert.Equal(t, res.RunID, runs[0].RunID)

	st := c.Status()
	assert.False(t, st.IsRunning)
	assert.Equal(t, "Idle", st.ProgressMessage)
	assert.Equal(t, models.RunCompleted, st.LastOutcome)
	assert.Nil(t, st.StartedAt)
}

func TestLaunchRejectsWhileRunning(t *testing.T) {
	f := newFixture()
	f.fetcher.block = make(chan struct{})
	c := f.controller(t)

	first, err := c.Launch(context.Background(), []string{"USD"})
	require.NoError(t, err)

	st := c.Status()
	assert.True(t, st.IsRunning)
	require.NotNil(t, st.StartedAt)
	assert.Equal(t, runDay, *st.StartedAt)

	_, err = c.Launch(context.Background(), nil)
	var conflict *models.JobConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.RunID, conflict.RunID)
	assert.Equal(t, runDay, conflict.StartedAt)

	close(f.fetcher.block)
	waitDone(t, first)
	assert.False(t, c.Status().IsRunning)

	second, err := c.Launch(context.Background(), []string{"EUR"})
	require.NoError(t, err)
	waitDone(t, second)
}

func TestFailingIndicatorsStillFinish(t *testing.T) {
	f := newFixture()
	f.reasoner.scores = map[string]string{}
	f.reasoner.recapErr = errors.New("service unavailable")
	c := f.controller(t)

	res, err := c.Launch(context.Background(), []string{"USD"})
	require.NoError(t, err)
	waitDone(t, res)

	assert.False(t, c.Status().IsRunning)
	runs := f.publisher.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunCompleted, runs[0].Outcome)
	assert.Equal(t, 3, runs[0].Failed)
	assert.Equal(t, 0, runs[0].Scored)

	snap, err := f.snapshots.Latest(context.Background())
	require.NoError(t, err)
	usd := snap.Data["USD"]
	assert.Empty(t, usd.Scores)
	assert.Equal(t, 0, usd.CompositeScore)
	assert.Equal(t, models.DirectionNeutral, usd.Direction)
	assert.Nil(t, usd.Recap)
}

func TestBlankSourcesAreSkipped(t *testing.T) {
	f := newFixture()
	f.fetcher.pages = map[string]string{}
	c := f.controller(t)

	res, err := c.Launch(context.Background(), []string{"EUR"})
	require.NoError(t, err)
	waitDone(t, res)

	runs := f.publisher.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Skipped)
	for _, p := range f.reasoner.Prompts() {
		assert.NotContains(t, p, "regarding")
	}
}

func TestSameDayRunsReplaceSnapshot(t *testing.T) {
	f := newFixture()
	c := f.controller(t)

	res, err := c.Launch(context.Background(), nil)
	require.NoError(t, err)
	waitDone(t, res)

	f.reasoner.scores = map[string]string{
		"Manufacturing PMI": `{"score": -2, "rationale": "contracting"}`,
		"Services PMI":      `{"score": -2, "rationale": "contracting"}`,
		"CPI":               `{"score": -1, "rationale": "cooling"}`,
	}
	res, err = c.Launch(context.Background(), []string{"EUR"})
	require.NoError(t, err)
	waitDone(t, res)

	history, err := f.snapshots.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)

	snap := history[0]
	assert.Equal(t, -2, snap.Data["EUR"].CompositeScore)
	// USD was not part of the second run and keeps the earlier result.
	assert.Equal(t, 3, snap.Data["USD"].CompositeScore)
}

func TestPanicReturnsToIdle(t *testing.T) {
	f := newFixture()
	f.reasoner.panicOn = "CPI"
	c := f.controller(t)

	res, err := c.Launch(context.Background(), []string{"USD"})
	require.NoError(t, err)
	waitDone(t, res)

	st := c.Status()
	assert.False(t, st.IsRunning)
	assert.Equal(t, "Idle", st.ProgressMessage)
	assert.Equal(t, models.RunPanicked, st.LastOutcome)

	runs := f.publisher.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunPanicked, runs[0].Outcome)

	_, err = f.snapshots.Latest(context.Background())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPersistFailureMarksRunFailed(t *testing.T) {
	f := newFixture()
	f.snapshots.err = errors.New("disk full")
	c := f.controller(t)

	res, err := c.Launch(context.Background(), []string{"USD"})
	require.NoError(t, err)
	waitDone(t, res)

	runs := f.publisher.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunFailed, runs[0].Outcome)
	assert.Contains(t, runs[0].Error, "disk full")
	assert.False(t, c.Status().IsRunning)
}

func TestLaunchUnknownCurrency(t *testing.T) {
	c := newFixture().controller(t)

	_, err := c.Launch(context.Background(), []string{"USD", "XAU"})
	assert.ErrorIs(t, err, models.ErrUnknownCurrency)
	assert.False(t, c.Status().IsRunning)
}

func TestRunLockHeldElsewhere(t *testing.T) {
	holder := runDay.Add(-time.Minute)
	lock := &fakeLock{acquired: false, holder: holder}
	c := newFixture().controller(t, WithRunLock(lock))

	_, err := c.Launch(context.Background(), nil)
	var conflict *models.JobConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, holder, conflict.StartedAt)
	assert.False(t, c.Status().IsRunning)
}

func TestRunLockErrorFallsBackToLocalGuard(t *testing.T) {
	lock := &fakeLock{err: errors.New("redis down")}
	c := newFixture().controller(t, WithRunLock(lock))

	res, err := c.Launch(context.Background(), []string{"EUR"})
	require.NoError(t, err)
	waitDone(t, res)
	assert.Equal(t, []string{res.RunID}, lock.released)
}

func TestEventStreamFeedsRecap(t *testing.T) {
	f := newFixture()
	f.fetcher.pages["https://events.test/stream"] = "ECB holds rates"
	c := f.controller(t, WithEventStreamURL("https://events.test/stream"))

	res, err := c.Launch(context.Background(), []string{"EUR"})
	require.NoError(t, err)
	waitDone(t, res)

	var recaps []string
	for _, p := range f.reasoner.Prompts() {
		if strings.Contains(p, "Provide an economic recap") {
			recaps = append(recaps, p)
		}
	}
	require.Len(t, recaps, 1)
	assert.Contains(t, recaps[0], "ECB holds rates")
}

func TestPanickingSeriesFetchDegradesRisk(t *testing.T) {
	f := newFixture()
	f.series.panicOn = models.SeriesVolatility
	c := f.controller(t)

	res, err := c.Launch(context.Background(), []string{"USD"})
	require.NoError(t, err)
	waitDone(t, res)

	st := c.Status()
	assert.False(t, st.IsRunning)
	assert.Equal(t, models.RunCompleted, st.LastOutcome)

	runs := f.publisher.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunCompleted, runs[0].Outcome)
	assert.Equal(t, 0, runs[0].RiskModifier)

	snap, err := f.snapshots.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Data["USD"].CompositeScore)
}

func TestPanickingSourceFetchCountsAsBlank(t *testing.T) {
	f := newFixture()
	f.fetcher.panicURL = "https://src.test/eur/mpmi"
	c := f.controller(t)

	res, err := c.Launch(context.Background(), []string{"EUR"})
	require.NoError(t, err)
	waitDone(t, res)

	assert.False(t, c.Status().IsRunning)
	runs := f.publisher.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunCompleted, runs[0].Outcome)
	assert.Equal(t, 1, runs[0].Skipped)
}
