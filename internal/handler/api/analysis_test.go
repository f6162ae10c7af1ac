package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FxBias/internal/domain/models"
	"FxBias/internal/repository"
	"FxBias/internal/service/ratelimit"
	"FxBias/internal/usecase"
)

type fakeJobs struct {
	mu       sync.Mutex
	launched [][]string
	err      error
	status   models.JobStatus
}

func (f *fakeJobs) Launch(_ context.Context, currencies []string) (*models.LaunchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.launched = append(f.launched, currencies)
	return &models.LaunchResult{
		RunID:      "run-1",
		Currencies: []string{"USD"},
		StartedAt:  time.Date(2025, 3, 14, 6, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeJobs) Status() models.JobStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

type fixture struct {
	e         *echo.Echo
	jobs      *fakeJobs
	snapshots *repository.MemorySnapshotStore
	overrides *repository.MemoryOverrideStore
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		e:         echo.New(),
		jobs:      &fakeJobs{},
		snapshots: repository.NewMemorySnapshotStore(),
		overrides: repository.NewMemoryOverrideStore(),
	}
	h := NewAnalysisHandler(nil, f.jobs,
		usecase.NewAnalysisQuery(f.snapshots),
		usecase.NewOverrideLedger(f.overrides, nil, nil),
		opts...,
	)
	h.RegisterRoutes(f.e)
	return f
}

func (f *fixture) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestLaunchAccepted(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/analyze", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, msgJobStarted, env.Message)
	assert.JSONEq(t, `{"runId":"run-1","currencies":["USD"],"startedAt":"2025-03-14T06:00:00Z"}`, string(env.Data))

	rec = f.do(http.MethodPost, "/analyze", `{"currencies":["usd","eur"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"usd", "eur"}, f.jobs.launched[1])
}

func TestLaunchConflict(t *testing.T) {
	f := newFixture(t)
	started := time.Date(2025, 3, 14, 6, 0, 0, 0, time.UTC)
	f.jobs.err = &models.JobConflictError{StartedAt: started}

	rec := f.do(http.MethodPost, "/analyze", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"startedAt":"2025-03-14T06:00:00Z"`)
}

func TestLaunchBadCurrency(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/analyze", `{"currencies":["EURO"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.jobs.err = models.ErrUnknownCurrency
	rec = f.do(http.MethodPost, "/analyze", `{"currencies":["XAU"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLaunchRequiresSecret(t *testing.T) {
	f := newFixture(t, WithCronSecret("s3cret"))

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/analyze", "").Code)
	assert.Equal(t, http.StatusAccepted,
		f.do(http.MethodGet, "/analyze", "", echo.HeaderAuthorization, "Bearer s3cret").Code)
	assert.Empty(t, f.jobs.launched[0])
}

func TestLaunchThrottled(t *testing.T) {
	f := newFixture(t, WithLaunchLimiter(ratelimit.New(1, 1)))

	assert.Equal(t, http.StatusAccepted, f.do(http.MethodGet, "/analyze", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(http.MethodGet, "/analyze", "").Code)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	f.jobs.status = models.JobStatus{IsRunning: true, ProgressMessage: "Analyzing USD - CPI", ElapsedSeconds: 12}

	rec := f.do(http.MethodGet, "/analyze/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st models.JobStatus
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &st))
	assert.True(t, st.IsRunning)
	assert.Equal(t, "Analyzing USD - CPI", st.ProgressMessage)
}

func TestStatusStream(t *testing.T) {
	f := newFixture(t, WithStatusInterval(10*time.Millisecond))
	f.jobs.status = models.JobStatus{ProgressMessage: "Idle"}
	srv := httptest.NewServer(f.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/analyze/status/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var st models.JobStatus
	require.NoError(t, conn.ReadJSON(&st))
	assert.Equal(t, "Idle", st.ProgressMessage)

	f.jobs.mu.Lock()
	f.jobs.status = models.JobStatus{IsRunning: true, ProgressMessage: "Saving results"}
	f.jobs.mu.Unlock()

	require.Eventually(t, func() bool {
		var next models.JobStatus
		return conn.ReadJSON(&next) == nil && next.ProgressMessage == "Saving results"
	}, 2*time.Second, time.Millisecond)
}

func TestLatest(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/analyze/latest", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgNoAnalysis, decode(t, rec).Message)

	require.NoError(t, f.snapshots.Upsert(t.Context(), &models.AnalysisSnapshot{
		Date: "2025-03-14",
		Data: map[string]models.CurrencyAnalysis{"USD": {Currency: "USD", CompositeScore: 2, Direction: models.DirectionBullish}},
	}))
	rec = f.do(http.MethodGet, "/analyze/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var data map[string]models.CurrencyAnalysis
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, 2, data["USD"].CompositeScore)
}

func TestHistorical(t *testing.T) {
	f := newFixture(t)
	for _, d := range []string{"2025-03-12", "2025-03-13", "2025-03-14"} {
		require.NoError(t, f.snapshots.Upsert(t.Context(), &models.AnalysisSnapshot{Date: d, Data: map[string]models.CurrencyAnalysis{}}))
	}

	rec := f.do(http.MethodGet, "/analyze/historical?from=2025-03-13", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []historyEntry
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "2025-03-13", entries[0].Date)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/analyze/historical?to=yesterday", "").Code)
}

func TestOverride(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/override",
		`{"type":"score","currencyCode":"USD","indicator":"CPI","originalValue":1,"overriddenValue":2,"justification":"hot print"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, msgOverrideLogged, decode(t, rec).Message)
	require.Len(t, f.overrides.Records(), 1)

	rec = f.do(http.MethodPost, "/override", `{"type":"score","currencyCode":"USD","originalValue":1,"overriddenValue":2}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `Field "indicator" is required for a "score" override.`, decode(t, rec).Message)

	rec = f.do(http.MethodPost, "/override", `{"type":"bias"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields: type, currencyCode, originalValue, overriddenValue.", decode(t, rec).Message)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/override", `[1,2]`).Code)
	assert.Len(t, f.overrides.Records(), 1)
}
