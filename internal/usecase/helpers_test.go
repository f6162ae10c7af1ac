package usecase

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FxBias/internal/domain/catalog"
	"FxBias/internal/domain/models"
)

const testCatalogYAML = `
currencies: [USD, EUR]
indicators:
  - name: "Manufacturing PMI"
    group: PMI
    rules: ["above 50 rising: +2", "below 50 declining: -2"]
  - name: "Services PMI"
    group: PMI
    rules: ["above 50 rising: +2"]
  - name: "CPI"
    rules: ["Target is 2%"]
  - name: "COT"
    rules: ["net long rising: +2"]
sources:
  USD:
    "Manufacturing PMI": ["https://src.test/usd/mpmi"]
    "Services PMI": ["https://src.test/usd/spmi"]
    "CPI": ["https://src.test/usd/cpi-a", "https://src.test/usd/cpi-b"]
  EUR:
    "Manufacturing PMI": ["https://src.test/eur/mpmi"]
`

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(testCatalogYAML))
	require.NoError(t, err)
	return c
}

type stubFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	calls    []string
	block    chan struct{}
	panicURL string
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) string {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ""
		}
	}
	if f.panicURL != "" && url == f.panicURL {
		panic("renderer exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	return f.pages[url]
}

func (f *stubFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var indicatorInPrompt = regexp.MustCompile(`regarding "([^"]+)"`)

// stubReasoner answers scoring prompts from a per-indicator table and recap
// prompts with a fixed reply.
type stubReasoner struct {
	mu       sync.Mutex
	scores   map[string]string
	recap    string
	recapErr error
	prompts  []string
	panicOn  string
}

func (r *stubReasoner) Complete(_ context.Context, prompt string) (string, error) {
	r.mu.Lock()
	r.prompts = append(r.prompts, prompt)
	r.mu.Unlock()

	if strings.Contains(prompt, "Provide an economic recap") {
		if r.recapErr != nil {
			return "", r.recapErr
		}
		return r.recap, nil
	}
	m := indicatorInPrompt.FindStringSubmatch(prompt)
	if m == nil {
		return "", fmt.Errorf("unexpected prompt")
	}
	if r.panicOn != "" && m[1] == r.panicOn {
		panic("reasoner exploded")
	}
	reply, ok := r.scores[m[1]]
	if !ok {
		return "", fmt.Errorf("no reply for %s", m[1])
	}
	return reply, nil
}

func (r *stubReasoner) Prompts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.prompts...)
}

type stubSeries struct {
	data    map[models.SeriesKey][]models.DataPoint
	errs    map[models.SeriesKey]error
	panicOn models.SeriesKey
}

func (s *stubSeries) FetchSeries(_ context.Context, key models.SeriesKey) ([]models.DataPoint, error) {
	if s.panicOn != "" && key == s.panicOn {
		panic("decoder exploded")
	}
	if err := s.errs[key]; err != nil {
		return nil, err
	}
	return s.data[key], nil
}

type memSnapshots struct {
	mu     sync.Mutex
	byDate map[string]models.AnalysisSnapshot
	err    error
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{byDate: map[string]models.AnalysisSnapshot{}}
}

func (m *memSnapshots) Upsert(_ context.Context, s *models.AnalysisSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.byDate[s.Date] = *s
	return nil
}

func (m *memSnapshots) Latest(ctx context.Context) (*models.AnalysisSnapshot, error) {
	all, _ := m.History(ctx)
	if len(all) == 0 {
		return nil, models.ErrNotFound
	}
	s := all[len(all)-1]
	return &s, nil
}

func (m *memSnapshots) History(context.Context) ([]models.AnalysisSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AnalysisSnapshot, 0, len(m.byDate))
	for _, s := range m.byDate {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

type memOverrides struct {
	records []*models.OverrideRecord
}

func (m *memOverrides) Append(_ context.Context, r *models.OverrideRecord) error {
	m.records = append(m.records, r)
	return nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	runs      []*models.RunSummary
	overrides []*models.OverrideRecord
}

func (p *recordingPublisher) PublishRun(_ context.Context, s *models.RunSummary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs = append(p.runs, s)
	return nil
}

func (p *recordingPublisher) PublishOverride(_ context.Context, r *models.OverrideRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.overrides = append(p.overrides, r)
	return nil
}

func (p *recordingPublisher) Runs() []*models.RunSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*models.RunSummary(nil), p.runs...)
}

// rising builds n points climbing by step from start.
func rising(n int, start, step float64) []models.DataPoint {
	out := make([]models.DataPoint, n)
	for i := range out {
		out[i] = models.DataPoint{
			Date:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format("2006-01-02"),
			Value: start + float64(i)*step,
		}
	}
	return out
}

func flat(n int, v float64) []models.DataPoint {
	return rising(n, v, 0)
}

func waitDone(t *testing.T, res *models.LaunchResult) {
	t.Helper()
	select {
	case <-res.Done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
}
