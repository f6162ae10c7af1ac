package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"FxBias/internal/domain/service"
	"FxBias/internal/service/metrics"
	xlogger "FxBias/pkg/logger"
)

// ErrEmptyReply is returned when the model answers with no text, usually because
// the prompt or the candidate was blocked.
var ErrEmptyReply = errors.New("gemini returned an empty reply")

type Option func(*config)

type config struct {
	model      string
	timeout    time.Duration
	perMinute  int
	baseURL    string
	httpClient *http.Client
	l          *xlogger.Logger
}

func WithModel(model string) Option { return func(c *config) { c.model = model } }

func WithTimeout(d time.Duration) Option { return func(c *config) { c.timeout = d } }

// WithRequestsPerMinute throttles calls client side; 0 disables throttling.
func WithRequestsPerMinute(n int) Option { return func(c *config) { c.perMinute = n } }

// WithBaseURL points the client at another endpoint, such as a test server.
func WithBaseURL(u string) Option { return func(c *config) { c.baseURL = u } }

func WithHTTPClient(hc *http.Client) Option { return func(c *config) { c.httpClient = hc } }

func WithLogger(l *xlogger.Logger) Option { return func(c *config) { c.l = l } }

// Client is the reasoning collaborator backed by the Gemini API.
type Client struct {
	genai   *genai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
	l       *xlogger.Logger
}

var _ service.Reasoner = (*Client)(nil)

func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	cfg := &config{model: "gemini-2.5-flash", timeout: 90 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.l == nil {
		cfg.l = xlogger.NewNop()
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.httpClient,
	}
	if cfg.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.baseURL}
	}
	gc, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	c := &Client{genai: gc, model: cfg.model, timeout: cfg.timeout, l: cfg.l}
	if cfg.perMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.perMinute)), 1)
	}
	return c, nil
}

// Complete sends prompt and returns the reply text. Replies are requested as JSON.
func (c *Client) Complete(ctx context.Context, prompt string) (reply string, err error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("gemini throttle: %w", err)
		}
	}
	start := time.Now()
	defer func() { metrics.Observe("gemini", "generate", start, err) }()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w (%s)", ErrEmptyReply, blockReason(resp))
	}
	c.l.Debug("gemini reply", xlogger.String("model", c.model), xlogger.Int("chars", len(text)))
	return text, nil
}

func blockReason(resp *genai.GenerateContentResponse) string {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "prompt blocked: " + string(resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		return "finish reason: " + string(resp.Candidates[0].FinishReason)
	}
	return "no candidates"
}
