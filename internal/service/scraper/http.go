package scraper

import (
	"context"
	"time"

	"FxBias/internal/domain/service"
	"FxBias/internal/service/metrics"
	pkghttp "FxBias/pkg/http"
	xlogger "FxBias/pkg/logger"
)

// HTTPFetcher reads pages without rendering them. Pages that build their
// content client side come back mostly empty.
type HTTPFetcher struct {
	client *pkghttp.Client
	l      *xlogger.Logger
}

var _ service.ContentFetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(client *pkghttp.Client, l *xlogger.Logger) *HTTPFetcher {
	if l == nil {
		l = xlogger.NewNop()
	}
	return &HTTPFetcher{client: client, l: l}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) string {
	start := time.Now()
	body, err := f.client.Fetch(ctx, &pkghttp.RequestOptions{
		URL:     url,
		Headers: map[string]string{"Accept": "text/html,application/xhtml+xml"},
	})
	metrics.Observe("http", "fetch", start, err)
	if err != nil {
		f.l.Warn("page fetch failed", xlogger.String("url", url), xlogger.Error(err))
		return ""
	}
	return HTMLToText(string(body))
}
