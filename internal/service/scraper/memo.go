package scraper

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"time"

	"FxBias/internal/domain/service"
	"FxBias/pkg/cache"
	xlogger "FxBias/pkg/logger"
)

// Memo remembers retrieved text for ttl, so sources shared by several
// currencies are read once per run. Empty results are not remembered.
type Memo struct {
	next  service.ContentFetcher
	cache cache.Service
	ttl   time.Duration
	l     *xlogger.Logger
}

var _ service.ContentFetcher = (*Memo)(nil)

func NewMemo(next service.ContentFetcher, c cache.Service, ttl time.Duration, l *xlogger.Logger) *Memo {
	if l == nil {
		l = xlogger.NewNop()
	}
	return &Memo{next: next, cache: c, ttl: ttl, l: l}
}

func (m *Memo) Fetch(ctx context.Context, url string) string {
	key := memoKey(url)

	var text string
	if err := m.cache.Get(ctx, key, &text); err == nil {
		return text
	}

	text = m.next.Fetch(ctx, url)
	if text == "" {
		return ""
	}
	if err := m.cache.Set(ctx, key, text, m.ttl); err != nil {
		m.l.Debug("memo store failed", xlogger.String("url", url), xlogger.Error(err))
	}
	return text
}

func memoKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return "page:" + hex.EncodeToString(sum[:])
}
