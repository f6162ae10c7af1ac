package scraper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FxBias/pkg/cache"
	pkghttp "FxBias/pkg/http"
)

func TestHTMLToText(t *testing.T) {
	page := `<html><head><style>p{color:red}</style><script>var x = 1;</script></head>
<body><h1>US PMI</h1><p>Manufacturing   rose<br>to <b>52.1</b></p><!-- note --><noscript>enable js</noscript></body></html>`

	assert.Equal(t, "US PMI Manufacturing rose to 52.1", HTMLToText(page))
	assert.Equal(t, "", HTMLToText(""))
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "<p>CPI</p><p>3.1%</p>")
	}))
	defer srv.Close()

	f := NewHTTPFetcher(pkghttp.NewClient(), nil)
	assert.Equal(t, "CPI 3.1%", f.Fetch(t.Context(), srv.URL+"/cpi"))
	assert.Equal(t, "", f.Fetch(t.Context(), srv.URL+"/missing"))
}

type countingFetcher struct {
	calls atomic.Int32
	text  string
}

func (c *countingFetcher) Fetch(context.Context, string) string {
	c.calls.Add(1)
	return c.text
}

func TestMemoFetchesOnce(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()

	next := &countingFetcher{text: "COT report"}
	m := NewMemo(next, mc, time.Minute, nil)

	assert.Equal(t, "COT report", m.Fetch(t.Context(), "https://src.test/cot"))
	assert.Equal(t, "COT report", m.Fetch(t.Context(), "https://src.test/cot"))
	require.EqualValues(t, 1, next.calls.Load())

	m.Fetch(t.Context(), "https://src.test/other")
	assert.EqualValues(t, 2, next.calls.Load())
}

func TestMemoSkipsEmpty(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()

	next := &countingFetcher{}
	m := NewMemo(next, mc, time.Minute, nil)

	m.Fetch(t.Context(), "https://src.test/down")
	m.Fetch(t.Context(), "https://src.test/down")
	assert.EqualValues(t, 2, next.calls.Load())
}
