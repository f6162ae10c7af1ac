package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FxBias/internal/domain/models"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"USD", "EUR", "GBP", "AUD", "NZD", "CAD", "JPY", "CHF"}, c.Currencies)
	require.Len(t, c.Indicators, 10)
	assert.Equal(t, "Manufacturing PMI", c.Indicators[0].Name)
	assert.Equal(t, "Strong vs Weak", c.Indicators[9].Name)

	assert.Equal(t, []string{"https://tradingeconomics.com/united-states/manufacturing-pmi"}, c.SourcesFor("USD", "Manufacturing PMI"))
	assert.Empty(t, c.SourcesFor("USD", "Strong vs Weak"))
	assert.Equal(t, map[string][]string{"PMI": {"Manufacturing PMI", "Services PMI"}}, c.Groups())
}

func TestRulesText(t *testing.T) {
	ind := Indicator{Rules: []string{"a: +1", "b: -1"}}
	assert.Equal(t, "a: +1\nb: -1", ind.RulesText())
}

func TestResolve(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	all, err := c.Resolve(nil)
	require.NoError(t, err)
	assert.Len(t, all, 8)

	subset, err := c.Resolve([]string{"jpy", "USD", "JPY"})
	require.NoError(t, err)
	assert.Equal(t, []string{"USD", "JPY"}, subset)

	_, err = c.Resolve([]string{"XAU"})
	assert.True(t, errors.Is(err, models.ErrUnknownCurrency))
}

func TestParseRejectsSourcesForUnknownIndicator(t *testing.T) {
	_, err := Parse([]byte(`
currencies: [USD]
indicators:
  - name: CPI
sources:
  USD:
    GDP: ["https://example.com"]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GDP")
}
