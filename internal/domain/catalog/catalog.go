// Package catalog describes what a run analyses: the currencies, the ordered
// indicator table with its scoring rules, and where each indicator is read from.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"FxBias/internal/domain/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Indicator struct {
	Name  string   `yaml:"name"`
	Group string   `yaml:"group"`
	Rules []string `yaml:"rules"`
}

// RulesText renders the rule clauses the way they are handed to the reasoning service.
func (i Indicator) RulesText() string {
	return strings.Join(i.Rules, "\n")
}

type Catalog struct {
	Currencies []string                       `yaml:"currencies"`
	Indicators []Indicator                    `yaml:"indicators"`
	Sources    map[string]map[string][]string `yaml:"sources"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, or the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Currencies) == 0 {
		return fmt.Errorf("catalog: no currencies")
	}
	if len(c.Indicators) == 0 {
		return fmt.Errorf("catalog: no indicators")
	}
	seen := make(map[string]bool, len(c.Indicators))
	for _, ind := range c.Indicators {
		if ind.Name == "" {
			return fmt.Errorf("catalog: indicator without name")
		}
		if seen[ind.Name] {
			return fmt.Errorf("catalog: duplicate indicator %q", ind.Name)
		}
		seen[ind.Name] = true
	}
	for cur, byIndicator := range c.Sources {
		if !c.HasCurrency(cur) {
			return fmt.Errorf("catalog: sources for unknown currency %q", cur)
		}
		for name := range byIndicator {
			if !seen[name] {
				return fmt.Errorf("catalog: %s sources for unknown indicator %q", cur, name)
			}
		}
	}
	return nil
}

func (c *Catalog) HasCurrency(code string) bool {
	for _, cur := range c.Currencies {
		if cur == code {
			return true
		}
	}
	return false
}

// SourcesFor returns the configured URLs for a pair, nil when there are none.
func (c *Catalog) SourcesFor(currency, indicator string) []string {
	return c.Sources[currency][indicator]
}

// Groups maps each averaging group to its member indicators, in table order.
func (c *Catalog) Groups() map[string][]string {
	groups := make(map[string][]string)
	for _, ind := range c.Indicators {
		if ind.Group != "" {
			groups[ind.Group] = append(groups[ind.Group], ind.Name)
		}
	}
	return groups
}

// Resolve narrows the run to the requested currency codes. Codes are
// case-insensitive and deduplicated; the result follows catalog order. An empty
// request selects every currency.
func (c *Catalog) Resolve(codes []string) ([]string, error) {
	if len(codes) == 0 {
		return append([]string(nil), c.Currencies...), nil
	}
	want := make(map[string]bool, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if !c.HasCurrency(code) {
			return nil, fmt.Errorf("%w: %q", models.ErrUnknownCurrency, code)
		}
		want[code] = true
	}
	out := make([]string, 0, len(want))
	for _, cur := range c.Currencies {
		if want[cur] {
			out = append(out, cur)
		}
	}
	return out, nil
}
