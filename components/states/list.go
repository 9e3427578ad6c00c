package states

import (
	"embed"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/states.yaml
var dataFS embed.FS

const defaultListPath = "data/states.yaml"

// Country is one entry of the states table.
type Country struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	States  []string `yaml:"states"`
}

// Table resolves countries by name or alias, case-insensitively.
type Table struct {
	countries []Country
	index     map[string]int
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// DefaultTable returns the embedded table.
func DefaultTable() (*Table, error) {
	defaultOnce.Do(func() {
		f, err := dataFS.Open(defaultListPath)
		if err != nil {
			defaultErr = err
			return
		}
		defer func() { _ = f.Close() }()
		defaultTable, defaultErr = LoadTable(f)
	})
	return defaultTable, defaultErr
}

// LoadTable parses a YAML document with a top-level `countries` list.
func LoadTable(r io.Reader) (*Table, error) {
	if r == nil {
		return nil, fmt.Errorf("states: missing reader")
	}
	var doc struct {
		Countries []Country `yaml:"countries"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("states: decode: %w", err)
	}
	return NewTable(doc.Countries), nil
}

// NewTable indexes countries. Later entries never shadow earlier names.
func NewTable(countries []Country) *Table {
	t := &Table{index: make(map[string]int)}
	for _, c := range countries {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		if _, dup := t.index[normalise(name)]; dup {
			continue
		}
		c.Name = name
		c.States = dedupe(c.States)
		t.countries = append(t.countries, c)
		pos := len(t.countries) - 1
		t.index[normalise(name)] = pos
		for _, alias := range c.Aliases {
			if key := normalise(alias); key != "" {
				if _, taken := t.index[key]; !taken {
					t.index[key] = pos
				}
			}
		}
	}
	return t
}

// Countries returns the canonical country names in table order.
func (t *Table) Countries() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.countries))
	for _, c := range t.countries {
		out = append(out, c.Name)
	}
	return out
}

// Lookup returns the canonical country name and its states.
func (t *Table) Lookup(country string) (string, []string, bool) {
	if t == nil {
		return "", nil, false
	}
	pos, ok := t.index[normalise(country)]
	if !ok {
		return "", nil, false
	}
	c := t.countries[pos]
	return c.Name, append([]string(nil), c.States...), true
}

func normalise(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
