// Package table turns a submissions listing into a browsable table: columns
// derived from the server, fuzzy global filtering, per-column filters, a
// three-state sort, column reordering and visibility, and pagination.
package table

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/goliatone/go-formdesk/pkg/i18n"
	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/visibility"
)

// Column is a table column derived from the server's column list.
type Column struct {
	ID     string
	Header string
}

// Model is the immutable data behind a Controller.
type Model struct {
	Columns []Column
	Rows    []schema.SubmissionRecord
}

// NewModel derives one column per server-declared column, keeping the
// server's order. Duplicate and blank column names are dropped.
func NewModel(resp schema.SubmissionsResponse) Model {
	seen := make(map[string]struct{}, len(resp.Columns))
	cols := make([]Column, 0, len(resp.Columns))
	for _, name := range resp.Columns {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		cols = append(cols, Column{ID: name, Header: name})
	}
	return Model{Columns: cols, Rows: append([]schema.SubmissionRecord(nil), resp.Data...)}
}

// FormatCell renders a raw cell value: booleans as localised yes/no, missing
// values as a dash and anything else as text.
func FormatCell(value any, t i18n.Translator, locale string) string {
	switch v := value.(type) {
	case nil:
		return i18n.T(t, locale, i18n.KeyEmptyCell, nil)
	case bool:
		if v {
			return i18n.T(t, locale, i18n.KeyYes, nil)
		}
		return i18n.T(t, locale, i18n.KeyNo, nil)
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, FormatCell(item, t, locale))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		out, err := sonic.MarshalString(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return out
	default:
		return visibility.String(v)
	}
}
