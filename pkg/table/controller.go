package table

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/goliatone/go-formdesk/pkg/i18n"
	"github.com/goliatone/go-formdesk/pkg/reorder"
	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/visibility"
)

var (
	// ErrLastVisibleColumn rejects hiding the only column still shown.
	ErrLastVisibleColumn = errors.New("table: at least one column must stay visible")
	// ErrUnknownColumn is returned for column ids the model does not have.
	ErrUnknownColumn = errors.New("table: unknown column")
	// ErrPageSize rejects page sizes outside PageSizes.
	ErrPageSize = errors.New("table: unsupported page size")
)

// PageSizes are the selectable page sizes; the first is the default.
var PageSizes = []int{10, 25, 50}

// Direction is the sort state of a column.
type Direction int

const (
	Unsorted Direction = iota
	Ascending
	Descending
)

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return "none"
	}
}

// Indicator is the arrow shown next to a sorted header.
func (d Direction) Indicator() string {
	switch d {
	case Ascending:
		return "↑"
	case Descending:
		return "↓"
	default:
		return ""
	}
}

// DisplayRow is a formatted row of the current page: one cell per visible
// column, in display order.
type DisplayRow struct {
	ID     string
	Cells  []string
	Record schema.SubmissionRecord
}

// Controller holds the interactive state of one table. It is not safe for
// concurrent use; drive it from a single goroutine.
type Controller struct {
	model      Model
	translator i18n.Translator
	locale     string

	global     string
	colFilters map[string]string
	sortCol    string
	sortDir    Direction
	order      []string
	hidden     map[string]bool
	pageSize   int
	page       int
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithTranslator localises yes/no cells and hints.
func WithTranslator(t i18n.Translator, locale string) ControllerOption {
	return func(c *Controller) {
		c.translator = t
		if locale != "" {
			c.locale = locale
		}
	}
}

// WithPageSize sets the initial page size when it is one of PageSizes.
func WithPageSize(size int) ControllerOption {
	return func(c *Controller) {
		if validPageSize(size) {
			c.pageSize = size
		}
	}
}

// NewController starts with no filters, no sort, the natural column order,
// every column visible and the first page of PageSizes[0] rows.
func NewController(model Model, opts ...ControllerOption) *Controller {
	c := &Controller{
		model:      model,
		locale:     i18n.DefaultLocale,
		colFilters: make(map[string]string),
		hidden:     make(map[string]bool),
		pageSize:   PageSizes[0],
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Model returns the underlying model.
func (c *Controller) Model() Model { return c.model }

func (c *Controller) hasColumn(id string) bool {
	for _, col := range c.model.Columns {
		if col.ID == id {
			return true
		}
	}
	return false
}

// SetGlobalFilter sets the fuzzy filter applied across visible cells. The
// page index is left alone.
func (c *Controller) SetGlobalFilter(query string) {
	c.global = strings.TrimSpace(query)
}

// GlobalFilter returns the active global filter.
func (c *Controller) GlobalFilter() string { return c.global }

// SetColumnFilter sets a case-insensitive substring filter on one column. An
// empty query removes it.
func (c *Controller) SetColumnFilter(columnID, query string) error {
	if !c.hasColumn(columnID) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, columnID)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		delete(c.colFilters, columnID)
		return nil
	}
	c.colFilters[columnID] = query
	return nil
}

// ColumnFilter returns the filter of a column.
func (c *Controller) ColumnFilter(columnID string) string { return c.colFilters[columnID] }

// ToggleSort advances a column through ascending, descending and unsorted.
// Sorting another column starts it at ascending.
func (c *Controller) ToggleSort(columnID string) error {
	if !c.hasColumn(columnID) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, columnID)
	}
	if c.sortCol != columnID {
		c.sortCol, c.sortDir = columnID, Ascending
		return nil
	}
	switch c.sortDir {
	case Ascending:
		c.sortDir = Descending
	case Descending:
		c.sortCol, c.sortDir = "", Unsorted
	default:
		c.sortDir = Ascending
	}
	return nil
}

// HandleKey toggles the sort of a header on Enter or Space and reports
// whether the key was consumed.
func (c *Controller) HandleKey(columnID, key string) (bool, error) {
	switch key {
	case "Enter", " ", "Space":
		return true, c.ToggleSort(columnID)
	default:
		return false, nil
	}
}

// SortState returns the sorted column and direction.
func (c *Controller) SortState() (string, Direction) {
	return c.sortCol, c.sortDir
}

// Direction returns the sort direction of a column.
func (c *Controller) Direction(columnID string) Direction {
	if columnID != "" && columnID == c.sortCol {
		return c.sortDir
	}
	return Unsorted
}

// SortHint describes what activating the header of columnID does next.
func (c *Controller) SortHint(columnID string) string {
	switch c.Direction(columnID) {
	case Ascending:
		return i18n.T(c.translator, c.locale, i18n.KeySortDescending, nil)
	case Descending:
		return i18n.T(c.translator, c.locale, i18n.KeyClearSort, nil)
	default:
		return i18n.T(c.translator, c.locale, i18n.KeySortAscending, nil)
	}
}

// ColumnOrder returns the effective order: the explicit order when one was
// set, otherwise the model's natural order. Hidden columns are included.
func (c *Controller) ColumnOrder() []string {
	if len(c.order) > 0 {
		return append([]string(nil), c.order...)
	}
	ids := make([]string, 0, len(c.model.Columns))
	for _, col := range c.model.Columns {
		ids = append(ids, col.ID)
	}
	return ids
}

// MoveColumn drops activeID at the position of overID within the effective
// order. It reports false when nothing moved.
func (c *Controller) MoveColumn(activeID, overID string) bool {
	next, moved := reorder.MoveKey(c.ColumnOrder(), func(id string) string { return id }, activeID, overID)
	if moved {
		c.order = next
	}
	return moved
}

// ResetColumnOrder returns to the natural order.
func (c *Controller) ResetColumnOrder() { c.order = nil }

// IsColumnVisible reports whether a column is shown.
func (c *Controller) IsColumnVisible(columnID string) bool {
	return c.hasColumn(columnID) && !c.hidden[columnID]
}

// CanToggle reports whether the visibility toggle of a column is enabled.
// The toggle of the only visible column is disabled.
func (c *Controller) CanToggle(columnID string) bool {
	if !c.hasColumn(columnID) {
		return false
	}
	return !(c.IsColumnVisible(columnID) && len(c.VisibleColumns()) == 1)
}

// SetColumnVisible shows or hides a column. Hiding the last visible column
// fails with ErrLastVisibleColumn.
func (c *Controller) SetColumnVisible(columnID string, visible bool) error {
	if !c.hasColumn(columnID) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, columnID)
	}
	if visible {
		delete(c.hidden, columnID)
		return nil
	}
	if !c.CanToggle(columnID) {
		return ErrLastVisibleColumn
	}
	c.hidden[columnID] = true
	return nil
}

// VisibleColumns returns the shown columns in effective order.
func (c *Controller) VisibleColumns() []Column {
	byID := make(map[string]Column, len(c.model.Columns))
	for _, col := range c.model.Columns {
		byID[col.ID] = col
	}
	var out []Column
	for _, id := range c.ColumnOrder() {
		col, ok := byID[id]
		if !ok || c.hidden[id] {
			continue
		}
		out = append(out, col)
	}
	return out
}

// PageSize returns the active page size.
func (c *Controller) PageSize() int { return c.pageSize }

// SetPageSize switches to one of PageSizes and returns to the first page.
func (c *Controller) SetPageSize(size int) error {
	if !validPageSize(size) {
		return fmt.Errorf("%w: %d", ErrPageSize, size)
	}
	c.pageSize = size
	c.page = 0
	return nil
}

func validPageSize(size int) bool {
	for _, s := range PageSizes {
		if s == size {
			return true
		}
	}
	return false
}

// PageSizeSelectable reports whether changing the page size can matter.
func (c *Controller) PageSizeSelectable() bool {
	return len(c.model.Rows) > PageSizes[0]
}

// Page returns the zero-based page index.
func (c *Controller) Page() int { return c.page }

// PageCount returns the number of pages of the filtered rows, at least one.
func (c *Controller) PageCount() int {
	n := len(c.Filtered())
	if n == 0 {
		return 1
	}
	return int(math.Ceil(float64(n) / float64(c.pageSize)))
}

// SetPage jumps to a page, clamped to the available range.
func (c *Controller) SetPage(page int) {
	last := c.PageCount() - 1
	switch {
	case page < 0:
		page = 0
	case page > last:
		page = last
	}
	c.page = page
}

// CanPrev reports whether a previous page exists.
func (c *Controller) CanPrev() bool { return c.page > 0 }

// CanNext reports whether a next page exists.
func (c *Controller) CanNext() bool { return c.page < c.PageCount()-1 }

// PrevPage moves back one page.
func (c *Controller) PrevPage() bool {
	if !c.CanPrev() {
		return false
	}
	c.page--
	return true
}

// NextPage moves forward one page.
func (c *Controller) NextPage() bool {
	if !c.CanNext() {
		return false
	}
	c.page++
	return true
}

type rankedRow struct {
	record  schema.SubmissionRecord
	ranking Ranking
}

// Filtered returns every row passing the filters, ordered by the active sort
// or, without one, by global filter rank.
func (c *Controller) Filtered() []schema.SubmissionRecord {
	visible := c.VisibleColumns()
	rows := make([]rankedRow, 0, len(c.model.Rows))
	for _, record := range c.model.Rows {
		if !c.matchesColumns(record) {
			continue
		}
		ranking := Ranking{Tier: Matches}
		if c.global != "" {
			ranking = bestRanking(record, visible, c.global)
			if !ranking.Passed() {
				continue
			}
		}
		rows = append(rows, rankedRow{record: record, ranking: ranking})
	}

	if c.global != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].ranking.Better(rows[j].ranking)
		})
	}
	if c.sortCol != "" && c.sortDir != Unsorted {
		col, desc := c.sortCol, c.sortDir == Descending
		sort.SliceStable(rows, func(i, j int) bool {
			return less(rows[i].record[col], rows[j].record[col], desc)
		})
	}

	out := make([]schema.SubmissionRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].record
	}
	return out
}

func (c *Controller) matchesColumns(record schema.SubmissionRecord) bool {
	for col, query := range c.colFilters {
		cell := strings.ToLower(visibility.String(record[col]))
		if !strings.Contains(cell, strings.ToLower(query)) {
			return false
		}
	}
	return true
}

func bestRanking(record schema.SubmissionRecord, cols []Column, query string) Ranking {
	var best Ranking
	for _, col := range cols {
		value := record[col.ID]
		if value == nil {
			continue
		}
		if r := Rank(visibility.String(value), query); r.Better(best) {
			best = r
		}
	}
	return best
}

// less orders numbers numerically and everything else as case-insensitive
// text. Missing values sort last in both directions.
func less(a, b any, desc bool) bool {
	if a == nil || b == nil {
		return a != nil && b == nil
	}
	an, aNum := number(a)
	bn, bNum := number(b)
	if aNum && bNum {
		if desc {
			return an > bn
		}
		return an < bn
	}
	as := strings.ToLower(visibility.String(a))
	bs := strings.ToLower(visibility.String(b))
	if desc {
		return as > bs
	}
	return as < bs
}

func number(v any) (float64, bool) {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return visibility.Number(v), true
	default:
		return 0, false
	}
}

// Rows returns the current page formatted for display. A page beyond the
// filtered rows is empty.
func (c *Controller) Rows() []DisplayRow {
	filtered := c.Filtered()
	start := c.page * c.pageSize
	if start >= len(filtered) {
		return nil
	}
	end := start + c.pageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	cols := c.VisibleColumns()
	out := make([]DisplayRow, 0, end-start)
	for _, record := range filtered[start:end] {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = FormatCell(record[col.ID], c.translator, c.locale)
		}
		out = append(out, DisplayRow{ID: record.ID(), Cells: cells, Record: record})
	}
	return out
}

// Summary returns the number of rows on the current page and the total
// number of submissions.
func (c *Controller) Summary() (visible, total int) {
	return len(c.Rows()), len(c.model.Rows)
}

// SummaryText renders Summary as a localised sentence.
func (c *Controller) SummaryText() string {
	visible, total := c.Summary()
	return i18n.T(c.translator, c.locale, i18n.KeyShowing, map[string]any{"visible": visible, "total": total})
}
