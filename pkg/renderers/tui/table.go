package tui

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"

	"github.com/goliatone/go-formdesk/pkg/i18n"
	"github.com/goliatone/go-formdesk/pkg/table"
)

// PrintTable writes the controller's current page as a markdown table
// followed by the summary and page lines.
func PrintTable(w io.Writer, c *table.Controller, t i18n.Translator, locale string) error {
	tw := tablewriter.NewTable(w, tablewriter.WithRenderer(renderer.NewMarkdown()))

	cols := c.VisibleColumns()
	header := make([]any, 0, len(cols))
	for _, col := range cols {
		label := col.Header
		if ind := c.Direction(col.ID).Indicator(); ind != "" {
			label += " " + ind
		}
		header = append(header, label)
	}
	tw.Header(header...)

	for _, row := range c.Rows() {
		cells := make([]any, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = cell
		}
		if err := tw.Append(cells...); err != nil {
			return fmt.Errorf("tui: table row %s: %w", row.ID, err)
		}
	}
	if err := tw.Render(); err != nil {
		return fmt.Errorf("tui: render table: %w", err)
	}

	page := i18n.T(t, locale, i18n.KeyPage, map[string]any{"page": c.Page() + 1, "pages": c.PageCount()})
	_, err := fmt.Fprintf(w, "%s · %s\n", c.SummaryText(), page)
	return err
}

// Browse actions, in menu order.
const (
	ActionSearch       = "Search"
	ActionFilterColumn = "Filter column"
	ActionSort         = "Sort by column"
	ActionToggleColumn = "Show/hide column"
	ActionMoveColumn   = "Move column"
	ActionNextPage     = "Next page"
	ActionPrevPage     = "Previous page"
	ActionPageSize     = "Page size"
	ActionQuit         = "Quit"
)

// Browse prints the table and loops over an action menu until the user
// quits. Menu entries that cannot apply (no next page, a page size selector
// on a short listing) are left out.
func (r *Renderer) Browse(ctx context.Context, c *table.Controller) error {
	for {
		if err := PrintTable(r.out, c, r.translator, r.locale); err != nil {
			return err
		}

		actions := r.browseActions(c)
		idx, err := r.driver.Select(ctx, SelectConfig{Message: "Action", Options: actions})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(actions) {
			continue
		}

		switch actions[idx] {
		case ActionQuit:
			return nil
		case ActionSearch:
			q, err := r.driver.Input(ctx, InputConfig{Message: "Search", Default: c.GlobalFilter()})
			if err != nil {
				return err
			}
			c.SetGlobalFilter(q)
		case ActionFilterColumn:
			col, ok, err := r.pickColumn(ctx, c, "Column", c.VisibleColumns())
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			q, err := r.driver.Input(ctx, InputConfig{Message: col.Header, Default: c.ColumnFilter(col.ID)})
			if err != nil {
				return err
			}
			if err := c.SetColumnFilter(col.ID, q); err != nil {
				_ = r.driver.Info(ctx, r.theme.ErrorPrefix+err.Error())
			}
		case ActionSort:
			col, ok, err := r.pickColumn(ctx, c, "Sort", c.VisibleColumns())
			if err != nil {
				return err
			}
			if ok {
				_ = c.ToggleSort(col.ID)
			}
		case ActionToggleColumn:
			col, ok, err := r.pickColumn(ctx, c, "Column", c.Model().Columns)
			if err != nil {
				return err
			}
			if ok {
				if err := c.SetColumnVisible(col.ID, !c.IsColumnVisible(col.ID)); err != nil {
					_ = r.driver.Info(ctx, r.theme.ErrorPrefix+err.Error())
				}
			}
		case ActionMoveColumn:
			if err := r.moveColumn(ctx, c); err != nil {
				return err
			}
		case ActionNextPage:
			c.NextPage()
		case ActionPrevPage:
			c.PrevPage()
		case ActionPageSize:
			labels := make([]string, len(table.PageSizes))
			current := 0
			for i, size := range table.PageSizes {
				labels[i] = strconv.Itoa(size)
				if size == c.PageSize() {
					current = i
				}
			}
			pick, err := r.driver.Select(ctx, SelectConfig{Message: "Page size", Options: labels, DefaultIndex: current})
			if err != nil {
				return err
			}
			if pick >= 0 && pick < len(table.PageSizes) {
				_ = c.SetPageSize(table.PageSizes[pick])
			}
		}
	}
}

func (r *Renderer) browseActions(c *table.Controller) []string {
	actions := []string{ActionSearch, ActionFilterColumn, ActionSort, ActionToggleColumn, ActionMoveColumn}
	if c.CanNext() {
		actions = append(actions, ActionNextPage)
	}
	if c.CanPrev() {
		actions = append(actions, ActionPrevPage)
	}
	if c.PageSizeSelectable() {
		actions = append(actions, ActionPageSize)
	}
	return append(actions, ActionQuit)
}

func (r *Renderer) pickColumn(ctx context.Context, c *table.Controller, message string, cols []table.Column) (table.Column, bool, error) {
	labels := make([]string, len(cols))
	for i, col := range cols {
		labels[i] = col.Header
		if message == "Sort" {
			labels[i] += " (" + c.SortHint(col.ID) + ")"
		}
	}
	idx, err := r.driver.Select(ctx, SelectConfig{Message: message, Options: labels})
	if err != nil {
		return table.Column{}, false, err
	}
	if idx < 0 || idx >= len(cols) {
		return table.Column{}, false, nil
	}
	return cols[idx], true, nil
}

func (r *Renderer) moveColumn(ctx context.Context, c *table.Controller) error {
	active, ok, err := r.pickColumn(ctx, c, "Move", c.VisibleColumns())
	if err != nil || !ok {
		return err
	}
	over, ok, err := r.pickColumn(ctx, c, "Before/after", c.VisibleColumns())
	if err != nil || !ok {
		return err
	}
	c.MoveColumn(active.ID, over.ID)
	return nil
}
