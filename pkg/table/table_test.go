package table

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdesk/pkg/i18n"
	"github.com/goliatone/go-formdesk/pkg/schema"
)

func sampleModel() Model {
	return NewModel(schema.SubmissionsResponse{
		Columns: []string{"Full Name", "Age", "Smoker", "City"},
		Data: []schema.SubmissionRecord{
			{"id": "1", "Full Name": "Jonathan Smith", "Age": float64(41), "Smoker": false, "City": "Austin"},
			{"id": "2", "Full Name": "Ann Lee", "Age": float64(29), "Smoker": true, "City": "Boston"},
			{"id": "3", "Full Name": "Jon", "Age": float64(35), "Smoker": nil, "City": "Denver"},
			{"id": "4", "Full Name": "Mary Jones", "Age": float64(52), "Smoker": false, "City": "austin"},
		},
	})
}

func ids(records []schema.SubmissionRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID())
	}
	return out
}

func TestRankTiers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text, query string
		want        Tier
	}{
		{"Jon", "Jon", CaseSensitiveEqual},
		{"Jon", "jon", Equal},
		{"Jonathan", "jon", StartsWith},
		{"Mary Jones", "jon", WordStartsWith},
		{"Bjorn", "jor", Contains},
		{"New-York City", "nyc", Acronym},
		{"Jonathan", "jnh", Matches},
		{"Jonathan", "x", NoMatch},
		{"Jo", "Jonathan", NoMatch},
	}
	for _, tc := range cases {
		if got := Rank(tc.text, tc.query).Tier; got != tc.want {
			t.Fatalf("Rank(%q, %q) = %s, want %s", tc.text, tc.query, got, tc.want)
		}
	}
}

func TestGlobalFilterRanksExactAboveLonger(t *testing.T) {
	t.Parallel()

	c := NewController(sampleModel())
	c.SetGlobalFilter("jon")

	got := ids(c.Filtered())
	want := []string{"3", "1", "4"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("filtered order mismatch (-want +got):\n%s", diff)
	}

	if err := c.ToggleSort("Age"); err != nil {
		t.Fatalf("sort: %v", err)
	}
	if diff := cmp.Diff([]string{"3", "1", "4"}, ids(c.Filtered())); diff != "" {
		t.Fatalf("sort should order the filtered set:\n%s", diff)
	}
}

func TestColumnFiltersComposeWithGlobal(t *testing.T) {
	t.Parallel()

	c := NewController(sampleModel())
	if err := c.SetColumnFilter("City", "AUST"); err != nil {
		t.Fatalf("column filter: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "4"}, ids(c.Filtered())); diff != "" {
		t.Fatalf("column filter mismatch:\n%s", diff)
	}
	c.SetGlobalFilter("mary")
	if diff := cmp.Diff([]string{"4"}, ids(c.Filtered())); diff != "" {
		t.Fatalf("filters should AND:\n%s", diff)
	}
	if err := c.SetColumnFilter("Nope", "x"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestSortCycleRestoresOrder(t *testing.T) {
	t.Parallel()

	c := NewController(sampleModel())
	natural := ids(c.Filtered())

	steps := []struct {
		dir  Direction
		want []string
		hint string
	}{
		{Ascending, []string{"2", "3", "1", "4"}, "Click to sort descending"},
		{Descending, []string{"4", "1", "3", "2"}, "Click to clear sorting"},
		{Unsorted, natural, "Click to sort ascending"},
	}
	for i, step := range steps {
		if _, err := c.HandleKey("Age", "Enter"); err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
		if got := c.Direction("Age"); got != step.dir {
			t.Fatalf("click %d: direction %s, want %s", i+1, got, step.dir)
		}
		if diff := cmp.Diff(step.want, ids(c.Filtered())); diff != "" {
			t.Fatalf("click %d order mismatch:\n%s", i+1, diff)
		}
		if got := c.SortHint("Age"); got != step.hint {
			t.Fatalf("click %d hint %q, want %q", i+1, got, step.hint)
		}
	}

	if consumed, _ := c.HandleKey("Age", "Tab"); consumed {
		t.Fatalf("Tab must not toggle sorting")
	}
}

func TestSortTextCaseInsensitiveNilLast(t *testing.T) {
	t.Parallel()

	c := NewController(sampleModel())
	_ = c.ToggleSort("City")
	if diff := cmp.Diff([]string{"1", "4", "2", "3"}, ids(c.Filtered())); diff != "" {
		t.Fatalf("city order mismatch:\n%s", diff)
	}

	_ = c.ToggleSort("Smoker")
	got := ids(c.Filtered())
	if got[len(got)-1] != "3" {
		t.Fatalf("missing values should sort last, got %v", got)
	}
}

func TestColumnVisibilityKeepsOneColumn(t *testing.T) {
	t.Parallel()

	c := NewController(sampleModel())
	for _, id := range []string{"Full Name", "Age", "Smoker"} {
		if err := c.SetColumnVisible(id, false); err != nil {
			t.Fatalf("hide %s: %v", id, err)
		}
	}
	if c.CanToggle("City") {
		t.Fatalf("last visible column toggle must be disabled")
	}
	if err := c.SetColumnVisible("City", false); !errors.Is(err, ErrLastVisibleColumn) {
		t.Fatalf("expected ErrLastVisibleColumn, got %v", err)
	}
	if !c.CanToggle("Age") {
		t.Fatalf("hidden columns can always be shown again")
	}
	if err := c.SetColumnVisible("Age", true); err != nil {
		t.Fatalf("show: %v", err)
	}
	if !c.CanToggle("City") {
		t.Fatalf("toggle should be enabled once another column is visible")
	}
}

func TestMoveColumnUsesEffectiveOrder(t *testing.T) {
	t.Parallel()

	c := NewController(sampleModel())
	_ = c.SetColumnVisible("Age", false)

	if !c.MoveColumn("City", "Full Name") {
		t.Fatalf("expected move")
	}
	if diff := cmp.Diff([]string{"City", "Full Name", "Age", "Smoker"}, c.ColumnOrder()); diff != "" {
		t.Fatalf("order mismatch:\n%s", diff)
	}
	c.MoveColumn("Full Name", "Smoker")
	if diff := cmp.Diff([]string{"City", "Age", "Smoker", "Full Name"}, c.ColumnOrder()); diff != "" {
		t.Fatalf("second move should start from explicit order:\n%s", diff)
	}

	var headers []string
	for _, col := range c.VisibleColumns() {
		headers = append(headers, col.Header)
	}
	if diff := cmp.Diff([]string{"City", "Smoker", "Full Name"}, headers); diff != "" {
		t.Fatalf("visible columns mismatch:\n%s", diff)
	}
	if c.MoveColumn("City", "City") {
		t.Fatalf("dropping on itself is a no-op")
	}
}

func TestPagination(t *testing.T) {
	t.Parallel()

	resp := schema.SubmissionsResponse{Columns: []string{"n"}}
	for i := 0; i < 27; i++ {
		resp.Data = append(resp.Data, schema.SubmissionRecord{"id": fmt.Sprint(i), "n": float64(i)})
	}
	c := NewController(NewModel(resp))

	if c.PageCount() != 3 || !c.PageSizeSelectable() {
		t.Fatalf("expected 3 pages of 10, got %d", c.PageCount())
	}
	c.SetPage(2)
	if visible, total := c.Summary(); visible != 7 || total != 27 {
		t.Fatalf("summary = %d/%d", visible, total)
	}
	if got := c.SummaryText(); got != "Showing 7 of 27 submissions" {
		t.Fatalf("summary text %q", got)
	}
	if c.NextPage() || !c.PrevPage() || c.Page() != 1 {
		t.Fatalf("unexpected paging state, page %d", c.Page())
	}

	c.SetPage(2)
	c.SetGlobalFilter("3")
	if c.Page() != 2 {
		t.Fatalf("page index is kept when filtering")
	}
	if rows := c.Rows(); len(rows) != 0 {
		t.Fatalf("expected empty page after filtering, got %d rows", len(rows))
	}

	if err := c.SetPageSize(20); !errors.Is(err, ErrPageSize) {
		t.Fatalf("expected ErrPageSize, got %v", err)
	}
	if err := c.SetPageSize(25); err != nil || c.Page() != 0 {
		t.Fatalf("set page size: %v page=%d", err, c.Page())
	}

	small := NewController(NewModel(schema.SubmissionsResponse{Columns: []string{"n"}, Data: resp.Data[:10]}))
	if small.PageSizeSelectable() {
		t.Fatalf("page size selector is disabled for ten rows or fewer")
	}
}

func TestRowsFormatCells(t *testing.T) {
	t.Parallel()

	c := NewController(sampleModel(), WithTranslator(i18n.NewCatalog(), "de"))
	_ = c.SetColumnVisible("City", false)
	rows := c.Rows()
	want := []DisplayRow{
		{ID: "1", Cells: []string{"Jonathan Smith", "41", "Nein"}},
		{ID: "2", Cells: []string{"Ann Lee", "29", "Ja"}},
		{ID: "3", Cells: []string{"Jon", "35", "-"}},
	}
	if diff := cmp.Diff(want, rows[:3], cmpIgnoreRecord); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

var cmpIgnoreRecord = cmp.FilterPath(func(p cmp.Path) bool {
	return p.Last().String() == ".Record"
}, cmp.Ignore())

func TestFormatCell(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value any
		want  string
	}{
		{true, "Yes"},
		{false, "No"},
		{nil, "-"},
		{float64(42), "42"},
		{1.5, "1.5"},
		{[]any{"a", "b"}, "a, b"},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tc := range cases {
		if got := FormatCell(tc.value, nil, "en"); got != tc.want {
			t.Fatalf("FormatCell(%#v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}
