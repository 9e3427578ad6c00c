package mockapi

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/visibility"
)

//go:embed data/*.yaml
var dataFS embed.FS

// DefaultCatalog returns the bundled form catalog.
func DefaultCatalog() (*schema.Catalog, error) {
	raw, err := dataFS.ReadFile("data/forms.yaml")
	if err != nil {
		return nil, fmt.Errorf("mockapi: read catalog: %w", err)
	}
	forms, err := schema.ParseCatalog(raw, "forms.yaml")
	if err != nil {
		return nil, err
	}
	return schema.NewCatalog(forms)
}

// SeedSubmissions returns the bundled submissions listing.
func SeedSubmissions() (schema.SubmissionsResponse, error) {
	raw, err := dataFS.ReadFile("data/submissions.yaml")
	if err != nil {
		return schema.SubmissionsResponse{}, fmt.Errorf("mockapi: read seed: %w", err)
	}
	var doc struct {
		Columns []string         `yaml:"columns"`
		Data    []map[string]any `yaml:"data"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return schema.SubmissionsResponse{}, fmt.Errorf("mockapi: decode seed: %w", err)
	}
	resp := schema.SubmissionsResponse{Columns: doc.Columns}
	for _, row := range doc.Data {
		resp.Data = append(resp.Data, schema.SubmissionRecord(row))
	}
	return resp, nil
}

// Store keeps submissions in memory. Columns grow as new field labels are
// submitted.
type Store struct {
	mu      sync.RWMutex
	columns []string
	rows    []schema.SubmissionRecord
	details map[string]schema.SubmissionDetail
	now     func() time.Time
	newID   func() string
}

// NewStore seeds a store with an existing listing.
func NewStore(seed schema.SubmissionsResponse) *Store {
	s := &Store{
		details: make(map[string]schema.SubmissionDetail),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
	for _, col := range seed.Columns {
		s.addColumn(col)
	}
	for _, row := range seed.Data {
		s.rows = append(s.rows, cloneRecord(row))
	}
	return s
}

func (s *Store) addColumn(col string) {
	for _, existing := range s.columns {
		if existing == col {
			return
		}
	}
	s.columns = append(s.columns, col)
}

// Add records a submission of form and returns its detail. Values are
// listed under their field labels.
func (s *Store) Add(form schema.InsuranceForm, req schema.SubmitRequest) schema.SubmissionDetail {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().UTC().Format(time.RFC3339)
	detail := schema.SubmissionDetail{
		ID:          s.newID(),
		FormID:      form.FormID,
		UserID:      "mock-user",
		Status:      schema.StatusPending,
		SubmittedAt: stamp,
		UpdatedAt:   stamp,
		Fields:      make(map[string]any),
	}
	detail.AttachmentURLs = append(detail.AttachmentURLs, req.Attachments...)

	record := schema.SubmissionRecord{"id": detail.ID, "Insurance Type": insuranceType(form)}
	s.addColumn("Insurance Type")
	for _, id := range schema.AllFieldIDs(form.Fields) {
		value, ok := req.Data[id]
		if !ok || value == nil {
			continue
		}
		label := id
		if field, found := schema.FindField(form.Fields, id); found && field.Base().Label != "" {
			label = field.Base().Label
		}
		record[label] = value
		detail.Fields[label] = value
		s.addColumn(label)
	}

	s.rows = append(s.rows, record)
	s.details[detail.ID] = detail
	return detail
}

// Detail returns a submission recorded through Add.
func (s *Store) Detail(id string) (schema.SubmissionDetail, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.details[id]
	return d, ok
}

// List applies filter and returns the listing. Meta is only set when the
// filter asks for a page.
func (s *Store) List(filter schema.SubmissionsFilter) schema.SubmissionsResponse {
	s.mu.RLock()
	rows := make([]schema.SubmissionRecord, 0, len(s.rows))
	for _, row := range s.rows {
		if matches(row, s.details[row.ID()], filter) {
			rows = append(rows, cloneRecord(row))
		}
	}
	resp := schema.SubmissionsResponse{Columns: append([]string(nil), s.columns...)}
	s.mu.RUnlock()

	if filter.SortBy != "" {
		desc := strings.EqualFold(filter.SortOrder, "desc")
		sort.SliceStable(rows, func(i, j int) bool {
			a := strings.ToLower(visibility.String(rows[i][filter.SortBy]))
			b := strings.ToLower(visibility.String(rows[j][filter.SortBy]))
			if desc {
				return a > b
			}
			return a < b
		})
	}

	if filter.Page > 0 || filter.Limit > 0 {
		page, limit := filter.Page, filter.Limit
		if page <= 0 {
			page = 1
		}
		if limit <= 0 {
			limit = 10
		}
		total := len(rows)
		start := (page - 1) * limit
		if start > total {
			start = total
		}
		end := start + limit
		if end > total {
			end = total
		}
		resp.Meta = &schema.PageMeta{
			CurrentPage:  page,
			TotalPages:   (total + limit - 1) / limit,
			TotalItems:   total,
			ItemsPerPage: limit,
		}
		rows = rows[start:end]
	}
	resp.Data = rows
	return resp
}

func matches(row schema.SubmissionRecord, detail schema.SubmissionDetail, f schema.SubmissionsFilter) bool {
	if f.FormID != "" && detail.FormID != f.FormID {
		return false
	}
	if f.Status != "" && detail.Status != f.Status {
		return false
	}
	if f.DateFrom != "" && detail.SubmittedAt != "" && detail.SubmittedAt < f.DateFrom {
		return false
	}
	if f.DateTo != "" && detail.SubmittedAt != "" && detail.SubmittedAt > f.DateTo {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.SearchTerm)); term != "" {
		for _, value := range row {
			if strings.Contains(strings.ToLower(visibility.String(value)), term) {
				return true
			}
		}
		return false
	}
	return true
}

func insuranceType(form schema.InsuranceForm) string {
	title := strings.TrimSpace(form.Title)
	if idx := strings.Index(title, " Insurance"); idx > 0 {
		return title[:idx]
	}
	if title == "" {
		return form.FormID
	}
	return title
}

func cloneRecord(r schema.SubmissionRecord) schema.SubmissionRecord {
	out := make(schema.SubmissionRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
