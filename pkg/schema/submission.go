package schema

import (
	"encoding/json"
	"fmt"
)

// SubmissionRecord is one row of the submissions listing: an id plus one
// entry per server-declared column.
type SubmissionRecord map[string]any

// ID returns the record id as a string.
func (r SubmissionRecord) ID() string {
	if id, ok := r["id"].(string); ok {
		return id
	}
	return ""
}

// SubmissionsResponse is the payload of the submissions listing.
type SubmissionsResponse struct {
	Columns []string           `json:"columns"`
	Data    []SubmissionRecord `json:"data"`
	Meta    *PageMeta          `json:"meta,omitempty"`
}

// PageMeta describes a server-side page when the listing is paginated.
type PageMeta struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// SubmissionStatus is the review state of a submission.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// SubmissionsFilter narrows the submissions listing server side. Zero values
// are omitted from the request.
type SubmissionsFilter struct {
	FormID     string           `json:"formId,omitempty"`
	Status     SubmissionStatus `json:"status,omitempty"`
	DateFrom   string           `json:"dateFrom,omitempty"`
	DateTo     string           `json:"dateTo,omitempty"`
	SearchTerm string           `json:"searchTerm,omitempty"`
	Page       int              `json:"page,omitempty"`
	Limit      int              `json:"limit,omitempty"`
	SortBy     string           `json:"sortBy,omitempty"`
	SortOrder  string           `json:"sortOrder,omitempty"`
}

// SubmitRequest is the body of a form submission.
type SubmitRequest struct {
	FormID      string   `json:"formId"`
	Data        Values   `json:"data"`
	Attachments []string `json:"attachments,omitempty"`
}

// SubmissionDetail is the server's echo of an accepted submission. Fields
// holds the dynamic columns.
type SubmissionDetail struct {
	ID                string           `json:"id"`
	FormID            string           `json:"formId"`
	UserID            string           `json:"userId"`
	Status            SubmissionStatus `json:"status"`
	SubmittedAt       string           `json:"submittedAt"`
	UpdatedAt         string           `json:"updatedAt"`
	AttachmentURLs    []string         `json:"attachmentUrls,omitempty"`
	AdditionalDetails map[string]any   `json:"additionalDetails,omitempty"`
	Fields            map[string]any   `json:"-"`
}

var detailKeys = map[string]struct{}{
	"id": {}, "formId": {}, "userId": {}, "status": {}, "submittedAt": {},
	"updatedAt": {}, "attachmentUrls": {}, "additionalDetails": {},
}

type submissionDetailWire SubmissionDetail

// MarshalJSON flattens Fields next to the fixed attributes.
func (d SubmissionDetail) MarshalJSON() ([]byte, error) {
	fixed, err := json.Marshal(submissionDetailWire(d))
	if err != nil {
		return nil, err
	}
	if len(d.Fields) == 0 {
		return fixed, nil
	}
	merged := make(map[string]any, len(d.Fields)+len(detailKeys))
	for key, value := range d.Fields {
		if _, reserved := detailKeys[key]; !reserved {
			merged[key] = value
		}
	}
	if err := json.Unmarshal(fixed, &merged); err != nil {
		return nil, err
	}
	return json.Marshal(merged)
}

// UnmarshalJSON collects every non-fixed attribute into Fields.
func (d *SubmissionDetail) UnmarshalJSON(data []byte) error {
	var wire submissionDetailWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("schema: decode submission detail: %w", err)
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return fmt.Errorf("schema: decode submission detail: %w", err)
	}
	wire.Fields = nil
	for key, value := range all {
		if _, reserved := detailKeys[key]; reserved {
			continue
		}
		if wire.Fields == nil {
			wire.Fields = make(map[string]any)
		}
		wire.Fields[key] = value
	}
	*d = SubmissionDetail(wire)
	return nil
}
