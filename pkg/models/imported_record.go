package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultRecordPageSize = 50
	MaxRecordPageSize     = 500
)

// ImportedRecord is a generic telemetry record loaded from the spool
type ImportedRecord struct {
	ID        uuid.UUID `json:"id"`
	SourceKey string    `json:"source_key"`
	DataType  string    `json:"data_type"`
	ValueStr  *string   `json:"value_str"`
	ValueNum  *float64  `json:"value_num"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

// Validate checks the fields required for import
func (r *ImportedRecord) Validate() error {
	verr := NewValidationError()
	if strings.TrimSpace(r.SourceKey) == "" {
		verr.Add("source_key", "source_key is required")
	}
	if strings.TrimSpace(r.Category) == "" {
		verr.Add("category", "category is required")
	}
	return verr.OrNil()
}

// RecordQueryParams holds the search and paging options for imported records
type RecordQueryParams struct {
	Search   string
	Page     int
	PageSize int
}

// Validate checks if the query parameters are valid
func (p *RecordQueryParams) Validate() error {
	if p.Page < 1 {
		return fmt.Errorf("page must be greater than 0")
	}
	if p.PageSize < 1 || p.PageSize > MaxRecordPageSize {
		return fmt.Errorf("page_size must be between 1 and %d", MaxRecordPageSize)
	}
	return nil
}

// Offset returns the row offset of the requested page
func (p *RecordQueryParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// RecordsResponse is a page of imported records
type RecordsResponse struct {
	Data       []ImportedRecord `json:"data"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	PageSize   int              `json:"page_size"`
	HasMore    bool             `json:"has_more"`
}

// NewRecordsResponse builds a page with derived paging fields
func NewRecordsResponse(records []ImportedRecord, total int, params RecordQueryParams) RecordsResponse {
	totalPages := 0
	if params.PageSize > 0 {
		totalPages = (total + params.PageSize - 1) / params.PageSize
	}
	if records == nil {
		records = []ImportedRecord{}
	}
	return RecordsResponse{
		Data:       records,
		Total:      total,
		Page:       params.Page,
		TotalPages: totalPages,
		PageSize:   params.PageSize,
		HasMore:    params.Page < totalPages,
	}
}

// ImportResult summarises an import run
type ImportResult struct {
	Read     int `json:"read"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}
