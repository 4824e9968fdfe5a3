package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidExportWindow = errors.New("invalid_export_window")
	ErrInvalidExportFormat = errors.New("invalid_export_format")
)

type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatJSON ExportFormat = "json"
)

// ExportRequest is a period-bounded export of settled rows for external
// bookkeeping. The window is mandatory; exports never scan the full
// ledger.
type ExportRequest struct {
	From time.Time
	To   time.Time
	Type Type
}

type ExportResult struct {
	Data     []byte       `json:"-"`
	Checksum string       `json:"checksum"`
	Format   ExportFormat `json:"format"`
	Count    int          `json:"count"`
}

type ExportService interface {
	Export(ctx context.Context, req ExportRequest, format ExportFormat) (*ExportResult, error)
}
