package job

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Row is one structured import row: a front/back pair handed to the
// coordinator by an externally parsed file.
type Row struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// ExportRow is one structured export row. Format-specific encoding
// (CSV, XLSX) happens outside the coordinator.
type ExportRow struct {
	Front   string     `json:"front"`
	Back    string     `json:"back"`
	Box     int        `json:"box"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

// RowFailure describes a single rejected import row for the error report.
type RowFailure struct {
	RowNumber int    `json:"row_number"`
	Reason    string `json:"reason"`
}

// SourceStream supplies import rows. Next returns io.EOF after the last row.
type SourceStream interface {
	// Len returns the total number of rows the stream will yield.
	Len() int

	// Next returns the next row, or io.EOF when the stream is exhausted.
	Next() (Row, error)
}

// SinkStream consumes export rows and produces a downloadable artifact.
type SinkStream interface {
	// WriteRow appends one row to the artifact.
	WriteRow(ctx context.Context, row ExportRow) error

	// Finalize closes the artifact and returns its download URL.
	Finalize(ctx context.Context) (string, error)
}

// ReportSink persists the error report of an import with row failures and
// returns its URL.
type ReportSink interface {
	WriteReport(ctx context.Context, jobID uuid.UUID, failures []RowFailure) (string, error)
}
