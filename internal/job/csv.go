package job

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// SliceSource is a SourceStream over an in-memory row slice.
type SliceSource struct {
	rows []Row
	pos  int
}

// NewSliceSource creates a SourceStream that yields the given rows in order.
func NewSliceSource(rows []Row) *SliceSource {
	return &SliceSource{rows: rows}
}

// Len implements SourceStream.
func (s *SliceSource) Len() int {
	return len(s.rows)
}

// Next implements SourceStream.
func (s *SliceSource) Next() (Row, error) {
	if s.pos >= len(s.rows) {
		return Row{}, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

// NewCSVSource reads a two-column (front, back) CSV document fully and
// returns a SourceStream over its rows. Reading up front gives the job an
// exact total row count before the first row is processed.
func NewCSVSource(r io.Reader) (*SliceSource, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
		}

		// Short records still become rows; the resolver rejects them
		// per-row instead of failing the whole file.
		row := Row{}
		if len(record) > 0 {
			row.Front = record[0]
		}
		if len(record) > 1 {
			row.Back = record[1]
		}
		rows = append(rows, row)
	}

	return NewSliceSource(rows), nil
}

// CSVSink is a SinkStream that serializes export rows as CSV:
// front, back, box, due date (RFC 3339 date, empty for new cards).
type CSVSink struct {
	writer      *csv.Writer
	downloadURL string
}

// NewCSVSink creates a SinkStream writing CSV to w. The download URL is the
// address the finished artifact will be served from; it is returned verbatim
// by Finalize.
func NewCSVSink(w io.Writer, downloadURL string) *CSVSink {
	return &CSVSink{
		writer:      csv.NewWriter(w),
		downloadURL: downloadURL,
	}
}

// WriteRow implements SinkStream.
func (s *CSVSink) WriteRow(_ context.Context, row ExportRow) error {
	due := ""
	if row.DueDate != nil {
		due = row.DueDate.Format("2006-01-02")
	}
	return s.writer.Write([]string{row.Front, row.Back, strconv.Itoa(row.Box), due})
}

// Finalize implements SinkStream.
func (s *CSVSink) Finalize(_ context.Context) (string, error) {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return "", err
	}
	return s.downloadURL, nil
}
