package eventlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/exp/mmap"
)

// ErrMissingColumn is returned when a CSV record is shorter than the
// configured case or activity column
var ErrMissingColumn = errors.New("eventlog: record is missing a column")

// CSVOptions selects the columns that hold the case id and the activity
type CSVOptions struct {
	CaseColumn     int  // zero-based index of the case id column
	ActivityColumn int  // zero-based index of the activity column
	Comma          rune // field delimiter, ',' when zero
	Header         bool // skip the first record
}

// DefaultCSVOptions matches the common "case,activity,..." layout with a header row
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{CaseColumn: 0, ActivityColumn: 1, Comma: ',', Header: true}
}

// ReadCSV reads an event log whose rows are events ordered by time.
// Events are grouped per case in the order they appear.
func ReadCSV(r io.Reader, opts CSVOptions) (*Log, error) {
	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	need := max(opts.CaseColumn, opts.ActivityColumn)
	traces := make(map[string][]string)
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++
		if line == 1 && opts.Header {
			continue
		}
		if len(record) <= need {
			return nil, fmt.Errorf("line %d: %w (have %d fields)", line, ErrMissingColumn, len(record))
		}
		id := record[opts.CaseColumn]
		traces[id] = append(traces[id], record[opts.ActivityColumn])
	}
	return New(traces)
}

// LoadCSV memory-maps path and reads it with ReadCSV
func LoadCSV(path string, opts CSVOptions) (*Log, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer reader.Close()
	return ReadCSV(io.NewSectionReader(reader, 0, int64(reader.Len())), opts)
}
