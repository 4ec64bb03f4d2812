package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kyleking/chart-intent/internal/errors"
)

// CSVOptions controls how delimited text is read
type CSVOptions struct {
	Delimiter rune
	// MaxRows caps the number of data rows kept; zero means no limit
	MaxRows int
}

// ReadCSV reads a header row and records into a Frame. Records whose field
// count differs from the header are skipped.
func ReadCSV(name string, r io.Reader, opts CSVOptions) (*Frame, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrTypeDataset, "dataset has no header row")
	}

	if err != nil {
		return nil, errors.NewDatasetError(err, name)
	}

	for i := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(headers[i], "\ufeff"))
	}

	rows := make([][]string, 0, 1024)

	for opts.MaxRows <= 0 || len(rows) < opts.MaxRows {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.NewDatasetError(err, name)
		}

		if len(rec) != len(headers) {
			continue
		}

		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}

		rows = append(rows, rec)
	}

	frame, err := NewFrame(name, headers, rows)
	if err != nil {
		return nil, errors.NewDatasetError(err, name)
	}

	return frame, nil
}

// ReadCSVFile opens path and reads it with ReadCSV. Files ending in .tsv are tab separated.
func ReadCSVFile(path string, opts CSVOptions) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDatasetError(err, path)
	}
	defer f.Close()

	if opts.Delimiter == 0 && strings.EqualFold(filepath.Ext(path), ".tsv") {
		opts.Delimiter = '\t'
	}

	return ReadCSV(filepath.Base(path), f, opts)
}
