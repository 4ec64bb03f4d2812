package storage

import (
	"context"
	"os"

	"github.com/kyleking/chart-intent/internal/dataset"
	"github.com/kyleking/chart-intent/internal/errors"
)

// LoadDataset resolves ref to a dataset. An existing file is read as delimited
// text; otherwise ref names a table previously imported into repo. repo may be
// nil, in which case only files are accepted.
func LoadDataset(ctx context.Context, repo Repository, ref string, maxRows int) (*dataset.Frame, error) {
	if ref == "" {
		return nil, errors.New(errors.ErrTypeValidation, "no dataset given").
			WithSuggestion("Pass a CSV file path or the name of an imported table")
	}

	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return dataset.ReadCSVFile(ref, dataset.CSVOptions{MaxRows: maxRows})
	}

	if repo == nil || !identifierPattern.MatchString(ref) {
		return nil, errors.NewDatasetError(os.ErrNotExist, ref)
	}

	return repo.LoadFrame(ctx, ref, maxRows)
}
