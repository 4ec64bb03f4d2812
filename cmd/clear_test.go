package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/chart-intent/internal/storage"
)

func TestRunClear(t *testing.T) {
	withData := func() *MockRepository {
		return &MockRepository{
			records: []storage.InferenceRecord{{ID: "a"}, {ID: "b"}},
			stats:   &storage.Stats{TotalInferences: 2, ChartsProduced: 1},
		}
	}

	tests := []struct {
		name        string
		repo        *MockRepository
		force       bool
		input       string
		wantCleared bool
		contains    []string
	}{
		{
			name:        "force clear with data",
			repo:        withData(),
			force:       true,
			wantCleared: true,
			contains:    []string{"This will delete:", "• 2 inferences (1 with a chart)", "History cleared successfully."},
		},
		{
			name:        "confirmed",
			repo:        withData(),
			input:       "YES\n",
			wantCleared: true,
			contains:    []string{"Type 'yes' to confirm", "History cleared successfully."},
		},
		{
			name:     "declined",
			repo:     withData(),
			input:    "no\n",
			contains: []string{"Operation cancelled."},
		},
		{
			name:     "no input",
			repo:     withData(),
			contains: []string{"Operation cancelled."},
		},
		{
			name:     "already empty",
			repo:     &MockRepository{},
			force:    true,
			contains: []string{"History is already empty."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := captureStdout(t, func() error {
				return runClearWithStorage(context.Background(), tt.force, tt.repo, strings.NewReader(tt.input))
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantCleared, tt.repo.cleared)

			for _, expected := range tt.contains {
				assert.Contains(t, output, expected)
			}
		})
	}
}
