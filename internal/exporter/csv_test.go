package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaignpulse/internal/shared/testutil"
	"campaignpulse/pkg/contracts/domain"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	content = bytes.TrimPrefix(content, utf8BOM)
	return strings.Split(strings.TrimSpace(string(content)), "\n")
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	tests := []struct {
		name     string
		options  WriteOptions
		validate func(t *testing.T, path string)
	}{
		{
			name: "basic write with headers",
			options: WriteOptions{
				Headers: []string{"Channel_Used", "ROI"},
				Records: [][]string{
					{"Google Ads", "5.95"},
					{"YouTube", "6.41"},
				},
			},
			validate: func(t *testing.T, path string) {
				lines := readLines(t, path)
				assert.Equal(t, []string{"Channel_Used,ROI", "Google Ads,5.95", "YouTube,6.41"}, lines)
			},
		},
		{
			name: "write with BOM prefix",
			options: WriteOptions{
				Headers:   []string{"Location"},
				Records:   [][]string{{"Chicago"}},
				BOMPrefix: true,
			},
			validate: func(t *testing.T, path string) {
				content, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.True(t, bytes.HasPrefix(content, utf8BOM))
			},
		},
		{
			name: "fields with separators are quoted",
			options: WriteOptions{
				Headers: []string{"Customer_Segment"},
				Records: [][]string{{"Health, Wellness"}},
			},
			validate: func(t *testing.T, path string) {
				assert.Equal(t, `"Health, Wellness"`, readLines(t, path)[1])
			},
		},
		{
			name: "empty records",
			options: WriteOptions{
				Headers: []string{"Col1", "Col2"},
				Records: [][]string{},
			},
			validate: func(t *testing.T, path string) {
				assert.Equal(t, []string{"Col1,Col2"}, readLines(t, path))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			w := NewCSVWriter(logger)
			path := filepath.Join(t.TempDir(), "nested", "out.csv")

			require.NoError(t, w.WriteCSV(path, tt.options))
			tt.validate(t, path)
		})
	}
}

func TestCSVWriter_AppendToCSV(t *testing.T) {
	w := NewCSVWriter(nil)
	path := filepath.Join(t.TempDir(), "append.csv")

	require.NoError(t, w.WriteCSV(path, WriteOptions{
		Headers: []string{"A", "B"},
		Records: [][]string{{"1", "2"}},
	}))
	require.NoError(t, w.AppendToCSV(path, [][]string{{"3", "4"}}))

	assert.Equal(t, []string{"A,B", "1,2", "3,4"}, readLines(t, path))
}

func TestCSVWriter_WriteTable(t *testing.T) {
	w := NewCSVWriter(nil)
	path := filepath.Join(t.TempDir(), "table.csv")

	table := domain.Table{
		Name:   "cohort_retention_matrix",
		Header: []string{"Cohort_Month", "0", "1"},
		Rows: [][]any{
			{"2021-01", 1.0, 0.5},
			{"2021-02", 1.0, nil},
		},
	}
	require.NoError(t, w.WriteTable(path, table))

	assert.Equal(t, []string{
		"Cohort_Month,0,1",
		"2021-01,1,0.5",
		"2021-02,1,",
	}, readLines(t, path))
}

func TestStreamWriter(t *testing.T) {
	w := NewCSVWriter(nil)
	path := filepath.Join(t.TempDir(), "stream.csv")

	stream, err := w.CreateStreamWriter(path, []string{"Campaign_ID", "ROI"}, true)
	require.NoError(t, err)

	for _, rec := range [][]string{{"1", "6.29"}, {"2", "5.61"}, {"3", "7.18"}} {
		require.NoError(t, stream.WriteRecord(rec))
	}
	assert.Equal(t, 3, stream.Rows())
	require.NoError(t, stream.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, utf8BOM))
	assert.Equal(t, []string{"Campaign_ID,ROI", "1,6.29", "2,5.61", "3,7.18"}, readLines(t, path))
}

func TestCSVWriter_UnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	w := NewCSVWriter(nil)
	err := w.WriteCSV(filepath.Join(blocker, "out.csv"), WriteOptions{Headers: []string{"A"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create directory")

	_, err = w.CreateStreamWriter(filepath.Join(blocker, "s.csv"), nil, false)
	require.Error(t, err)
}
