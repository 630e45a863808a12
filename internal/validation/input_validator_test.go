package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "campaignpulse/internal/errors"
	"campaignpulse/internal/shared/testutil"
)

func TestInputValidator_ValidateInputFile(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T) string
		wantType apperrors.ErrorType
	}{
		{
			name: "valid csv",
			setup: func(t *testing.T) string {
				return testutil.WriteCampaignCSV(t, t.TempDir(), "campaigns.csv", testutil.DefaultRow("1"))
			},
		},
		{
			name:     "empty path",
			setup:    func(t *testing.T) string { return "" },
			wantType: apperrors.ErrTypeValidation,
		},
		{
			name:     "unsupported extension",
			setup:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "campaigns.json") },
			wantType: apperrors.ErrTypeValidation,
		},
		{
			name:     "excel lock file",
			setup:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "~$campaigns.xlsx") },
			wantType: apperrors.ErrTypeValidation,
		},
		{
			name:     "missing file",
			setup:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.csv") },
			wantType: apperrors.ErrTypeNotFound,
		},
		{
			name: "directory",
			setup: func(t *testing.T) string {
				dir := filepath.Join(t.TempDir(), "data.csv")
				require.NoError(t, os.Mkdir(dir, 0755))
				return dir
			},
			wantType: apperrors.ErrTypeValidation,
		},
		{
			name: "empty file",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "empty.csv")
				require.NoError(t, os.WriteFile(path, nil, 0644))
				return path
			},
			wantType: apperrors.ErrTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			err := NewInputValidator(logger).ValidateInputFile(tt.setup(t))

			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			got, ok := apperrors.TypeOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, got)
		})
	}
}

func TestInputValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewInputValidator(nil)

	dir := filepath.Join(t.TempDir(), "nested", "out")
	require.NoError(t, v.ValidateOutputDirectory(dir))
	assert.DirExists(t, dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "the write probe must be removed")

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	err = v.ValidateOutputDirectory(filepath.Join(file, "sub"))
	got, _ := apperrors.TypeOf(err)
	assert.Equal(t, apperrors.ErrTypeStorage, got)
}
