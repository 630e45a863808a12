package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewAppValidationError("k must be positive"),
			want: "[VALIDATION] k must be positive",
		},
		{
			name: "with cause",
			err:  NewStorageError("write cohort matrix", fmt.Errorf("disk full")),
			want: "[STORAGE] write cohort matrix: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestNewSchemaError(t *testing.T) {
	err := NewSchemaError([]string{"Channel_Used", "Date"})

	assert.Equal(t, ErrTypeSchema, err.Type)
	assert.Contains(t, err.Error(), "Channel_Used, Date")
	assert.Equal(t, []string{"Channel_Used", "Date"}, err.Context["missing_columns"])
	assert.True(t, IsSchemaError(err))
	assert.False(t, IsTypeCoercionError(err))
	assert.True(t, IsFatal(err))
}

func TestNewTypeCoercionError(t *testing.T) {
	cause := fmt.Errorf("invalid syntax")
	err := NewTypeCoercionError("Clicks", 7, "abc", cause)

	assert.Equal(t, ErrTypeTypeCoercion, err.Type)
	assert.Equal(t, "Clicks", err.Context["column"])
	assert.Equal(t, 7, err.Context["row"])
	assert.Equal(t, "abc", err.Context["value"])
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsTypeCoercionError(err))
}

func TestTypeOf_WrappedChain(t *testing.T) {
	inner := NewSchemaError([]string{"ROI"})
	wrapped := fmt.Errorf("load campaigns: %w", inner)

	typ, ok := TypeOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrTypeSchema, typ)
	assert.True(t, IsFatal(wrapped))

	_, ok = TypeOf(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsFatal(errors.New("plain")))
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeConfig, Message: "bad config"}
	err.WithContext("field", "Clusters").WithContext("value", 0)

	assert.Len(t, err.Context, 2)
	assert.Equal(t, "Clusters", err.Context["field"])
}

func TestHelperConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want ErrorType
	}{
		{"parsing", NewParsingError("bad date", nil), ErrTypeParsing},
		{"storage", NewStorageError("open", nil), ErrTypeStorage},
		{"not found", NewNotFoundError("cohort metric"), ErrTypeNotFound},
		{"config", NewConfigError("load", nil), ErrTypeConfig},
		{"analysis", NewAnalysisError("anova", nil), ErrTypeAnalysis},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Type)
			assert.NotNil(t, tt.err.Context)
		})
	}
}
