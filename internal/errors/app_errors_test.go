package errors

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewValidationError("threshold must be positive"),
			expected: "[VALIDATION] threshold must be positive",
		},
		{
			name:     "with cause",
			err:      NewSourceError("open exchange report", os.ErrNotExist),
			expected: "[SOURCE] open exchange report: file does not exist",
		},
		{
			name:     "not found",
			err:      NewNotFoundError("sheet Input"),
			expected: "[NOT_FOUND] sheet Input not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := NewStorageError("save workbook", os.ErrPermission)
	wrapped := fmt.Errorf("workbook step: %w", err)

	assert.True(t, errors.Is(wrapped, os.ErrPermission))

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeStorage, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewParsingError("bad header", nil).
		WithContext("sheet", "Yields").
		WithContext("row", 1)

	assert.Equal(t, "Yields", err.Context["sheet"])
	assert.Equal(t, 1, err.Context["row"])

	empty := &AppError{Type: ErrTypeConfig}
	empty.WithContext("key", "value")
	assert.Equal(t, "value", empty.Context["key"])
}

func TestAppError_LogAttrs(t *testing.T) {
	err := NewSourceError("missing sheet", nil).
		WithContext("sheet", "Spread calc").
		WithContext("path", "daily.xlsx")

	attrs := err.LogAttrs()
	require.Len(t, attrs, 6)
	assert.Equal(t, "error_type", attrs[0])
	assert.Equal(t, "SOURCE", attrs[1])
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
	}{
		{"source", NewSourceError("x", nil), ErrTypeSource, true},
		{"storage wrapped", fmt.Errorf("ctx: %w", NewStorageError("x", nil)), ErrTypeStorage, true},
		{"parsing", NewParsingError("x", nil), ErrTypeParsing, false},
		{"config", NewConfigError("x", nil), ErrTypeConfig, false},
		{"plain", errors.New("plain"), "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, TypeOf(tt.err))
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
			if tt.wantType != "" {
				assert.True(t, IsType(tt.err, tt.wantType))
			}
		})
	}
}
