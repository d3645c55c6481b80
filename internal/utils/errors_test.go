package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPakError_Error(t *testing.T) {
	tests := []struct {
		name     string
		context  string
		cause    error
		expected string
	}{
		{
			name:     "simple error",
			context:  "reading footer",
			cause:    errors.New("invalid magic"),
			expected: "reading footer: invalid magic",
		},
		{
			name:     "nested error",
			context:  "parsing index",
			cause:    errors.New("record count mismatch"),
			expected: "parsing index: record count mismatch",
		},
		{
			name:     "empty context",
			context:  "",
			cause:    errors.New("some error"),
			expected: ": some error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &PakError{Context: tt.context, Cause: tt.cause}
			require.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestPakError_KindInMessage(t *testing.T) {
	err := NewError(KindMagicMismatch, "reading footer", errors.New("got 0xdeadbeef"))
	require.Contains(t, err.Error(), "magic-mismatch")
	require.Contains(t, err.Error(), "reading footer")
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name    string
		context string
		cause   error
		wantNil bool
	}{
		{name: "wrap non-nil error", context: "reading data", cause: errors.New("IO error")},
		{name: "wrap nil error returns nil", context: "some operation", cause: nil, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapError(tt.context, tt.cause)

			if tt.wantNil {
				require.Nil(t, err)
				return
			}

			require.NotNil(t, err)

			var pakErr *PakError
			ok := errors.As(err, &pakErr)
			require.True(t, ok, "error should be PakError type")
			require.Equal(t, tt.context, pakErr.Context)
			require.Equal(t, tt.cause, pakErr.Cause)
		})
	}
}

func TestNewError_NilCauseReturnsNil(t *testing.T) {
	require.Nil(t, NewError(KindValidation, "context", nil))
}

func TestPakError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrapped := WrapError("context", originalErr)

	require.NotNil(t, wrapped)
	require.Equal(t, originalErr, errors.Unwrap(wrapped))
}

func TestPakError_ErrorsIs(t *testing.T) {
	originalErr := errors.New("specific error")
	wrapped := WrapError("first level", originalErr)
	doubleWrapped := WrapError("second level", wrapped)

	require.True(t, errors.Is(doubleWrapped, originalErr))
	require.True(t, errors.Is(wrapped, originalErr))
}

func TestIsKind(t *testing.T) {
	base := NewError(KindInvalidBool, "parsing bool", errors.New("value was 2"))
	wrapped := WrapError("decoding record", base)

	require.True(t, IsKind(wrapped, KindInvalidBool))
	require.False(t, IsKind(wrapped, KindMagicMismatch))
	require.False(t, IsKind(nil, KindInvalidBool))
}

func TestWrapError_ChainedWrapping(t *testing.T) {
	baseErr := errors.New("base error")
	level1 := WrapError("level 1", baseErr)
	level2 := WrapError("level 2", level1)
	level3 := WrapError("level 3", level2)

	require.NotNil(t, level3)

	errMsg := level3.Error()
	require.Contains(t, errMsg, "level 3")
	require.Contains(t, errMsg, "level 2")

	require.True(t, errors.Is(level3, baseErr))

	var pakErr *PakError
	require.True(t, errors.As(level3, &pakErr))
	require.Equal(t, "level 3", pakErr.Context)

	unwrapped1 := errors.Unwrap(level3)
	require.True(t, errors.As(unwrapped1, &pakErr))
	require.Equal(t, "level 2", pakErr.Context)

	unwrapped2 := errors.Unwrap(unwrapped1)
	require.True(t, errors.As(unwrapped2, &pakErr))
	require.Equal(t, "level 1", pakErr.Context)

	unwrapped3 := errors.Unwrap(unwrapped2)
	require.Equal(t, baseErr, unwrapped3)
}

func BenchmarkWrapError(b *testing.B) {
	baseErr := errors.New("base error")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = WrapError("context", baseErr)
	}
}
