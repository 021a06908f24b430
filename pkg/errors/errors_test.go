package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "upload",
			ID:       "abc",
		}
		assert.Equal(t, "upload with ID abc not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("institution", "42")
		wrapped := fmt.Errorf("lookup: %w", base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
		assert.False(t, pkgerrors.IsInvalidMapping(wrapped))
	})
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name string
		err  *pkgerrors.ParseError
		want string
	}{
		{
			name: "file and line",
			err:  &pkgerrors.ParseError{Format: "csv", File: "a.csv", Line: 3, Message: "bare quote"},
			want: "csv parse error in a.csv at line 3: bare quote",
		},
		{
			name: "file only",
			err:  &pkgerrors.ParseError{Format: "csv", File: "a.csv", Message: "empty file"},
			want: "csv parse error in a.csv: empty file",
		},
		{
			name: "line only",
			err:  &pkgerrors.ParseError{Format: "csv", Line: 1, Message: "duplicate column"},
			want: "csv parse error at line 1: duplicate column",
		},
		{
			name: "bare",
			err:  &pkgerrors.ParseError{Format: "csv", Message: "no data rows"},
			want: "csv parse error: no data rows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.True(t, pkgerrors.IsInvalidFile(tt.err))
		})
	}

	t.Run("unwrap", func(t *testing.T) {
		base := errors.New("boom")
		err := pkgerrors.NewParseError("csv", "x.csv", "read failed", base)
		assert.ErrorIs(t, err, base)
	})
}

func TestMappingError(t *testing.T) {
	assert.Equal(t, "invalid mapping at row 4: missing collectionName",
		pkgerrors.NewRowMappingError(4, "missing collectionName").Error())
	assert.Equal(t, "invalid mapping for column 5 (latitude): column out of range",
		pkgerrors.NewColumnMappingError(5, "latitude", "column out of range").Error())
	assert.Equal(t, "invalid mapping for column 2: unknown field",
		pkgerrors.NewColumnMappingError(2, "", "unknown field").Error())
	assert.Equal(t, "invalid mapping for field institutionName: not mapped",
		pkgerrors.NewMappingError("institutionName", "not mapped").Error())
	assert.Equal(t, "invalid mapping: empty",
		pkgerrors.NewMappingError("", "empty").Error())

	err := fmt.Errorf("commit: %w", pkgerrors.NewMappingError("", "empty"))
	assert.True(t, pkgerrors.IsInvalidMapping(err))
}

func TestConflictError(t *testing.T) {
	base := errors.New("E11000 duplicate key")
	err := pkgerrors.NewConflictError("institution", "smith college", base)

	assert.Contains(t, err.Error(), "institution")
	assert.Contains(t, err.Error(), "smith college")
	assert.True(t, pkgerrors.IsConflict(err))
	assert.ErrorIs(t, err, base)

	assert.Equal(t, `conflict writing upload "u1"`, pkgerrors.NewConflictError("upload", "u1", nil).Error())
}

func TestConfigError(t *testing.T) {
	base := errors.New("unknown backend")
	err := pkgerrors.NewConfigError("store", "cannot open", base)
	assert.Equal(t, "configuration error in store: cannot open", err.Error())
	assert.ErrorIs(t, err, base)

	err = &pkgerrors.ConfigError{Message: "bad"}
	assert.Equal(t, "configuration error: bad", err.Error())
}

func TestIOError(t *testing.T) {
	base := errors.New("permission denied")
	err := pkgerrors.NewIOError("write", "/tmp/snap.yaml", base)
	assert.Equal(t, "IO error during write of /tmp/snap.yaml: permission denied", err.Error())
	assert.ErrorIs(t, err, base)
}

func TestResourceError(t *testing.T) {
	base := errors.New("timeout")
	err := pkgerrors.NewResourceError("create", "upload", "u1", base)
	assert.Equal(t, "failed to create upload u1: timeout", err.Error())

	err = pkgerrors.NewResourceError("list", "collection", "", base)
	assert.Equal(t, "failed to list collection: timeout", err.Error())
}

func TestValidationError(t *testing.T) {
	err := pkgerrors.NewValidationError("port", 0, "must be positive")
	assert.Equal(t, "validation failed for field port: must be positive", err.Error())
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestWrapHelpers(t *testing.T) {
	t.Run("nil passthrough", func(t *testing.T) {
		assert.NoError(t, pkgerrors.WrapIO("read", "x", nil))
		assert.NoError(t, pkgerrors.WrapResource("get", "upload", "x", nil))
		assert.NoError(t, pkgerrors.WrapConflict("institution", "x", nil))
	})

	t.Run("wrapped kinds", func(t *testing.T) {
		base := errors.New("x")

		err := pkgerrors.WrapConflict("collection", "archive", base)
		assert.True(t, pkgerrors.IsConflict(err))

		var ioErr *pkgerrors.IOError
		require.ErrorAs(t, pkgerrors.WrapIO("open", "f", base), &ioErr)
		assert.Equal(t, "open", ioErr.Operation)
	})
}

func TestIsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, pkgerrors.IsCanceled(ctx.Err()))
	assert.True(t, pkgerrors.IsCanceled(fmt.Errorf("resolve: %w", context.DeadlineExceeded)))
	assert.True(t, pkgerrors.IsCanceled(pkgerrors.ErrCanceled))
	assert.False(t, pkgerrors.IsCanceled(errors.New("write conflict")))
}
