package sqlite

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/phrazzld/account-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{
			"email index",
			errors.New("constraint failed: UNIQUE constraint failed: accounts.normalized_email (2067)"),
			store.ErrEmailExists,
		},
		{
			"username index",
			errors.New("constraint failed: UNIQUE constraint failed: accounts.normalized_username (2067)"),
			store.ErrUsernameExists,
		},
		{
			"other unique column",
			errors.New("UNIQUE constraint failed: accounts.id"),
			store.ErrDuplicate,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := MapError(tc.err)
			if tc.wantErr == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.wantErr)
		})
	}
}

func TestMapErrorPassesThroughUnknownErrors(t *testing.T) {
	t.Parallel()

	original := errors.New("disk I/O error")
	assert.Same(t, original, MapError(original))
}

func TestDSN(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "accounts.db?"+defaultPragmas, DSN("accounts.db"))
	assert.Equal(t, "file::memory:?cache=shared", DSN("file::memory:?cache=shared"))
}
