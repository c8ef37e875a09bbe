package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bindicator/bindicator/internal/utils"
	"github.com/bindicator/bindicator/pkg/storage"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockedStoreReleasesLockAfterWrite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bindicator.sqlite")
	lock, err := utils.NewDBLock(dbPath)
	require.NoError(t, err)

	s := newLockedStore(storage.NewMemory(), lock)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "bindicatorDefaultUPRN", "1000001"))

	other := flock.New(dbPath + ".lock")
	locked, err := other.TryLock()
	require.NoError(t, err)
	assert.True(t, locked, "lock is free between writes")

	// Reads never wait for the lock.
	v, err := s.Get(ctx, "bindicatorDefaultUPRN")
	require.NoError(t, err)
	assert.Equal(t, "1000001", v)
	require.NoError(t, other.Unlock())

	require.NoError(t, s.Delete(ctx, "bindicatorDefaultUPRN"))
	_, err = s.Get(ctx, "bindicatorDefaultUPRN")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
