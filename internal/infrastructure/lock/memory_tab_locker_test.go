package lock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTabLocker(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	tabID := uuid.New()

	t.Run("acquire and release", func(t *testing.T) {
		locker := NewMemoryTabLocker()

		release, err := locker.Acquire(ctx, tenantID, tabID)
		require.NoError(t, err)
		release()

		release, err = locker.Acquire(ctx, tenantID, tabID)
		require.NoError(t, err)
		release()
	})

	t.Run("second acquire fails while held", func(t *testing.T) {
		locker := NewMemoryTabLocker()

		release, err := locker.Acquire(ctx, tenantID, tabID)
		require.NoError(t, err)
		defer release()

		_, err = locker.Acquire(ctx, tenantID, tabID)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "another operation")
	})

	t.Run("different tabs do not contend", func(t *testing.T) {
		locker := NewMemoryTabLocker()

		release1, err := locker.Acquire(ctx, tenantID, tabID)
		require.NoError(t, err)
		defer release1()

		release2, err := locker.Acquire(ctx, tenantID, uuid.New())
		require.NoError(t, err)
		defer release2()
	})

	t.Run("release is idempotent", func(t *testing.T) {
		locker := NewMemoryTabLocker()

		release, err := locker.Acquire(ctx, tenantID, tabID)
		require.NoError(t, err)
		release()
		release()

		_, err = locker.Acquire(ctx, tenantID, tabID)
		assert.NoError(t, err)
	})
}
