//go:build unit

package fsm

import (
	"errors"
	"github.com/gostonefire/flowlookup/flowerr"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestTracker(t *testing.T) {
	t.Run("follows the engine life cycle", func(t *testing.T) {
		// Prepare
		tr := NewTracker()

		// Execute and check
		assert.NoError(t, tr.Set(Initialized), "init")
		assert.NoError(t, tr.Set(Enabled), "install")
		assert.NoError(t, tr.Check(Installed), "add allowed")
		assert.NoError(t, tr.Set(Installed), "first record")
		assert.NoError(t, tr.Set(Installed), "more records")
		assert.NoError(t, tr.Require(Installed), "read allowed")
		assert.NoError(t, tr.Set(Enabled), "last record removed")
		assert.Equal(t, Enabled, tr.State(), "back to enabled")
	})

	t.Run("a violation is permanent", func(t *testing.T) {
		// Prepare
		tr := NewTracker()
		_ = tr.Set(Initialized)

		// Execute
		err := tr.Set(Installed)

		// Check
		assert.True(t, errors.Is(err, flowerr.IllegalInState{}), "illegal transition")
		assert.Equal(t, FatalError, tr.State(), "fatal error entered")
		assert.Error(t, tr.Set(Enabled), "no way out of fatal error")
		assert.Error(t, tr.Require(Enabled), "requirement fails too")
	})

	t.Run("read before any record fails", func(t *testing.T) {
		// Prepare
		tr := NewTracker()
		_ = tr.Set(Initialized)
		_ = tr.Set(Enabled)

		// Execute
		err := tr.Require(Installed)

		// Check
		assert.True(t, errors.Is(err, flowerr.IllegalInState{}), "not installed")
		assert.Equal(t, "fatal-error", tr.State().String(), "state name")
	})
}
