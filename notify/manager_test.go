package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyNewestFirst(t *testing.T) {
	m := NewManager(5, 0)
	m.Notify("first", "", "success")
	m.Notify("second", "", "error")

	active := m.Active()
	assert.Equal(t, 2, len(active))
	assert.Equal(t, "second", active[0].Title)
	assert.Equal(t, "first", active[1].Title)
	assert.NotEqual(t, active[0].ID, active[1].ID)
}

func TestLimitEvictsOldest(t *testing.T) {
	m := NewManager(2, 0)
	m.Notify("a", "", "default")
	m.Notify("b", "", "default")
	m.Notify("c", "", "default")

	active := m.Active()
	assert.Equal(t, 2, len(active))
	assert.Equal(t, "c", active[0].Title)
	assert.Equal(t, "b", active[1].Title)
}

func TestDismiss(t *testing.T) {
	m := NewManager(5, 0)
	m.Notify("a", "", "default")
	m.Notify("b", "", "default")
	id := m.Active()[1].ID

	m.Dismiss(id)
	active := m.Active()
	assert.Equal(t, 1, len(active))
	assert.Equal(t, "b", active[0].Title)

	// unknown ids are ignored
	m.Dismiss("999")
	assert.Equal(t, 1, len(m.Active()))
}

func TestAutoDismissAfterTTL(t *testing.T) {
	m := NewManager(5, 20*time.Millisecond)
	m.Notify("ephemeral", "", "success")
	assert.Equal(t, 1, len(m.Active()))

	require.Eventually(t, func() bool {
		return len(m.Active()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestStop(t *testing.T) {
	m := NewManager(5, time.Hour)
	m.Notify("a", "", "default")
	m.Stop()
	assert.Equal(t, 0, len(m.Active()))

	m.Notify("after stop", "", "default")
	assert.Equal(t, 0, len(m.Active()))
}
