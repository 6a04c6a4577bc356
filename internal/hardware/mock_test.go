package hardware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wfunc/pin-lock/internal/lock"
)

func TestMockPanel(t *testing.T) {
	m := NewMockPanel(2, 16)

	m.Type("12x#")
	assert.Equal(t, 3, m.Pending())
	assert.Equal(t, lock.Key('1'), m.PollKey())
	assert.Equal(t, lock.Key('2'), m.PollKey())
	assert.Equal(t, lock.KeyMenu, m.PollKey())
	assert.Equal(t, lock.KeyNone, m.PollKey())

	assert.False(t, m.Active())
	m.SetReset(true)
	assert.True(t, m.Active())

	assert.NoError(t, m.WriteCentered(0, "Locked"))
	assert.Equal(t, []string{"Locked", ""}, m.Lines())
	assert.Equal(t, 1, m.Writes())

	assert.NoError(t, m.Set(true))
	assert.True(t, m.Relay())

	m.RelayErr = errors.New("coil open")
	assert.Error(t, m.Set(false))
	assert.True(t, m.Relay())
}
