package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	i, err := New()
	require.NoError(t, err)
	require.NotNil(t, i)

	assert.NotPanics(t, func() {
		i.Created("marker", 3)
		i.Disposed("tube", 1)
		i.Write(nil)
		i.Write(errors.New("disk full"))
		i.Transition("idle", "active")
	})
}

func TestNilInstruments(t *testing.T) {
	var i *Instruments
	assert.NotPanics(t, func() {
		i.Created("marker", 1)
		i.Disposed("marker", 1)
		i.Write(nil)
		i.Transition("active", "paused")
	})
}

func TestNop(t *testing.T) {
	i := Nop()
	require.NotNil(t, i)
	assert.NotPanics(t, func() { i.Created("tube", 1) })
}
