package client

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionCounterRegisterDeregister(t *testing.T) {
	var c actionCounter

	n, ok := c.Register()
	assert.True(t, ok)
	assert.Equal(t, uint32(1), n)

	n, ok = c.Register()
	assert.True(t, ok)
	assert.Equal(t, uint32(2), n)
	assert.Equal(t, uint32(2), c.Count())

	n, reachedZero := c.Deregister()
	assert.False(t, reachedZero)
	assert.Equal(t, uint32(1), n)
	assert.Equal(t, uint32(1), c.Count())

	n, reachedZero = c.Deregister()
	assert.True(t, reachedZero)
	assert.Equal(t, uint32(0), n)
	assert.Equal(t, uint32(0), c.Count())
}

func TestActionCounterDeregisterBelowZeroIsNoop(t *testing.T) {
	var c actionCounter
	n, reachedZero := c.Deregister()
	assert.False(t, reachedZero)
	assert.Equal(t, uint32(0), n)
	assert.Equal(t, uint32(0), c.Count())
}

func TestActionCounterRegisterRefusesAtMax(t *testing.T) {
	var c actionCounter
	c.n.Store(math.MaxUint32)

	n, ok := c.Register()
	assert.False(t, ok)
	assert.Equal(t, uint32(0), n)
	assert.Equal(t, uint32(math.MaxUint32), c.Count())
}
