package generic

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolResetsOnPut(t *testing.T) {
	p := NewPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset)

	buf := p.Get()
	buf.WriteString("dirty")
	p.Put(buf)

	assert.Zero(t, buf.Len())
	assert.Zero(t, p.Get().Len())
}

func TestPoolWithoutReset(t *testing.T) {
	calls := 0
	p := NewPool(func() int { calls++; return 7 }, nil)
	assert.Equal(t, 7, p.Get())
	p.Put(7)
	assert.GreaterOrEqual(t, calls, 1)
}
