package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityPacking(t *testing.T) {
	tests := []struct {
		name    string
		index   uint16
		version uint16
		str     string
	}{
		{"zero", 0, 0, "0"},
		{"index only", 42, 0, "42"},
		{"max index", 0xFFFF, 0, "65535"},
		{"versioned", 7, 3, "196615"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := MakeEntity(tt.index, tt.version)
			assert.Equal(t, tt.index, e.Index())
			assert.Equal(t, tt.version, e.Version())
			assert.Equal(t, tt.str, e.String())
		})
	}
}

func TestEntityRawValue(t *testing.T) {
	e := Entity(0x0002_0005)
	assert.Equal(t, uint16(5), e.Index())
	assert.Equal(t, uint16(2), e.Version())
}

func TestEntityStringIsRawValue(t *testing.T) {
	assert.Equal(t, "65537", Entity(65537).String())
	assert.Equal(t, "4294967295", Entity(0xFFFF_FFFF).String())
}
