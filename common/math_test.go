package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{
		-3:    1,
		0:     1,
		1:     1,
		2:     2,
		3:     4,
		8192:  8192,
		8193:  16384,
		9000:  16384,
		70000: 131072,
	}
	for in, want := range cases {
		assert.Equal(t, want, NextPowerOfTwo(in), "NextPowerOfTwo(%d)", in)
	}
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, 0, CeilDiv(0, 30))
	assert.Equal(t, 1, CeilDiv(1, 30))
	assert.Equal(t, 300, CeilDiv(9000, 30))
	assert.Equal(t, 301, CeilDiv(9001, 30))
	assert.Equal(t, 0, CeilDiv(10, 0))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, float32(0), Clamp01(-0.5))
	assert.Equal(t, float32(0.25), Clamp01(0.25))
	assert.Equal(t, float32(1), Clamp01(3))
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]float32{}))

	data := []uint32{1, 2, 3}
	b := SliceToBytes(data)
	assert.Len(t, b, 12)

	type pair struct{ A, B float32 }
	p := pair{1, 2}
	assert.Len(t, StructToBytes(&p), 8)
}
