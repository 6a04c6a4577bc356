package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSlots(t *testing.T) {
	tests := []struct {
		slots    string
		expected int
	}{
		{"60--", 60},
		{"----", DefaultNumber},
		{"", DefaultNumber},
		{"0000", 0},
		{"0---", 0},
		{"1234", 1234},
		{"007", 7},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseSlots(tt.slots), "slots %q", tt.slots)
	}
}

func TestInputBuffer(t *testing.T) {
	b := NewInputBuffer(4)
	assert.Equal(t, "----", b.String())
	assert.False(t, b.Filled())

	assert.True(t, b.Push('6'))
	assert.True(t, b.Push('0'))
	assert.False(t, b.Push(KeySubmit))
	assert.Equal(t, "60--", b.String())
	assert.Equal(t, "**--", b.Masked())
	assert.Equal(t, "60", b.Digits())
	assert.Equal(t, 60, ParseNumber(b))

	assert.True(t, b.Push('1'))
	assert.True(t, b.Push('2'))
	assert.True(t, b.Filled())
	assert.False(t, b.Push('3'), "已满时拒绝输入")
	assert.Equal(t, 4, b.Cursor())

	b.Clear()
	assert.Equal(t, 4, b.Width())
	assert.Equal(t, 0, b.Cursor())
	assert.Equal(t, DefaultNumber, ParseNumber(b))

	b.Reset(0)
	assert.True(t, b.Filled(), "宽度为0的缓冲区总是已满")
	assert.Equal(t, "", b.String())
}

func TestParseKey(t *testing.T) {
	k, ok := ParseKey('7')
	assert.True(t, ok)
	assert.True(t, k.IsDigit())

	k, ok = ParseKey('d')
	assert.True(t, ok)
	assert.Equal(t, KeySubmit, k)

	k, ok = ParseKey('#')
	assert.True(t, ok)
	assert.Equal(t, KeyMenu, k)
	assert.Equal(t, "menu", k.String())

	_, ok = ParseKey('x')
	assert.False(t, ok)
}
