package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   float64
		wantOK bool
	}{
		{"float64", 1.5, 1.5, true},
		{"int", 64, 64, true},
		{"uint64", uint64(12), 12, true},
		{"int64 negative", int64(-3), -3, true},
		{"numeric string", " 2.25 ", 2.25, true},
		{"bad string", "north", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat64(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMap(t *testing.T) {
	m, ok := ToMap(map[any]any{"x": 1, 2: "y"})
	assert.True(t, ok)
	assert.Equal(t, 1, m["x"])
	assert.Equal(t, "y", m["2"])

	_, ok = ToMap([]any{})
	assert.False(t, ok)
}

func TestToSlice(t *testing.T) {
	s, ok := ToSlice([]map[string]any{{"name": "a"}, {"name": "b"}})
	assert.True(t, ok)
	assert.Len(t, s, 2)

	_, ok = ToSlice("nope")
	assert.False(t, ok)
}
