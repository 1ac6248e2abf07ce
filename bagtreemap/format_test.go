package bagtreemap_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nikolaydubina/bag-treemap/bagtreemap"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size uint64
		exp  string
	}{
		{0, "0.0"},
		{5, "5.0"},
		{512, "512.0"},
		{1023, "1023.0"},
		{1024, "1.0KB"},
		{2048, "2.0KB"},
		{1536, "1.5KB"},
		{1 << 20, "1.0MB"},
		{1 << 30, "1.0GB"},
		{1 << 40, "1.0TB"},
		{3 << 40, "3.0TB"},
		{1 << 50, "1024.0TB"},
		{math.MaxUint64, "16777216.0TB"},
	}
	for _, tc := range tests {
		t.Run(tc.exp, func(t *testing.T) {
			assert.Equal(t, tc.exp, bagtreemap.FormatSize(tc.size))
		})
	}
}
