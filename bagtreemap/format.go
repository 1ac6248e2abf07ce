package bagtreemap

import (
	"fmt"
	"math"
)

// FormatSize formats bytes with 1024 based units and one decimal, e.g. "2.0KB".
// Values below 1024 have no unit.
func FormatSize(size uint64) string {
	num := float64(size)
	for _, unit := range []string{"", "KB", "MB", "GB"} {
		if math.Abs(num) < 1024 {
			return fmt.Sprintf("%3.1f%s", num, unit)
		}
		num /= 1024
	}
	return fmt.Sprintf("%.1fTB", num)
}

// addSaturating adds b to a, stopping at max uint64 instead of wrapping around.
func addSaturating(a, b uint64) (sum uint64, saturated bool) {
	if s := a + b; s >= a {
		return s, false
	}
	return math.MaxUint64, true
}
