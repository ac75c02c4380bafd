package showlight

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatSeconds renders a millisecond time the way Rocksmith files store it,
// in seconds with three decimals.
func FormatSeconds(ms int) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	return fmt.Sprintf("%s%d.%03d", sign, ms/1000, ms%1000)
}

// ParseSeconds converts a time in seconds ("12.345") to milliseconds, rounding
// to the nearest millisecond.
func ParseSeconds(value string) (int, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time value '%s': %w", value, err)
	}
	return int(math.Round(seconds * 1000)), nil
}
