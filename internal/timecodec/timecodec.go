// Package timecodec converts accumulated usage seconds to and from the
// fixed hh:mm:ss form shown in the UI and accepted by the edit form.
package timecodec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Zero is the formatted form of a zero duration.
const Zero = "00:00:00"

// Format renders seconds as zero-padded HH:MM:SS. Hours are not wrapped at
// 24 and may grow past two digits. Negative input is treated as zero.
func Format(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Parse converts HH:MM:SS text back into seconds.
//
// Parsing is permissive: anything that is not exactly three non-negative
// integer components yields 0 instead of an error, so a malformed edit resets
// the time rather than blocking the form. Components are not range checked,
// "00:90:00" is 5400. Totals that do not fit in an int64 also yield 0.
func Parse(text string) int64 {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 3 {
		return 0
	}

	var total int64
	for i, part := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || v < 0 {
			return 0
		}
		unit := units[i]
		if v > math.MaxInt64/unit {
			return 0
		}
		v *= unit
		if total > math.MaxInt64-v {
			return 0
		}
		total += v
	}
	return total
}

// units are the seconds per hour, minute and second component.
var units = [3]int64{3600, 60, 1}
