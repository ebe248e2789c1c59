package timecodec

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00:00"},
		{30, "00:00:30"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{5415, "01:30:15"},
		{86399, "23:59:59"},
		{86400, "24:00:00"},
		{360000, "100:00:00"},
		{-5, "00:00:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.seconds), "Format(%d)", tt.seconds)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{"00:00:00", 0},
		{"01:30:15", 5415},
		{"100:00:00", 360000},
		{"00:90:00", 5400},
		{" 01:00:00 ", 3600},
		{"01: 30:15", 5415},
		{"", 0},
		{"01:30", 0},
		{"01:30:15:00", 0},
		{"aa:bb:cc", 0},
		{"01:xx:15", 0},
		{"-1:00:00", 0},
		{"1.5:00:00", 0},
		{"3000000000000000:00:00", 0},
		{"00:999999999999999999:00", 0},
		{"2562047788015215:30:07", 9223372036854775807},
		{"2562047788015215:30:08", 0},
		{"00:00:9223372036854775807", 9223372036854775807},
		{"00:00:9223372036854775808", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Parse(tt.text), "Parse(%q)", tt.text)
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	samples := []int64{0, 1, 59, 60, 3599, 3600, 5415, 86400, 1<<31 - 1}
	for i := 0; i < 1000; i++ {
		samples = append(samples, rng.Int63n(1<<40))
	}

	for _, s := range samples {
		assert.Equal(t, s, Parse(Format(s)), "round trip of %d", s)
	}
}

func TestFormatShape(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		s := rng.Int63n(1 << 24)
		text := Format(s)

		parts := strings.Split(text, ":")
		if !assert.Len(t, parts, 3, text) {
			continue
		}
		assert.GreaterOrEqual(t, len(parts[0]), 2, text)
		for _, p := range parts[1:] {
			assert.Len(t, p, 2, text)
			assert.LessOrEqual(t, p, "59", text)
		}
	}
}
