package market

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ParseInterval understands exchange style intervals: 1m, 5m, 15m, 1h, 4h, 1d, 1w.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if len(s) < 2 {
		return 0, fmt.Errorf("bad interval %q", s)
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("bad interval %q", s)
	}

	switch s[len(s)-1] {
	case 's':
		return time.Duration(n) * time.Second, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("bad interval unit in %q", s)
	}
}

// InferInterval returns the median spacing between consecutive bars, or 0
// when fewer than two bars are given.
func InferInterval(bars []Bar) time.Duration {
	if len(bars) < 2 {
		return 0
	}

	deltas := make([]time.Duration, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		deltas = append(deltas, bars[i].Time.Sub(bars[i-1].Time))
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i] < deltas[j] })

	return deltas[len(deltas)/2]
}
