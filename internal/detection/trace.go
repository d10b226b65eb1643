package detection

import (
	"fmt"
	"strconv"
)

// trace is the append-only decision log of one request.
type trace struct {
	entries []string
}

func (t *trace) add(format string, args ...any) {
	t.entries = append(t.entries, fmt.Sprintf(format, args...))
}

func (t *trace) snapshot() []string {
	out := make([]string, len(t.entries))
	copy(out, t.entries)
	return out
}

func formatScore(score *float64) string {
	if score == nil {
		return "none"
	}
	return strconv.FormatFloat(*score, 'f', 4, 64)
}
