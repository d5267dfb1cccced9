package keycraft

import (
	"fmt"
	"io"
	"log"
	"sort"
)

// CountPair represents a key/count pair extracted from a map[K]uint64.
type CountPair[K comparable] struct {
	Key   K
	Count uint64
}

// SortedMap returns a slice of key-value pairs from a map, sorted in descending order by count.
func SortedMap[K comparable](m map[K]uint64) []CountPair[K] {
	if m == nil {
		return []CountPair[K]{}
	}

	pairs := make([]CountPair[K], 0, len(m))
	for k, v := range m {
		pairs = append(pairs, CountPair[K]{k, v})
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Count > pairs[j].Count
	})

	return pairs
}

// MustFprintln writes a newline-terminated string of arguments to the given writer,
// logging and exiting on error. It simplifies error handling for fmt.Fprintln calls
// where failures are critical and should halt execution.
func MustFprintln(w io.Writer, args ...interface{}) {
	if _, err := fmt.Fprintln(w, args...); err != nil {
		log.Fatalf("Fprintln failed: %v", err)
	}
}

// MustFprintf writes a formatted string to the given writer, logging and exiting
// on error. It simplifies error handling for fmt.Fprintf calls where failures
// are critical and should halt execution.
func MustFprintf(w io.Writer, format string, args ...interface{}) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		log.Fatalf("Fprintf failed: %v", err)
	}
}
