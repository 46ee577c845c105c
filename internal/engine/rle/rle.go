// Package rle run-length encodes per-position id sequences for persistence.
package rle

// Run is a value repeated Count times.
type Run[T comparable] struct {
	Value T   `json:"v"`
	Count int `json:"n"`
}

// Encode collapses consecutive equal values into runs.
// An empty input encodes to an empty (non-nil) slice.
func Encode[T comparable](values []T) []Run[T] {
	runs := make([]Run[T], 0)
	for _, v := range values {
		if n := len(runs); n > 0 && runs[n-1].Value == v {
			runs[n-1].Count++
			continue
		}
		runs = append(runs, Run[T]{Value: v, Count: 1})
	}
	return runs
}

// Decode expands runs back into a flat sequence.
// Runs with a non-positive count contribute nothing.
func Decode[T comparable](runs []Run[T]) []T {
	total := 0
	for _, r := range runs {
		if r.Count > 0 {
			total += r.Count
		}
	}
	values := make([]T, 0, total)
	for _, r := range runs {
		for i := 0; i < r.Count; i++ {
			values = append(values, r.Value)
		}
	}
	return values
}

// Len returns the decoded length of runs.
func Len[T comparable](runs []Run[T]) int {
	total := 0
	for _, r := range runs {
		if r.Count > 0 {
			total += r.Count
		}
	}
	return total
}
