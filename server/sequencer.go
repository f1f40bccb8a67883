package main

import "time"

// nextID returns max+1, or 1 for an empty collection. Callers read the max
// and insert in separate steps, so concurrent processes may collide.
func nextID(last int64, found bool) int64 {
	if !found {
		return 1
	}
	return last + 1
}

// appendPosition places a new record after its last sibling.
func appendPosition(last int64, found bool) int64 {
	if !found {
		return 1
	}
	return last + 1
}

// rank hands every id its 1-based position in the given order. Ids absent
// from the sequence are not touched. A repeated id ends up with its last rank.
func rank(ids []int64, assign func(id, pos int64) error) error {
	for i, id := range ids {
		if err := assign(id, int64(i+1)); err != nil {
			return err
		}
	}
	return nil
}

// stamp returns the current time truncated to the backend precision, moved
// forward if needed so it is strictly after prev.
func stamp(now func() time.Time, precision time.Duration, prev time.Time) time.Time {
	t := now().UTC().Truncate(precision)
	if !prev.IsZero() && !t.After(prev) {
		t = prev.UTC().Truncate(precision).Add(precision)
	}
	return t
}
