// Package sizing converts between the unsigned sizes stored in archive
// records and the signed sizes used by the io and os packages.
package sizing

import "math"

// ToInt converts a stored size to int, returning overflowErr if it doesn't fit.
func ToInt(size uint64, overflowErr error) (int, error) {
	if size > uint64(math.MaxInt) {
		return 0, overflowErr
	}
	return int(size), nil
}

// ToInt64 converts a stored offset or size to int64, returning overflowErr if
// it doesn't fit.
func ToInt64(size uint64, overflowErr error) (int64, error) {
	if size > uint64(math.MaxInt64) {
		return 0, overflowErr
	}
	return int64(size), nil
}

// AddUint64 adds two uint64 values, returning (result, false) on overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// InBounds reports whether the range [off, off+n) lies inside a source of
// the given size.
func InBounds(off, n uint64, size int64) bool {
	if size < 0 {
		return false
	}
	end, ok := AddUint64(off, n)
	return ok && end <= uint64(size)
}
