package mathx

import "golang.org/x/exp/constraints"

// Clamp pins v into [lo, hi]. Callers pass lo <= hi; converter codes and
// config windows are always given in order.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// InRange reports whether lo <= v <= hi.
func InRange[T constraints.Ordered](v, lo, hi T) bool {
	return lo <= v && v <= hi
}
