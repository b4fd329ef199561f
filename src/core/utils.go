package core

import (
	"golang.org/x/exp/slices"
)

// sortSlice sorts a slice in place with the given strict ordering.
func sortSlice[T any](s []T, less func(a, b T) bool) {
	slices.SortFunc(s, less)
}
