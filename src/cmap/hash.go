package cmap

import (
	"github.com/cespare/xxhash/v2"
)

// XXHashOf hashes anything with an underlying string type, eg. cache keys or labels.
func XXHashOf[S ~string](s S) uint64 {
	return xxhash.Sum64String(string(s))
}
