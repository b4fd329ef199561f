package core

import (
	"fmt"
)

// A TargetMap holds every target of one sync generation, keyed by TargetKey.
// It is built once and never mutated; the next sync replaces it wholesale, so it's
// safe to share between goroutines without locking.
type TargetMap struct {
	targets map[TargetKey]*TargetIdeInfo
	sorted  []*TargetIdeInfo
}

// NewTargetMap builds a target map. Two records with the same key indicate broken aspect
// output and are an error.
func NewTargetMap(targets []*TargetIdeInfo) (*TargetMap, error) {
	m := &TargetMap{
		targets: make(map[TargetKey]*TargetIdeInfo, len(targets)),
		sorted:  make([]*TargetIdeInfo, 0, len(targets)),
	}
	for _, target := range targets {
		if _, present := m.targets[target.Key]; present {
			return nil, fmt.Errorf("duplicate target %s in aspect output", target.Key)
		}
		m.targets[target.Key] = target
		m.sorted = append(m.sorted, target)
	}
	sortSlice(m.sorted, func(a, b *TargetIdeInfo) bool { return a.Key.Less(b.Key) })
	return m, nil
}

// EmptyTargetMap returns a target map with nothing in it.
func EmptyTargetMap() *TargetMap {
	m, _ := NewTargetMap(nil)
	return m
}

// Get returns the target with the given key, or nil if there isn't one.
func (m *TargetMap) Get(key TargetKey) *TargetIdeInfo {
	return m.targets[key]
}

// Contains returns true if the map has a target with the given key.
func (m *TargetMap) Contains(key TargetKey) bool {
	_, present := m.targets[key]
	return present
}

// Targets returns all the targets in the map, ordered by key.
// The slice is shared and must not be modified.
func (m *TargetMap) Targets() []*TargetIdeInfo {
	return m.sorted
}

// Len returns the number of targets in the map.
func (m *TargetMap) Len() int {
	return len(m.sorted)
}
