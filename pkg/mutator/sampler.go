// Copyright 2025 libprotobuf-mutator authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package mutator

import (
	"math"
)

// reservoirSampler selects one item from a stream of weighted offers
// with probability proportional to weight. It keeps a single candidate
// slot: each positive-weight offer draws a key u^(1/w) and replaces the
// current candidate when its key is at least as large, so a later offer
// wins ties. Zero-weight offers are ignored.
type reservoirSampler[T any] struct {
	r        *randGen
	selected T
	key      float64
	some     bool
}

func newReservoirSampler[T any](r *randGen) *reservoirSampler[T] {
	return &reservoirSampler[T]{r: r}
}

func (s *reservoirSampler[T]) Try(weight uint64, item T) {
	if weight == 0 {
		return
	}
	key := math.Pow(s.r.Float64(), 1/float64(weight))
	if !s.some || key >= s.key {
		s.selected = item
		s.key = key
		s.some = true
	}
}

func (s *reservoirSampler[T]) IsEmpty() bool {
	return !s.some
}

// Selected returns the chosen item. At least one positive-weight offer
// must have been made.
func (s *reservoirSampler[T]) Selected() T {
	if !s.some {
		panic("reservoirSampler: no positive-weight offer was made")
	}
	return s.selected
}
