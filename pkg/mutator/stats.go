// Copyright 2025 libprotobuf-mutator authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package mutator

import (
	"sync/atomic"
)

// Stats counts the operations a Mutator has applied. Counters are
// atomic so a harness can read them while another goroutine drives a
// different Mutator; a single Mutator itself stays single-threaded.
type Stats struct {
	Adds       atomic.Uint64
	Mutates    atomic.Uint64
	Deletes    atomic.Uint64
	Copies     atomic.Uint64
	CrossOvers atomic.Uint64
}

func (s *Stats) count(m Mutation) {
	switch m {
	case MutationAdd:
		s.Adds.Add(1)
	case MutationMutate:
		s.Mutates.Add(1)
	case MutationDelete:
		s.Deletes.Add(1)
	case MutationCopy:
		s.Copies.Add(1)
	}
}

// Mutations returns the total number of applied mutations.
func (s *Stats) Mutations() uint64 {
	return s.Adds.Load() + s.Mutates.Load() + s.Deletes.Load() + s.Copies.Load()
}
