// Copyright 2025 libprotobuf-mutator authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package mutator

import (
	"google.golang.org/protobuf/reflect/protoreflect"
)

// realOneof returns the oneof group containing fd, ignoring the
// synthetic groups protoreflect invents for proto3 optional fields.
func realOneof(fd protoreflect.FieldDescriptor) protoreflect.OneofDescriptor {
	if od := fd.ContainingOneof(); od != nil && !od.IsSynthetic() {
		return od
	}
	return nil
}

type mutationCandidate struct {
	field    fieldInstance
	mutation Mutation
}

// mutationSampler walks a message tree and offers every legal
// (field, mutation) candidate to a weighted reservoir sampler. The
// traversal visits fields in declaration order and recurses pre-order
// into present message children.
type mutationSampler struct {
	keepInitialized bool
	addWeight       uint64
	deleteWeight    uint64
	r               *randGen
	sampler         *reservoirSampler[mutationCandidate]
}

func newMutationSampler(keepInitialized bool, sizeIncreaseHint int, r *randGen, msg protoreflect.Message) *mutationSampler {
	s := &mutationSampler{
		keepInitialized: keepInitialized,
		// Adding and deleting are intrusive and expensive mutations,
		// done less often than in-place field mutations.
		addWeight:    mutateWeight / 10,
		deleteWeight: mutateWeight / 10,
		r:            r,
		sampler:      newReservoirSampler[mutationCandidate](r),
	}
	if sizeIncreaseHint < deletionThreshold {
		// Avoid adding new fields and prefer deletion when we are
		// getting close to the size limit.
		adjustment := 0.5 * float64(sizeIncreaseHint) / deletionThreshold
		s.addWeight = uint64(adjustment * float64(s.addWeight))
		s.deleteWeight = uint64((1 - adjustment) * float64(s.deleteWeight))
	}
	s.sample(msg)
	return s
}

func (s *mutationSampler) empty() bool {
	return s.sampler.IsEmpty()
}

func (s *mutationSampler) field() fieldInstance {
	return s.sampler.Selected().field
}

func (s *mutationSampler) mutation() Mutation {
	return s.sampler.Selected().mutation
}

// copyWeight returns the weight of a Copy candidate. Copying
// sub-messages can increase size significantly, so message copies are
// as rare as adds; scalar copies are as common as in-place mutations.
func (s *mutationSampler) copyWeight(fd protoreflect.FieldDescriptor) uint64 {
	if kindOf(fd) == kindMessage {
		return s.addWeight
	}
	return mutateWeight
}

func (s *mutationSampler) sample(msg protoreflect.Message) {
	fields := msg.Descriptor().Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if fd.IsMap() {
			continue
		}

		if od := realOneof(fd); od != nil {
			// Handle the entire oneof group on its first field.
			if od.Fields().Get(0).Number() == fd.Number() {
				target := od.Fields().Get(s.r.randIndex(od.Fields().Len()))
				s.sampler.Try(s.addWeight, mutationCandidate{newField(msg, target), MutationAdd})
				if active := msg.WhichOneof(od); active != nil {
					if kindOf(active) != kindMessage {
						s.sampler.Try(mutateWeight, mutationCandidate{newField(msg, active), MutationMutate})
					}
					s.sampler.Try(s.deleteWeight, mutationCandidate{newField(msg, active), MutationDelete})
					s.sampler.Try(s.copyWeight(active), mutationCandidate{newField(msg, active), MutationCopy})
				}
			}
		} else if fd.IsList() {
			size := msg.Get(fd).List().Len()
			s.sampler.Try(s.addWeight, mutationCandidate{newFieldAt(msg, fd, s.r.randIndex(size+1)), MutationAdd})
			if size > 0 {
				index := s.r.randIndex(size)
				if kindOf(fd) != kindMessage {
					s.sampler.Try(mutateWeight, mutationCandidate{newFieldAt(msg, fd, index), MutationMutate})
				}
				s.sampler.Try(s.deleteWeight, mutationCandidate{newFieldAt(msg, fd, index), MutationDelete})
				s.sampler.Try(s.copyWeight(fd), mutationCandidate{newFieldAt(msg, fd, index), MutationCopy})
			}
		} else {
			if msg.Has(fd) {
				if kindOf(fd) != kindMessage {
					s.sampler.Try(mutateWeight, mutationCandidate{newField(msg, fd), MutationMutate})
				}
				if fd.Cardinality() != protoreflect.Required || !s.keepInitialized {
					s.sampler.Try(s.deleteWeight, mutationCandidate{newField(msg, fd), MutationDelete})
				}
				s.sampler.Try(s.copyWeight(fd), mutationCandidate{newField(msg, fd), MutationCopy})
			} else {
				s.sampler.Try(s.addWeight, mutationCandidate{newField(msg, fd), MutationAdd})
			}
		}

		if kindOf(fd) == kindMessage {
			if fd.IsList() {
				list := msg.Get(fd).List()
				for j := 0; j < list.Len(); j++ {
					s.sample(list.Get(j).Message())
				}
			} else if msg.Has(fd) {
				s.sample(msg.Mutable(fd).Message())
			}
		}
	}
}

// dataSourceSampler walks a message tree and offers every present field
// of the same kind (and, for enums and messages, the same concrete
// type) as the match target. Repeated matches contribute one uniformly
// random element weighted by the field size; singular matches weigh 1.
type dataSourceSampler struct {
	match   constFieldInstance
	r       *randGen
	sampler *reservoirSampler[constFieldInstance]
}

func newDataSourceSampler(match constFieldInstance, r *randGen, msg protoreflect.Message) *dataSourceSampler {
	s := &dataSourceSampler{
		match:   match,
		r:       r,
		sampler: newReservoirSampler[constFieldInstance](r),
	}
	s.sample(msg)
	return s
}

func (s *dataSourceSampler) empty() bool {
	return s.sampler.IsEmpty()
}

func (s *dataSourceSampler) selected() constFieldInstance {
	return s.sampler.Selected()
}

func (s *dataSourceSampler) sample(msg protoreflect.Message) {
	fields := msg.Descriptor().Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if fd.IsMap() {
			continue
		}

		if kindOf(fd) == kindMessage {
			if fd.IsList() {
				list := msg.Get(fd).List()
				for j := 0; j < list.Len(); j++ {
					s.sample(list.Get(j).Message())
				}
			} else if msg.Has(fd) {
				s.sample(msg.Mutable(fd).Message())
			}
		}

		if !s.matches(fd) {
			continue
		}
		if fd.IsList() {
			if size := msg.Get(fd).List().Len(); size > 0 {
				s.sampler.Try(uint64(size), newConstFieldAt(msg, fd, s.r.randIndex(size)))
			}
		} else if msg.Has(fd) {
			s.sampler.Try(1, newConstField(msg, fd))
		}
	}
}

func (s *dataSourceSampler) matches(fd protoreflect.FieldDescriptor) bool {
	k := kindOf(fd)
	if k != s.match.kind() {
		return false
	}
	switch k {
	case kindEnum:
		return fd.Enum().FullName() == s.match.fd.Enum().FullName()
	case kindMessage:
		return fd.Message().FullName() == s.match.fd.Message().FullName()
	default:
		return true
	}
}
