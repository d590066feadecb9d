// Copyright 2025 libprotobuf-mutator authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package mutator provides structure-aware mutation and crossover of
// protobuf messages for coverage-guided fuzzing. Mutations always
// preserve the schema of the message: field kinds never change,
// repeated fields stay dense, and at most one member of a oneof group
// is active. With KeepInitialized set, required fields are repaired
// after every operation so the message stays initialized.
package mutator

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const (
	maxInitializeDepth = 32
	deletionThreshold  = 128
	mutateWeight       = uint64(1000000)
)

// Mutation identifies the operation Mutate applied.
type Mutation uint8

const (
	// MutationNone means no candidate existed (empty schema).
	MutationNone Mutation = iota
	// MutationAdd adds a new field with a default or random value.
	MutationAdd
	// MutationMutate mutates field contents in place.
	MutationMutate
	// MutationDelete deletes a field.
	MutationDelete
	// MutationCopy overwrites a field with a value copied from another
	// field of the same type.
	MutationCopy
)

func (m Mutation) String() string {
	switch m {
	case MutationNone:
		return "none"
	case MutationAdd:
		return "add"
	case MutationMutate:
		return "mutate"
	case MutationDelete:
		return "delete"
	case MutationCopy:
		return "copy"
	default:
		return fmt.Sprintf("Mutation(%d)", uint8(m))
	}
}

// Mutator applies single random structural mutations to protobuf
// messages and recombines pairs of same-schema messages. The caller
// owns the messages; the Mutator borrows them for the duration of a
// call. A Mutator must not be used concurrently; independent Mutators
// with distinct seeds may run in parallel on distinct messages.
type Mutator struct {
	// KeepInitialized makes Mutate and CrossOver repair missing
	// required fields so the resulting message stays initialized.
	KeepInitialized bool

	// Stats counts the operations applied over the Mutator's lifetime.
	Stats Stats

	r *randGen
}

// New constructs a Mutator with a deterministic PRNG. Two Mutators
// built with the same seed and fed identical calls produce identical
// results.
func New(seed uint32) *Mutator {
	return &Mutator{r: newRandGen(seed)}
}

// Mutate applies one random mutation to msg and reports which operation
// the sampler selected. sizeIncreaseHint is a soft budget on how much
// the mutation may grow the message; values below the deletion
// threshold bias the sampler away from adds and toward deletes.
func (m *Mutator) Mutate(msg proto.Message, sizeIncreaseHint int) Mutation {
	if sizeIncreaseHint < 0 {
		sizeIncreaseHint = 0
	}
	root := msg.ProtoReflect()
	sampler := newMutationSampler(m.KeepInitialized, sizeIncreaseHint, m.r, root)
	if sampler.empty() {
		// Only possible for a message with no usable fields at all.
		return MutationNone
	}

	field := sampler.field()
	mutation := sampler.mutation()
	switch mutation {
	case MutationAdd:
		if m.r.bin() {
			field.applyCreateRandom(fieldMutator{m, sizeIncreaseHint / 2})
		} else {
			field.applyCreateDefault()
		}
	case MutationMutate:
		field.applyMutate(fieldMutator{m, sizeIncreaseHint / 2})
	case MutationDelete:
		field.applyDelete()
	case MutationCopy:
		m.copyField(field, root)
	default:
		panic(fmt.Sprintf("unexpected mutation %v", mutation))
	}
	m.Stats.count(mutation)

	if m.KeepInitialized && proto.CheckInitialized(msg) != nil {
		m.initializeMessage(root, maxInitializeDepth)
	}
	return mutation
}

// copyField overwrites field with a compatible source sampled from the
// whole tree. The source may be the destination itself, making the copy
// a no-op. With no compatible source anywhere, the copy silently falls
// back to deletion.
func (m *Mutator) copyField(field fieldInstance, root protoreflect.Message) {
	source := newDataSourceSampler(field.constFieldInstance, m.r, root)
	if source.empty() {
		field.applyDelete()
		return
	}
	field.applyCopy(source.selected())
}

// CrossOver recombines msg1 into msg2. Both messages must share a
// schema; msg1 is only read, msg2 is rewritten in place.
func (m *Mutator) CrossOver(msg1, msg2 proto.Message) {
	r1, r2 := msg1.ProtoReflect(), msg2.ProtoReflect()
	if r1.Descriptor() != r2.Descriptor() {
		panic(fmt.Sprintf("cross over of messages with different schemas: %v and %v",
			r1.Descriptor().FullName(), r2.Descriptor().FullName()))
	}
	m.crossOverImpl(r1, r2)
	m.Stats.CrossOvers.Add(1)

	if m.KeepInitialized && proto.CheckInitialized(msg2) != nil {
		m.initializeMessage(r2, maxInitializeDepth)
	}
}

func (m *Mutator) crossOverImpl(msg1, msg2 protoreflect.Message) {
	fields := msg2.Descriptor().Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if fd.IsMap() {
			continue
		}

		switch {
		case fd.IsList():
			list1 := msg1.Get(fd).List()
			list2 := msg2.Mutable(fd).List()
			for j := 0; j < list1.Len(); j++ {
				destination := newFieldAt(msg2, fd, list2.Len())
				destination.applyAppend(newConstFieldAt(msg1, fd, j))
			}

			// Shuffle.
			size := list2.Len()
			for j := 0; j < size; j++ {
				if k := m.r.randIndex(size - j); k != 0 {
					swapListElements(list2, j, j+k)
				}
			}

			keep := m.r.randIndex(size + 1)
			if kindOf(fd) == kindMessage {
				remove := size - keep
				// Cross some messages to keep with messages about to be
				// removed.
				cross := m.r.randIndex(min(keep, remove) + 1)
				for j := 0; j < cross; j++ {
					k := m.r.randIndex(keep)
					r := keep + m.r.randIndex(remove)
					m.crossOverImpl(list2.Get(r).Message(), list2.Get(k).Message())
				}
			}
			list2.Truncate(keep)

		case kindOf(fd) == kindMessage:
			if !msg1.Has(fd) {
				if m.r.bin() {
					newField(msg2, fd).applyDelete()
				}
			} else if !msg2.Has(fd) {
				if m.r.bin() {
					newField(msg2, fd).applyCopy(newConstField(msg1, fd))
				}
			} else {
				m.crossOverImpl(msg1.Get(fd).Message(), msg2.Mutable(fd).Message())
			}

		default:
			if m.r.bin() {
				if msg1.Has(fd) {
					newField(msg2, fd).applyCopy(newConstField(msg1, fd))
				} else {
					newField(msg2, fd).applyDelete()
				}
			}
		}
	}
}

// initializeMessage fills missing required fields with defaults,
// recursing into message children while maxDepth allows. The depth
// bound is a safety net against mutually-required message cycles;
// exhausting it leaves the message partially uninitialized.
func (m *Mutator) initializeMessage(msg protoreflect.Message, maxDepth int) {
	fields := msg.Descriptor().Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if fd.IsMap() {
			continue
		}
		if fd.Cardinality() == protoreflect.Required && !msg.Has(fd) {
			newField(msg, fd).applyCreateDefault()
		}

		if maxDepth > 0 && kindOf(fd) == kindMessage {
			if fd.IsList() {
				list := msg.Get(fd).List()
				for j := 0; j < list.Len(); j++ {
					child := list.Get(j).Message()
					if proto.CheckInitialized(child.Interface()) != nil {
						m.initializeMessage(child, maxDepth-1)
					}
				}
			} else if msg.Has(fd) {
				child := msg.Mutable(fd).Message()
				if proto.CheckInitialized(child.Interface()) != nil {
					m.initializeMessage(child, maxDepth-1)
				}
			}
		}
	}
}
