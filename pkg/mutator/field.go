// Copyright 2025 libprotobuf-mutator authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package mutator

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// kind is the closed set of value categories a field can have. It folds
// the protobuf wire variants (sint32, sfixed32, ...) into their common
// in-memory representation.
type kind uint8

const (
	kindInt32 kind = iota
	kindInt64
	kindUint32
	kindUint64
	kindFloat32
	kindFloat64
	kindBool
	kindEnum
	kindString
	kindBytes
	kindMessage
)

func kindOf(fd protoreflect.FieldDescriptor) kind {
	switch fd.Kind() {
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return kindInt32
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return kindInt64
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return kindUint32
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return kindUint64
	case protoreflect.FloatKind:
		return kindFloat32
	case protoreflect.DoubleKind:
		return kindFloat64
	case protoreflect.BoolKind:
		return kindBool
	case protoreflect.EnumKind:
		return kindEnum
	case protoreflect.StringKind:
		return kindString
	case protoreflect.BytesKind:
		return kindBytes
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return kindMessage
	default:
		panic(fmt.Sprintf("unhandled field kind %v", fd.Kind()))
	}
}

// constFieldInstance addresses one field slot of a message: the owning
// node, the field descriptor, and for repeated fields an element index
// (index is -1 on singular fields).
type constFieldInstance struct {
	msg   protoreflect.Message
	fd    protoreflect.FieldDescriptor
	index int
}

// fieldInstance is the mutable flavor of constFieldInstance.
type fieldInstance struct {
	constFieldInstance
}

func newField(msg protoreflect.Message, fd protoreflect.FieldDescriptor) fieldInstance {
	return fieldInstance{constFieldInstance{msg: msg, fd: fd, index: -1}}
}

func newFieldAt(msg protoreflect.Message, fd protoreflect.FieldDescriptor, index int) fieldInstance {
	return fieldInstance{constFieldInstance{msg: msg, fd: fd, index: index}}
}

func newConstField(msg protoreflect.Message, fd protoreflect.FieldDescriptor) constFieldInstance {
	return constFieldInstance{msg: msg, fd: fd, index: -1}
}

func newConstFieldAt(msg protoreflect.Message, fd protoreflect.FieldDescriptor, index int) constFieldInstance {
	return constFieldInstance{msg: msg, fd: fd, index: index}
}

func (f constFieldInstance) kind() kind {
	return kindOf(f.fd)
}

// load returns the current value of the slot.
func (f constFieldInstance) load() protoreflect.Value {
	if f.fd.IsList() {
		return f.msg.Get(f.fd).List().Get(f.index)
	}
	return f.msg.Get(f.fd)
}

// loadCopy returns the current value of the slot, deep-copying message
// and bytes values so the result can be stored into another slot
// without sharing ownership.
func (f constFieldInstance) loadCopy() protoreflect.Value {
	v := f.load()
	switch f.kind() {
	case kindMessage:
		return protoreflect.ValueOfMessage(proto.Clone(v.Message().Interface()).ProtoReflect())
	case kindBytes:
		return protoreflect.ValueOfBytes(append([]byte(nil), v.Bytes()...))
	default:
		return v
	}
}

// defaultValue returns the schema-declared default for the slot: the
// field default for singular scalars and enums, a fresh empty node for
// messages. Repeated elements go through NewElement because Default is
// undefined on repeated field descriptors.
func (f constFieldInstance) defaultValue() protoreflect.Value {
	if f.fd.IsList() {
		return f.msg.NewField(f.fd).List().NewElement()
	}
	if f.kind() == kindMessage {
		return f.msg.NewField(f.fd)
	}
	return f.fd.Default()
}

// store replaces the value of an existing slot.
func (f fieldInstance) store(v protoreflect.Value) {
	if f.fd.IsList() {
		f.msg.Mutable(f.fd).List().Set(f.index, v)
		return
	}
	f.msg.Set(f.fd, v)
}

// create fills the slot with v: for repeated fields the element is
// inserted at f.index (tail rotated right to keep indices dense), for
// singular fields the value is set. Setting a oneof member clears any
// sibling that was active.
func (f fieldInstance) create(v protoreflect.Value) {
	if !f.fd.IsList() {
		f.msg.Set(f.fd, v)
		return
	}
	list := f.msg.Mutable(f.fd).List()
	list.Append(v)
	for i := list.Len() - 1; i > f.index; i-- {
		swapListElements(list, i, i-1)
	}
}

// applyDelete clears a singular slot or erases the indexed element of a
// repeated field, shifting the tail left.
func (f fieldInstance) applyDelete() {
	if !f.fd.IsList() {
		f.msg.Clear(f.fd)
		return
	}
	list := f.msg.Mutable(f.fd).List()
	for i := f.index; i+1 < list.Len(); i++ {
		list.Set(i, list.Get(i+1))
	}
	list.Truncate(list.Len() - 1)
}

func (f fieldInstance) applyCreateDefault() {
	f.create(f.defaultValue())
}

// applyCopy stores the value of source into this slot. source must have
// the same kind (and for enums and messages, the same concrete type).
func (f fieldInstance) applyCopy(source constFieldInstance) {
	if source.kind() != f.kind() {
		panic(fmt.Sprintf("copy between kinds %v and %v", source.kind(), f.kind()))
	}
	f.store(source.loadCopy())
}

// applyAppend extends a repeated slot (or sets a singular one) with the
// value of source.
func (f fieldInstance) applyAppend(source constFieldInstance) {
	if source.kind() != f.kind() {
		panic(fmt.Sprintf("append between kinds %v and %v", source.kind(), f.kind()))
	}
	f.create(source.loadCopy())
}

// applyCreateRandom fills the slot with a mutated copy of the default
// value.
func (f fieldInstance) applyCreateRandom(fm fieldMutator) {
	f.create(fm.mutate(f.fd, f.defaultValue()))
}

// applyMutate loads the slot, runs the scalar kernel for its kind, and
// stores the result. Message slots are left alone: their contents are
// mutated through recursion in the sampler, not at the slot level.
func (f fieldInstance) applyMutate(fm fieldMutator) {
	if f.kind() == kindMessage {
		return
	}
	f.store(fm.mutate(f.fd, f.load()))
}

func swapListElements(list protoreflect.List, i, j int) {
	vi, vj := list.Get(i), list.Get(j)
	list.Set(i, vj)
	list.Set(j, vi)
}
