// Copyright 2025 libprotobuf-mutator authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package mutator

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// Scalar mutation kernels. Numeric kernels flip one uniformly random
// bit of the value's in-memory representation, which keeps most
// mutations local while still reaching any value in a handful of hops.

func (m *Mutator) MutateInt32(value int32) int32 {
	return int32(m.r.flipBit64(uint64(uint32(value)), 32))
}

func (m *Mutator) MutateInt64(value int64) int64 {
	return int64(m.r.flipBit64(uint64(value), 64))
}

func (m *Mutator) MutateUint32(value uint32) uint32 {
	return uint32(m.r.flipBit64(uint64(value), 32))
}

func (m *Mutator) MutateUint64(value uint64) uint64 {
	return m.r.flipBit64(value, 64)
}

func (m *Mutator) MutateFloat32(value float32) float32 {
	return math.Float32frombits(uint32(m.r.flipBit64(uint64(math.Float32bits(value)), 32)))
}

func (m *Mutator) MutateFloat64(value float64) float64 {
	return math.Float64frombits(m.r.flipBit64(math.Float64bits(value), 64))
}

func (m *Mutator) MutateBool(value bool) bool {
	return !value
}

// MutateEnum returns a uniformly chosen value index different from
// index. count must be at least 2; single-valued enums are a schema
// contract violation and must be filtered by the caller.
func (m *Mutator) MutateEnum(index, count int) int {
	return (index + 1 + m.r.randIndex(count-1)) % count
}

func (m *Mutator) MutateString(value string, sizeIncreaseHint int) string {
	return string(m.MutateBytes([]byte(value), sizeIncreaseHint))
}

// MutateBytes shrinks the buffer with a run of coin-flipped deletions,
// grows it toward sizeIncreaseHint with coin-flipped insertions of
// random bytes, and finally flips one random bit.
func (m *Mutator) MutateBytes(value []byte, sizeIncreaseHint int) []byte {
	result := append([]byte(nil), value...)

	for len(result) > 0 && m.r.bin() {
		i := m.r.randIndex(len(result))
		result = append(result[:i], result[i+1:]...)
	}

	for len(result) < sizeIncreaseHint && m.r.bin() {
		i := m.r.randIndex(len(result) + 1)
		result = append(result, 0)
		copy(result[i+1:], result[i:])
		result[i] = byte(m.r.randIndex(1 << 8))
	}

	if len(result) > 0 {
		m.r.flipBit(result)
	}
	return result
}

// fieldMutator routes a field's value to the scalar kernel matching its
// kind.
type fieldMutator struct {
	m    *Mutator
	hint int
}

func (fm fieldMutator) mutate(fd protoreflect.FieldDescriptor, v protoreflect.Value) protoreflect.Value {
	switch kindOf(fd) {
	case kindInt32:
		return protoreflect.ValueOfInt32(fm.m.MutateInt32(int32(v.Int())))
	case kindInt64:
		return protoreflect.ValueOfInt64(fm.m.MutateInt64(v.Int()))
	case kindUint32:
		return protoreflect.ValueOfUint32(fm.m.MutateUint32(uint32(v.Uint())))
	case kindUint64:
		return protoreflect.ValueOfUint64(fm.m.MutateUint64(v.Uint()))
	case kindFloat32:
		return protoreflect.ValueOfFloat32(fm.m.MutateFloat32(float32(v.Float())))
	case kindFloat64:
		return protoreflect.ValueOfFloat64(fm.m.MutateFloat64(v.Float()))
	case kindBool:
		return protoreflect.ValueOfBool(fm.m.MutateBool(v.Bool()))
	case kindEnum:
		values := fd.Enum().Values()
		index := 0
		if ev := values.ByNumber(v.Enum()); ev != nil {
			index = ev.Index()
		}
		index = fm.m.MutateEnum(index, values.Len())
		return protoreflect.ValueOfEnum(values.Get(index).Number())
	case kindString:
		return protoreflect.ValueOfString(fm.m.MutateString(v.String(), fm.hint))
	case kindBytes:
		return protoreflect.ValueOfBytes(fm.m.MutateBytes(v.Bytes(), fm.hint))
	case kindMessage:
		// Message contents are mutated by recursion in the sampler.
		return v
	default:
		panic(fmt.Sprintf("unhandled kind %v", kindOf(fd)))
	}
}
