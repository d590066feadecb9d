// Copyright 2025 libprotobuf-mutator authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package mutator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/jyh0082007/libprotobuf-mutator/pkg/testmsg"
)

func TestCrossOverMergesRepeated(t *testing.T) {
	for seed := uint32(0); seed < 50; seed++ {
		a := testmsg.NewMsg()
		xsA := a.Mutable(testmsg.Field(a, "xs")).List()
		for _, v := range []int32{1, 2, 3} {
			xsA.Append(protoreflect.ValueOfInt32(v))
		}
		aBefore := cloneDyn(t, a)

		b := testmsg.NewMsg()
		xsB := b.Mutable(testmsg.Field(b, "xs")).List()
		for _, v := range []int32{7, 8} {
			xsB.Append(protoreflect.ValueOfInt32(v))
		}

		m := New(seed)
		m.CrossOver(a, b)

		// The read side is never modified.
		require.True(t, proto.Equal(aBefore, a))

		got := listInt32s(b, testmsg.Field(b, "xs"))
		require.LessOrEqual(t, len(got), 5)
		// Elements of both parents are distinct here, so the result
		// must draw each survivor from the combined multiset.
		budget := map[int32]int{1: 1, 2: 1, 3: 1, 7: 1, 8: 1}
		for _, v := range got {
			budget[v]--
			require.GreaterOrEqual(t, budget[v], 0, "unexpected element %d", v)
		}
	}
}

func TestCrossOverRepeatedMessages(t *testing.T) {
	for seed := uint32(0); seed < 50; seed++ {
		a := testmsg.NewMsg()
		nodesA := a.Mutable(testmsg.Field(a, "nodes")).List()
		for _, leaf := range []int32{10, 20} {
			n := testmsg.NewNode()
			n.Set(testmsg.Field(n, "leaf"), protoreflect.ValueOfInt32(leaf))
			nodesA.Append(protoreflect.ValueOfMessage(n))
		}

		b := testmsg.NewMsg()
		nodesB := b.Mutable(testmsg.Field(b, "nodes")).List()
		n := testmsg.NewNode()
		n.Set(testmsg.Field(n, "leaf"), protoreflect.ValueOfInt32(30))
		nodesB.Append(protoreflect.ValueOfMessage(n))

		m := New(seed)
		m.CrossOver(a, b)

		list := b.Get(testmsg.Field(b, "nodes")).List()
		require.LessOrEqual(t, list.Len(), 3)
		for i := 0; i < list.Len(); i++ {
			// Survivors stay valid Node messages whatever recombination
			// they absorbed.
			_, err := proto.Marshal(list.Get(i).Message().Interface())
			require.NoError(t, err)
		}
	}
}

func TestCrossOverSingularScalar(t *testing.T) {
	fdName := "i32"
	copied, kept := 0, 0
	m := New(11)
	for run := 0; run < 200; run++ {
		a := testmsg.NewMsg()
		a.Set(testmsg.Field(a, fdName), protoreflect.ValueOfInt32(5))
		b := testmsg.NewMsg()

		m.CrossOver(a, b)
		fd := testmsg.Field(b, fdName)
		if b.Has(fd) {
			require.Equal(t, int64(5), b.Get(fd).Int())
			copied++
		} else {
			kept++
		}
	}
	// Each outcome has probability 1/2 per run.
	assert.Greater(t, copied, 0)
	assert.Greater(t, kept, 0)
}

func TestCrossOverSingularScalarDeletes(t *testing.T) {
	deleted, kept := 0, 0
	m := New(12)
	for run := 0; run < 200; run++ {
		a := testmsg.NewMsg()
		b := testmsg.NewMsg()
		b.Set(testmsg.Field(b, "i32"), protoreflect.ValueOfInt32(9))

		m.CrossOver(a, b)
		if b.Has(testmsg.Field(b, "i32")) {
			kept++
		} else {
			deleted++
		}
	}
	assert.Greater(t, deleted, 0)
	assert.Greater(t, kept, 0)
}

func TestCrossOverSingularMessageCopyIsDeep(t *testing.T) {
	m := New(13)
	for run := 0; run < 100; run++ {
		a := testmsg.NewMsg()
		node := testmsg.NewNode()
		leafFd := testmsg.Field(node, "leaf")
		node.Set(leafFd, protoreflect.ValueOfInt32(9))
		a.Set(testmsg.Field(a, "node"), protoreflect.ValueOfMessage(node))
		b := testmsg.NewMsg()

		m.CrossOver(a, b)
		nodeFd := testmsg.Field(b, "node")
		if !b.Has(nodeFd) {
			continue
		}
		b.Mutable(nodeFd).Message().Set(leafFd, protoreflect.ValueOfInt32(1000))
		require.Equal(t, int64(9), a.Get(testmsg.Field(a, "node")).Message().Get(leafFd).Int())
	}
}

func TestCrossOverBothPresentMessagesRecurse(t *testing.T) {
	for seed := uint32(20); seed < 60; seed++ {
		a := testmsg.NewMsg()
		nodeA := testmsg.NewNode()
		leafFd := testmsg.Field(nodeA, "leaf")
		nodeA.Set(leafFd, protoreflect.ValueOfInt32(1))
		a.Set(testmsg.Field(a, "node"), protoreflect.ValueOfMessage(nodeA))

		b := testmsg.NewMsg()
		nodeB := testmsg.NewNode()
		nodeB.Set(leafFd, protoreflect.ValueOfInt32(2))
		b.Set(testmsg.Field(b, "node"), protoreflect.ValueOfMessage(nodeB))

		m := New(seed)
		m.CrossOver(a, b)

		// Recursion keeps the child present and its leaf comes from one
		// of the two parents.
		nodeFd := testmsg.Field(b, "node")
		require.True(t, b.Has(nodeFd))
		leaf := b.Get(nodeFd).Message().Get(leafFd).Int()
		require.Contains(t, []int64{1, 2}, leaf)
	}
}

func TestCrossOverKeepInitialized(t *testing.T) {
	for seed := uint32(0); seed < 100; seed++ {
		a := testmsg.NewReq()
		a.Set(testmsg.Field(a, "id"), protoreflect.ValueOfInt32(1))
		b := testmsg.NewReq()
		b.Set(testmsg.Field(b, "id"), protoreflect.ValueOfInt32(2))

		m := New(seed)
		m.KeepInitialized = true
		m.CrossOver(a, b)
		require.NoError(t, proto.CheckInitialized(b), "seed %d", seed)
	}
}

func TestCrossOverDeterministic(t *testing.T) {
	base1 := populatedMsg(t)
	base2 := testmsg.NewMsg()
	base2.Set(testmsg.Field(base2, "i32"), protoreflect.ValueOfInt32(-3))
	xs := base2.Mutable(testmsg.Field(base2, "xs")).List()
	xs.Append(protoreflect.ValueOfInt32(9))

	m1, m2 := New(21), New(21)
	b1, b2 := cloneDyn(t, base2), cloneDyn(t, base2)
	for i := 0; i < 20; i++ {
		m1.CrossOver(base1, b1)
		m2.CrossOver(base1, b2)
		require.True(t, proto.Equal(b1, b2), "diverged at step %d", i)
	}
}

func TestCrossOverSchemaMismatchPanics(t *testing.T) {
	m := New(22)
	require.Panics(t, func() {
		m.CrossOver(testmsg.NewMsg(), testmsg.NewPair())
	})
}

func TestCrossOverCountsStats(t *testing.T) {
	m := New(23)
	a, b := testmsg.NewMsg(), testmsg.NewMsg()
	for i := 0; i < 5; i++ {
		m.CrossOver(a, b)
	}
	assert.Equal(t, uint64(5), m.Stats.CrossOvers.Load())
}
