// Copyright 2025 libprotobuf-mutator authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package mutator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/jyh0082007/libprotobuf-mutator/pkg/testmsg"
)

// pairWithOneSet returns a Pair message with field a set: the tree the
// weight table is easiest to reason about. Its offer set is Mutate,
// Delete and Copy on a, plus Add on b.
func pairWithOneSet(t *testing.T) *dynamicpb.Message {
	t.Helper()
	msg := testmsg.NewPair()
	msg.Set(testmsg.Field(msg, "a"), protoreflect.ValueOfInt32(1))
	return msg
}

// opRates runs iters mutations on fresh clones of base and returns the
// empirical rate of every operation.
func opRates(t *testing.T, m *Mutator, base *dynamicpb.Message, hint, iters int) map[Mutation]float64 {
	t.Helper()
	indicators := make(map[Mutation][]float64)
	for _, op := range []Mutation{MutationAdd, MutationMutate, MutationDelete, MutationCopy} {
		indicators[op] = make([]float64, iters)
	}
	for i := 0; i < iters; i++ {
		op := m.Mutate(cloneDyn(t, base), hint)
		require.NotEqual(t, MutationNone, op)
		indicators[op][i] = 1
	}
	rates := make(map[Mutation]float64)
	for op, ind := range indicators {
		rates[op] = stat.Mean(ind, nil)
	}
	return rates
}

func TestMutationShareMatchesWeights(t *testing.T) {
	// One set scalar, one unset scalar, hint above the deletion
	// threshold: expected Mutate share is
	// mutateWeight / (mutateWeight + addWeight + deleteWeight + copyWeight)
	// = 1e6 / 2.2e6.
	base := pairWithOneSet(t)
	m := New(101)
	rates := opRates(t, m, base, 1000, 20000)

	assert.InDelta(t, 1.0/2.2, rates[MutationMutate], 0.02)
	assert.InDelta(t, 1.0/2.2, rates[MutationCopy], 0.02)
	assert.InDelta(t, 0.1/2.2, rates[MutationAdd], 0.01)
	assert.InDelta(t, 0.1/2.2, rates[MutationDelete], 0.01)
}

func TestSizeGovernorShiftsAddTowardDelete(t *testing.T) {
	base := pairWithOneSet(t)
	m := New(102)
	const iters = 20000

	// Add rate declines monotonically as the hint drops through the
	// deletion threshold, and vanishes at zero budget.
	addHints := []int{128, 64, 16, 0}
	addRates := make([]float64, len(addHints))
	for i, hint := range addHints {
		addRates[i] = opRates(t, m, base, hint, iters)[MutationAdd]
	}
	for i := 1; i < len(addRates); i++ {
		assert.LessOrEqual(t, addRates[i], addRates[i-1]+0.005,
			"add rate rose from hint %d to %d", addHints[i-1], addHints[i])
	}
	assert.Greater(t, addRates[0], addRates[len(addRates)-1]+0.02)
	assert.Zero(t, addRates[len(addRates)-1])

	// Delete rate rises within the governed region. The governor halves
	// the delete weight just below the threshold, so the comparison
	// starts at 127 rather than 128.
	delHints := []int{127, 64, 16, 0}
	delRates := make([]float64, len(delHints))
	for i, hint := range delHints {
		delRates[i] = opRates(t, m, base, hint, iters)[MutationDelete]
	}
	for i := 1; i < len(delRates); i++ {
		assert.GreaterOrEqual(t, delRates[i], delRates[i-1]-0.005,
			"delete rate fell from hint %d to %d", delHints[i-1], delHints[i])
	}
	assert.Greater(t, delRates[len(delRates)-1], delRates[0]+0.01)
}
