package sim

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sophiecomputer/cycle-sim/internal/program"
	"github.com/sophiecomputer/cycle-sim/internal/trace"
)

func mustProgram(t *testing.T, stmts []program.Statement) *program.Program {
	t.Helper()
	p, err := program.NewProgram(stmts)
	require.NoError(t, err)
	return p
}

func TestSimulate_TwoStatementProgram(t *testing.T) {
	p := mustProgram(t, []program.Statement{
		{PC: 1, Text: "s1", Cycles: 3, NextPC: "2"},
		{PC: 2, Text: "s2", Cycles: 5},
	})

	res, err := Simulate(p, Config{Successor: FixedSuccessor(map[int]int{1: 2})})
	require.NoError(t, err)

	assert.Equal(t, OutcomeHalted, res.Outcome)
	assert.Equal(t, 2, res.Steps)
	assert.Equal(t, 8, res.TotalCycles)
	assert.Equal(t, 8, res.Trace.TotalCycles())

	require.Len(t, res.Trace.Events, 2)
	assert.Equal(t, trace.Event{PC: 1, Text: "s1", EnterCycles: 0, ExitCycles: 3}, res.Trace.Events[0])
	assert.Equal(t, trace.Event{PC: 2, Text: "s2", EnterCycles: 3, ExitCycles: 8}, res.Trace.Events[1])
}

func TestSimulate_SelfLoopHitsStepLimit(t *testing.T) {
	const c = 4
	p := mustProgram(t, []program.Statement{
		{PC: 1, Text: "spin", Cycles: c, NextPC: "1"},
	})

	res, err := Simulate(p, Config{
		Successor: FixedSuccessor(map[int]int{1: 1}),
		StepLimit: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeStepLimit, res.Outcome)
	require.Len(t, res.Trace.Events, 5)
	for k, ev := range res.Trace.Events {
		assert.Equal(t, 1, ev.PC)
		assert.Equal(t, k*c, ev.EnterCycles)
		assert.Equal(t, (k+1)*c, ev.ExitCycles)
	}
}

func TestSimulate_HaltExactlyAtLimitIsNormal(t *testing.T) {
	p := mustProgram(t, []program.Statement{
		{PC: 1, Text: "a", Cycles: 1, NextPC: "2"},
		{PC: 2, Text: "b", Cycles: 1},
	})

	res, err := Simulate(p, Config{
		Successor: FixedSuccessor(map[int]int{1: 2}),
		StepLimit: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeHalted, res.Outcome)
	assert.Equal(t, 2, res.Steps)
}

func TestSimulate_EventsAreContiguous(t *testing.T) {
	p := mustProgram(t, []program.Statement{
		{PC: 1, Text: "a", Cycles: 2, NextPC: "2"},
		{PC: 2, Text: "b", Cycles: 0, NextPC: "3"},
		{PC: 3, Text: "c", Cycles: 7, NextPC: "4"},
		{PC: 4, Text: "d", Cycles: 1},
	})

	res, err := Simulate(p, Config{
		Successor: FixedSuccessor(map[int]int{1: 2, 2: 3, 3: 4}),
	})
	require.NoError(t, err)
	require.NoError(t, res.Trace.Validate())

	for i := 1; i < len(res.Trace.Events); i++ {
		assert.Equal(t, res.Trace.Events[i-1].ExitCycles, res.Trace.Events[i].EnterCycles)
	}
	assert.Equal(t, 10, res.TotalCycles)
}

func TestSimulate_AcyclicVisitsEachStatementOnce(t *testing.T) {
	stmts := make([]program.Statement, 6)
	next := make(map[int]int)
	want := 0
	for i := range stmts {
		stmts[i] = program.Statement{PC: i + 1, Text: fmt.Sprintf("s%d", i+1), Cycles: i + 1}
		want += i + 1
		if i < len(stmts)-1 {
			next[i+1] = i + 2
		}
	}
	p := mustProgram(t, stmts)

	res, err := Simulate(p, Config{Successor: FixedSuccessor(next)})
	require.NoError(t, err)

	assert.Equal(t, OutcomeHalted, res.Outcome)
	assert.Equal(t, len(stmts), res.Steps)
	assert.Equal(t, want, res.TotalCycles)

	seen := map[int]int{}
	for _, ev := range res.Trace.Events {
		seen[ev.PC]++
	}
	for pc, n := range seen {
		assert.Equal(t, 1, n, "pc %d visited more than once", pc)
	}
}

func TestSimulate_DeterministicTraceBytes(t *testing.T) {
	p := mustProgram(t, []program.Statement{
		{PC: 1, Text: "a", Cycles: 3, NextPC: "2"},
		{PC: 2, Text: "b", Cycles: 5},
	})
	cfg := Config{Successor: FixedSuccessor(map[int]int{1: 2})}

	r1, err := Simulate(p, cfg)
	require.NoError(t, err)
	r2, err := Simulate(p, cfg)
	require.NoError(t, err)

	b1, err := r1.Trace.CanonicalJSON()
	require.NoError(t, err)
	b2, err := r2.Trace.CanonicalJSON()
	require.NoError(t, err)
	assert.Equal(t, b1, b2)

	h1, err := r1.Trace.Hash()
	require.NoError(t, err)
	h2, err := r2.Trace.Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestSimulate_SinkObservesEveryEvent(t *testing.T) {
	p := mustProgram(t, []program.Statement{
		{PC: 1, Text: "a", Cycles: 2, NextPC: "2"},
		{PC: 2, Text: "b", Cycles: 3},
	})

	rec := trace.NewRecorder()
	res, err := Simulate(p, Config{
		Successor: FixedSuccessor(map[int]int{1: 2}),
		Sink:      rec,
	})
	require.NoError(t, err)
	assert.Equal(t, res.Trace.Events, rec.Snapshot())
}

func TestSimulate_BrokenSuccessorReference(t *testing.T) {
	p := mustProgram(t, []program.Statement{{PC: 1, Text: "a", Cycles: 1}})

	_, err := Simulate(p, Config{Successor: FixedSuccessor(map[int]int{1: 99})})
	require.ErrorIs(t, err, ErrBrokenReference)
	assert.ErrorContains(t, err, "pc 99")
}

func TestSimulate_SuccessorErrorIsFatal(t *testing.T) {
	p := mustProgram(t, []program.Statement{{PC: 1, Text: "a", Cycles: 1}})

	failing := func(st program.Statement, state any) (int, any, bool, error) {
		return 0, state, false, fmt.Errorf("boom")
	}
	_, err := Simulate(p, Config{Successor: failing})
	require.ErrorIs(t, err, ErrBrokenReference)
}

func TestSimulate_RequiresSuccessor(t *testing.T) {
	p := mustProgram(t, []program.Statement{{PC: 1, Text: "a", Cycles: 1}})

	_, err := Simulate(p, Config{})
	require.Error(t, err)

	_, err = Simulate(nil, Config{Successor: FixedSuccessor(nil)})
	require.Error(t, err)
}

func TestSimulate_StateThreadsThroughSuccessor(t *testing.T) {
	p := mustProgram(t, []program.Statement{{PC: 1, Text: "a", Cycles: 1, NextPC: "1"}})

	counting := func(st program.Statement, state any) (int, any, bool, error) {
		n := state.(int) + 1
		return st.PC, n, n >= 3, nil
	}
	res, err := Simulate(p, Config{Successor: counting, State: 0})
	require.NoError(t, err)

	assert.Equal(t, OutcomeHalted, res.Outcome)
	assert.Equal(t, 3, res.Steps)
	assert.Equal(t, 3, res.FinalState)
}
