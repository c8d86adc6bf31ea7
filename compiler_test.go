package dsl

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func Test_Compile_singleAdd(t *testing.T) {
	d := newArithDSL()
	a, err := d.AllocInput("num", NewNum(2), "a")
	require.NoError(t, err)
	b, err := d.AllocInput("num", NewNum(3), "b")
	require.NoError(t, err)
	out, err := d.Execute("add", a, b)
	require.NoError(t, err)
	require.NoError(t, d.SetOutputs(out[0]))

	prog, err := d.Compile()
	require.NoError(t, err)
	require.Len(t, prog.Input, 2)

	ops, err := Disassemble(prog.Script)
	require.NoError(t, err)
	require.Contains(t, ops, "ADD")
	require.Contains(t, ops, "TOALTSTACK")
	require.Contains(t, ops, "FROMALTSTACK")
}

func Test_Compile_isDeterministic(t *testing.T) {
	build := func() *DSL {
		d := newArithDSL()
		a, _ := d.AllocInput("num", NewNum(2), "a")
		b, _ := d.AllocInput("num", NewNum(3), "b")
		out, _ := d.Execute("add", a, b)
		_ = d.SetOutputs(out[0])
		return d
	}

	p1, err := build().Compile()
	require.NoError(t, err)
	p2, err := build().Compile()
	require.NoError(t, err)

	if diff := cmp.Diff(p1, p2, cmp.AllowUnexported(Element{})); diff != "" {
		t.Errorf("two compiles of the same trace produced different programs (-first +second):\n%s", diff)
	}
}

func Test_Compile_reusedOperandIsPickedNotRolled(t *testing.T) {
	// a is used by two calls: add(a,b) then add(a,c). The first use of a
	// must be a PICK (a is read again later); the second is the last read,
	// so it may be a ROLL.
	d := newArithDSL()
	a, err := d.AllocInput("num", NewNum(1), "a")
	require.NoError(t, err)
	b, err := d.AllocInput("num", NewNum(2), "b")
	require.NoError(t, err)
	c, err := d.AllocInput("num", NewNum(3), "c")
	require.NoError(t, err)

	out1, err := d.Execute("add", a, b)
	require.NoError(t, err)
	out2, err := d.Execute("add", a, c)
	require.NoError(t, err)
	require.NoError(t, d.SetOutputs(out1[0], out2[0]))

	prog, err := d.Compile()
	require.NoError(t, err)

	ops, err := Disassemble(prog.Script)
	require.NoError(t, err)
	require.Contains(t, ops, "PICK", "first use of a (read again later) must be a non-destructive copy")
	require.Contains(t, ops, "ROT", "subsequent destructive reads of a/b roll rather than pick")
	// Both outputs are fully drained and nothing else is left live: the
	// first PICK leaves a's stack entry in place, so a's second use finds it
	// (farther from the top) and rolls it, and no leftover needs dropping.
	require.NotContains(t, ops, "DROP")
}

func Test_Compile_referenceInput_neverMaterialized(t *testing.T) {
	// v is declared an input, so its concrete value (7, 8, 9) is supplied
	// by the caller via CompiledProgram.Input and is never pushed as a
	// literal by the script itself; a `&`-reference input is addressed by
	// stack position only, so "first"'s own script generator (a DUP at
	// distance 0) is the only stack-manipulation opcode the call needs.
	d := newArithDSL()
	v, err := d.AllocInput("num_vec", NewManyNum([]int{7, 8, 9}), "v")
	require.NoError(t, err)

	out, err := d.Execute("first", v)
	require.NoError(t, err)
	require.NoError(t, d.SetOutputs(out[0]))

	prog, err := d.Compile()
	require.NoError(t, err)
	require.Equal(t, []MemoryEntry{{DataType: "num_vec", Data: NewManyNum([]int{7, 8, 9}), Description: "v"}}, prog.Input)

	ops, err := Disassemble(prog.Script)
	require.NoError(t, err)
	// PUSHINT also encodes the <pos> immediate of drainage's ROLL, so only
	// pushes of v's own element values are ruled out here.
	for _, lit := range []string{"PUSHINT 7", "PUSHINT 8", "PUSHINT 9"} {
		require.NotContains(t, ops, lit, "a reference input must never be materialized by value")
	}
	require.Contains(t, ops, "DUP")
}

func Test_Compile_optionsCall_sameOutputArityBookkeepingAsPlainCall(t *testing.T) {
	// Regression test for the options-path allocated_idx bug: a call made
	// via ExecuteWithOptions must advance the lowerer's memory bookkeeping
	// by exactly as many slots as it declares outputs, identically to a
	// plain Execute call, because both go through the single emitCall path.
	d := newArithDSL()
	a, err := d.AllocInput("num", NewNum(4), "a")
	require.NoError(t, err)
	scaled, err := d.ExecuteWithOptions("scale", []int{a}, NewCallOptions(WithCallOption("factor", 2)))
	require.NoError(t, err)
	out, err := d.Execute("add", scaled[0], a)
	require.NoError(t, err)
	require.NoError(t, d.SetOutputs(out[0]))

	prog, err := d.Compile()
	require.NoError(t, err)
	ops, err := Disassemble(prog.Script)
	require.NoError(t, err)
	require.Contains(t, ops, "ADD")
}

func Test_Compile_multipleOutputs_eachDrainedToAltStack(t *testing.T) {
	d := newArithDSL()
	a, err := d.AllocInput("num", NewNum(1), "a")
	require.NoError(t, err)
	b, err := d.AllocInput("num", NewNum(2), "b")
	require.NoError(t, err)
	require.NoError(t, d.SetOutputs(a, b))

	prog, err := d.Compile()
	require.NoError(t, err)
	ops, err := Disassemble(prog.Script)
	require.NoError(t, err)

	altIn := 0
	for _, op := range ops {
		if op == "TOALTSTACK" {
			altIn++
		}
	}
	require.Equal(t, 2, altIn)
}

func Test_Compile_vectorOutput_drainsAllSlots(t *testing.T) {
	// Regression test for the FROMALTSTACK undercount bug: a single
	// width-3 declared output must push 3 slots to the alt stack and
	// recover all 3, not just 1 (one per *output*, rather than one per
	// drained *slot*, would silently strand the other two).
	d := newArithDSL()
	v, err := d.AllocInput("num_vec", NewManyNum([]int{7, 8, 9}), "v")
	require.NoError(t, err)
	require.NoError(t, d.SetOutputs(v))

	prog, err := d.Compile()
	require.NoError(t, err)
	ops, err := Disassemble(prog.Script)
	require.NoError(t, err)

	var toAlt, fromAlt int
	for _, op := range ops {
		switch op {
		case "TOALTSTACK":
			toAlt++
		case "FROMALTSTACK":
			fromAlt++
		}
	}
	require.Equal(t, 3, toAlt)
	require.Equal(t, 3, fromAlt)
}

func Test_Compile_cleansUpUnusedOperands(t *testing.T) {
	d := newArithDSL()
	a, err := d.AllocInput("num", NewNum(1), "a")
	require.NoError(t, err)
	b, err := d.AllocInput("num", NewNum(2), "b")
	require.NoError(t, err)
	require.NoError(t, d.SetOutputs(a))

	prog, err := d.Compile()
	require.NoError(t, err)
	ops, err := Disassemble(prog.Script)
	require.NoError(t, err)
	require.Contains(t, ops, "DROP")
	_ = b
}
