package dsl

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func Test_rollOne_shortestForm(t *testing.T) {
	require.Equal(t, []byte(nil), rollOne(0), "distance 0 is already on top: no-op")
	require.Equal(t, []byte{byte(OpSwap)}, rollOne(1))
	require.Equal(t, []byte{byte(OpRot)}, rollOne(2))

	got := rollOne(3)
	ops, err := Disassemble(got)
	require.NoError(t, err)
	require.Equal(t, []string{"PUSHINT 3", "ROLL"}, ops)
}

func Test_pickOne_shortestForm(t *testing.T) {
	require.Equal(t, []byte{byte(OpDup)}, pickOne(0))
	require.Equal(t, []byte{byte(OpOver)}, pickOne(1))

	got := pickOne(3)
	ops, err := Disassemble(got)
	require.NoError(t, err)
	require.Equal(t, []string{"PUSHINT 3", "PICK"}, ops)
}

func Test_Pick_multiWidth_repeatsPerSlot(t *testing.T) {
	got := Pick(2, 3)
	ops, err := Disassemble(got)
	require.NoError(t, err)
	// each of the 3 slots is picked at the same distance (2), so a generic
	// PICK is repeated 3 times.
	require.Equal(t, []string{
		"PUSHINT 2", "PICK",
		"PUSHINT 2", "PICK",
		"PUSHINT 2", "PICK",
	}, ops)
}

func Test_Roll_multiWidth_usesShortcutPerSlot(t *testing.T) {
	got := Roll(1, 3)
	ops, err := Disassemble(got)
	require.NoError(t, err)
	// distance 1, repeated once per slot -> SWAP, SWAP, SWAP
	require.Equal(t, []string{"SWAP", "SWAP", "SWAP"}, ops)
}

func Test_Roll_multiWidth_noopWhenAlreadyAtTop(t *testing.T) {
	require.Equal(t, []byte(nil), Roll(2, 3), "a width-3 block whose topmost slot is already the stack top needs no bytes")
}

func Test_Disassemble_roundTrip(t *testing.T) {
	var b Builder
	b.PushInt(-7)
	b.PushStr("hi")
	b.Emit(OpDup)
	b.Emit(OpToAltStack)

	ops, err := Disassemble(b.Bytes())
	require.NoError(t, err)
	want := []string{"PUSHINT -7", `PUSHSTR "hi"`, "DUP", "TOALTSTACK"}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("disassembly mismatch (-want +got):\n%s", diff)
	}
}

func Test_Disassemble_truncated(t *testing.T) {
	_, err := Disassemble([]byte{byte(OpPushInt)})
	require.Error(t, err)

	_, err = Disassemble([]byte{byte(OpPushStr), 5, 'h', 'i'})
	require.Error(t, err)
}
