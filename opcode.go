package dsl

import (
	"encoding/binary"
	"fmt"
)

// Op is one opcode tag byte in an emitted program.
type Op byte

// Builtin opcodes. PushInt and PushStr carry an immediate operand following
// the tag byte; the rest are bare.
const (
	OpPushInt Op = iota
	OpPushStr
	OpDup
	OpOver
	OpSwap
	OpRot
	OpPick
	OpRoll
	OpDrop
	Op2Drop
	OpDepth
	Op1Sub
	OpToAltStack
	OpFromAltStack

	firstCustomOp Op = 128
)

var builtinOpNames = map[Op]string{
	OpPushInt:      "PUSHINT",
	OpPushStr:      "PUSHSTR",
	OpDup:          "DUP",
	OpOver:         "OVER",
	OpSwap:         "SWAP",
	OpRot:          "ROT",
	OpPick:         "PICK",
	OpRoll:         "ROLL",
	OpDrop:         "DROP",
	Op2Drop:        "2DROP",
	OpDepth:        "DEPTH",
	Op1Sub:         "1SUB",
	OpToAltStack:   "TOALTSTACK",
	OpFromAltStack: "FROMALTSTACK",
}

var (
	customOpNames = map[Op]string{}
	nextCustomOp  = firstCustomOp
)

// NewOp registers a user-defined opcode (e.g. "ADD") under the next free
// custom opcode tag, for use by script generators that need domain-specific
// VM operations beyond the builtin stack-manipulation set.
func NewOp(mnemonic string) Op {
	op := nextCustomOp
	nextCustomOp++
	customOpNames[op] = mnemonic
	return op
}

func (op Op) String() string {
	if name, ok := builtinOpNames[op]; ok {
		return name
	}
	if name, ok := customOpNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP(%d)", byte(op))
}

// Builder accumulates a byte program one opcode/operand at a time.
type Builder struct {
	buf []byte
}

// Bytes returns the accumulated program.
func (b *Builder) Bytes() []byte { return b.buf }

// Emit appends a single bare opcode tag.
func (b *Builder) Emit(op Op) { b.buf = append(b.buf, byte(op)) }

// Append appends raw already-encoded bytes (e.g. from a user script
// generator) verbatim.
func (b *Builder) Append(p []byte) { b.buf = append(b.buf, p...) }

// PushInt encodes a signed integer literal push.
func (b *Builder) PushInt(v int) {
	b.Emit(OpPushInt)
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], int64(v))
	b.buf = append(b.buf, tmp[:n]...)
}

// PushStr encodes a string literal push.
func (b *Builder) PushStr(s string) {
	b.Emit(OpPushStr)
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(s)))
	b.buf = append(b.buf, tmp[:n]...)
	b.buf = append(b.buf, s...)
}

// PushElement encodes a literal push of el's concrete value(s).
func (b *Builder) PushElement(el Element) {
	switch el.Type().Kind() {
	case KindNum:
		v, _ := el.Num()
		b.PushInt(v)
	case KindManyNum:
		vs, _ := el.ManyNum()
		for _, v := range vs {
			b.PushInt(v)
		}
	case KindStr:
		s, _ := el.Str()
		b.PushStr(s)
	case KindManyStr:
		ss, _ := el.ManyStr()
		for _, s := range ss {
			b.PushStr(s)
		}
	}
}

// Drop emits n DROPs, pairing them up as 2DROP where possible.
func (b *Builder) Drop(n int) {
	for ; n >= 2; n -= 2 {
		b.Emit(Op2Drop)
	}
	for ; n > 0; n-- {
		b.Emit(OpDrop)
	}
}

// ToAltStack emits n TOALTSTACKs.
func (b *Builder) ToAltStack(n int) {
	for i := 0; i < n; i++ {
		b.Emit(OpToAltStack)
	}
}

// FromAltStack emits n FROMALTSTACKs.
func (b *Builder) FromAltStack(n int) {
	for i := 0; i < n; i++ {
		b.Emit(OpFromAltStack)
	}
}

// Pick appends bytes that non-destructively copy the width-slot value
// distance machine slots below the top onto the top, preferring the
// shortest opcode form at each width-1 step.
func (b *Builder) Pick(distance, width int) { b.Append(Pick(distance, width)) }

// Roll appends bytes that destructively move the width-slot value distance
// machine slots below the top onto the top, preferring the shortest opcode
// form at each width-1 step.
func (b *Builder) Roll(distance, width int) { b.Append(Roll(distance, width)) }

// HintRoll appends bytes that roll the value currently at the very bottom
// of the stack (computed at runtime via DEPTH/1SUB, since the compiler does
// not statically know how deep the stack will be at this point) to the top,
// one slot at a time. It is used to pull an AllocHint value, which the
// static stack model never tracked as occupying a known position.
func (b *Builder) HintRoll(n int) {
	for i := 0; i < n; i++ {
		b.Emit(OpDepth)
		b.Emit(Op1Sub)
		b.Emit(OpRoll)
	}
}

// pickOne appends the opcodes that copy the single slot distance machine
// slots below the top onto the top, using DUP/OVER shortcuts for the two
// shallowest distances and a generic <distance> PICK otherwise.
func pickOne(distance int) []byte {
	var b Builder
	switch distance {
	case 0:
		b.Emit(OpDup)
	case 1:
		b.Emit(OpOver)
	default:
		b.PushInt(distance)
		b.Emit(OpPick)
	}
	return b.buf
}

// rollOne appends the opcodes that move the single slot distance machine
// slots below the top onto the top, using SWAP/ROT shortcuts for the two
// shallowest distances, a no-op for distance 0, and a generic <distance>
// ROLL otherwise.
func rollOne(distance int) []byte {
	var b Builder
	switch distance {
	case 0:
		// already on top; nothing to do
	case 1:
		b.Emit(OpSwap)
	case 2:
		b.Emit(OpRot)
	default:
		b.PushInt(distance)
		b.Emit(OpRoll)
	}
	return b.buf
}

// Pick returns the opcode sequence that non-destructively copies a
// width-slot value, whose topmost slot is distance machine slots below the
// top, onto the top of the stack. The same distance is reused for all width
// slots: after one slot is duplicated to the top, the originally-adjacent
// slot is back at the same distance from the (new) top, so repeating the
// single-slot op width times walks the whole block up intact.
func Pick(distance, width int) []byte {
	var b Builder
	switch distance {
	case 0:
		for i := 0; i < width; i++ {
			b.Emit(OpDup)
		}
	case 1:
		for i := 0; i < width; i++ {
			b.Emit(OpOver)
		}
	default:
		for i := 0; i < width; i++ {
			b.PushInt(distance)
			b.Emit(OpPick)
		}
	}
	return b.buf
}

// Roll returns the opcode sequence that destructively moves a width-slot
// value, whose topmost slot is distance machine slots below the top, onto
// the top of the stack. distance == width-1 means the block is already at
// the top (nothing above it but its own slots), so no bytes are emitted; see
// Pick for why the same distance is otherwise reused across all width
// slots.
func Roll(distance, width int) []byte {
	var b Builder
	switch {
	case distance == width-1:
		// already at the top
	case distance == 1:
		for i := 0; i < width; i++ {
			b.Emit(OpSwap)
		}
	case distance == 2:
		for i := 0; i < width; i++ {
			b.Emit(OpRot)
		}
	default:
		for i := 0; i < width; i++ {
			b.PushInt(distance)
			b.Emit(OpRoll)
		}
	}
	return b.buf
}

// Disassemble renders an emitted program back into a mnemonic listing, one
// instruction per line, for tests and CLI output. It does not execute the
// program; it only decodes opcode tags and their immediate operands.
func Disassemble(script []byte) ([]string, error) {
	var out []string
	i := 0
	for i < len(script) {
		op := Op(script[i])
		i++
		switch op {
		case OpPushInt:
			v, n := binary.Varint(script[i:])
			if n <= 0 {
				return nil, fmt.Errorf("dsl: truncated PUSHINT operand at byte %d", i)
			}
			i += n
			out = append(out, fmt.Sprintf("PUSHINT %d", v))
		case OpPushStr:
			l, n := binary.Uvarint(script[i:])
			if n <= 0 {
				return nil, fmt.Errorf("dsl: truncated PUSHSTR length at byte %d", i)
			}
			i += n
			if i+int(l) > len(script) {
				return nil, fmt.Errorf("dsl: truncated PUSHSTR payload at byte %d", i)
			}
			out = append(out, fmt.Sprintf("PUSHSTR %q", script[i:i+int(l)]))
			i += int(l)
		default:
			out = append(out, op.String())
		}
	}
	return out, nil
}
