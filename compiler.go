package dsl

import (
	"fmt"

	"github.com/tracecompile/dsl/internal/panicerr"
)

// CompiledProgram is the result of lowering a DSL's trace: the inputs the
// emitted script expects to find already pushed onto the stack on entry,
// the script itself, and any hint entries accumulated along the way.
type CompiledProgram struct {
	Input  []MemoryEntry
	Script []byte
	Hint   []MemoryEntry
}

// lowerer holds the mutable state threaded through one Compile pass.
type lowerer struct {
	d          *DSL
	stack      *stackModel
	script     *Builder
	lastVisit  map[int]int
	curStep    int
	nextMemIdx int // next unconsumed DSL memory index, tracking replay order
}

// Compile replays the DSL's trace once, performing liveness-driven
// copy-vs-move selection and shortest-opcode emission, and returns the
// resulting program. Compile never mutates the DSL and produces the same
// CompiledProgram every time it is called on the same trace.
func (d *DSL) Compile() (*CompiledProgram, error) {
	lw := &lowerer{
		d:          d,
		stack:      newStackModel(),
		script:     &Builder{},
		lastVisit:  d.computeLastVisit(),
		nextMemIdx: d.NumInputs(),
	}

	// Initialization: the emitted script's contract is that all declared
	// inputs are already pushed onto the stack, in declaration order,
	// before it runs. The simulated stack starts in that same state, so
	// that the very first operand reference resolves to a real distance.
	numInputs := d.NumInputs()
	for i := 0; i < numInputs; i++ {
		entry, err := d.memory.get(i)
		if err != nil {
			return nil, err
		}
		if err := lw.stack.push(i, entry.Data.Width()); err != nil {
			return nil, err
		}
	}

	for step, te := range d.trace {
		lw.curStep = step
		if err := lw.step(te); err != nil {
			return nil, err
		}
	}

	outputTotalLen, err := lw.drainOutputs(d.outputs)
	if err != nil {
		return nil, err
	}
	lw.cleanup()
	lw.script.FromAltStack(outputTotalLen)

	inputs := make([]MemoryEntry, numInputs)
	for i := 0; i < numInputs; i++ {
		entry, err := d.memory.get(i)
		if err != nil {
			return nil, err
		}
		inputs[i] = entry
	}

	return &CompiledProgram{
		Input:  inputs,
		Script: lw.script.Bytes(),
		Hint:   append([]MemoryEntry(nil), d.hints...),
	}, nil
}

func (lw *lowerer) step(te traceEntry) error {
	switch t := te.(type) {
	case constantEntry:
		lw.nextMemIdx = t.Idx + 1
		return lw.materializeConstant(t.Idx)
	case hintEntry:
		lw.nextMemIdx = t.Idx + 1
		return lw.materializeHint(t.Idx)
	case callEntry:
		return lw.emitCall(t.Function, t.Inputs, t.Options)
	default:
		return fmt.Errorf("dsl: unknown trace entry %T", te)
	}
}

func (lw *lowerer) materializeConstant(idx int) error {
	entry, err := lw.d.memory.get(idx)
	if err != nil {
		return err
	}
	lw.script.PushElement(entry.Data)
	width := entry.Data.Width()
	if err := lw.stack.push(idx, width); err != nil {
		return err
	}
	lw.d.logf("const", "idx=%d width=%d", idx, width)
	return nil
}

// materializeHint emits the opcode triple (DEPTH, 1SUB, ROLL), once per slot,
// that repeatedly lifts the bottommost real operand-stack slot to the top:
// the executor's contract is that hint values sit underneath the ordinary
// inputs at program entry, so this drains them up into replay order one
// slot at a time.
func (lw *lowerer) materializeHint(idx int) error {
	entry, err := lw.d.memory.get(idx)
	if err != nil {
		return err
	}
	width := entry.Data.Width()
	lw.script.HintRoll(width)
	if err := lw.stack.push(idx, width); err != nil {
		return err
	}
	lw.d.logf("hint", "idx=%d width=%d", idx, width)
	return nil
}

// emitCall is the single code path used for both function-call shapes
// (with or without a CallOptions bag). Using one helper for both is what
// keeps the output-arity bookkeeping below from ever drifting between an
// "options" branch and a "no options" branch.
func (lw *lowerer) emitCall(name string, inputIdxs []int, opts *CallOptions) error {
	fm, err := lw.d.functions.lookup(name)
	if err != nil {
		return err
	}

	isOutput := make(map[int]bool, len(lw.d.outputs))
	for _, o := range lw.d.outputs {
		isOutput[o] = true
	}

	isRefInput := func(i int) bool {
		return i < len(fm.Input) && len(fm.Input[i]) > 0 && fm.Input[i][0] == '&'
	}

	// Every non-reference input is materialized first, in declared argument
	// order. Reference inputs' stack positions are resolved only afterward
	// (see below), since the copies/moves made here shift everything else's
	// distance from the top.
	copiedSlotsSoFar := 0
	for i, idx := range inputIdxs {
		if isRefInput(i) {
			continue
		}

		last, tracked := lw.lastVisit[idx]
		isLastRead := tracked && last == lw.curStep
		repeatsLater := containsInt(inputIdxs[i+1:], idx)
		canRoll := isLastRead && !repeatsLater && !isOutput[idx]

		width, err := lw.materializeOperand(idx, copiedSlotsSoFar, canRoll)
		if err != nil {
			return err
		}
		copiedSlotsSoFar += width
	}

	var refPositions []int
	for i, idx := range inputIdxs {
		if !isRefInput(i) {
			continue
		}
		pos, err := lw.stack.getRelativePosition(idx)
		if err != nil {
			return err
		}
		refPositions = append(refPositions, pos)
	}

	script, err := lw.runScriptGenerator(fm, refPositions, opts)
	if err != nil {
		return ScriptGeneratorError{Function: name, Err: err}
	}
	lw.script.Append(script)

	// Every declared output of this call becomes newly live on top of the
	// simulated stack, in declared order. This increment happens once, here,
	// for both call shapes, fixing the options-path bug where a prior
	// implementation only advanced allocation bookkeeping for the
	// no-options path.
	outIdxs := lw.outputIndicesOf(name)
	for _, idx := range outIdxs {
		entry, err := lw.d.memory.get(idx)
		if err != nil {
			return err
		}
		if err := lw.stack.push(idx, entry.Data.Width()); err != nil {
			return err
		}
	}

	lw.d.logf("emit", "%s inputs=%v outputs=%v", name, inputIdxs, outIdxs)
	return nil
}

func (lw *lowerer) runScriptGenerator(fm FunctionMetadata, refPositions []int, opts *CallOptions) (script []byte, err error) {
	rerr := panicerr.Recover("script generator", func() error {
		var genErr error
		switch k := fm.kind.(type) {
		case basicFunction:
			script, genErr = k.script(refPositions)
		case optionedFunction:
			script, genErr = k.script(refPositions, *opts)
		default:
			genErr = fmt.Errorf("unregistered function kind")
		}
		return genErr
	})
	return script, rerr
}

// outputIndicesOf returns the memory indices Execute appended for this call
// to name, from how many outputs the function declares. Because Execute
// appends a function's outputs to memory contiguously at call time, and
// emitCall runs in the same replay order Execute did, the output indices for
// this call are exactly the fm.Output-many indices starting at the DSL
// memory high-water mark this lowerer has consumed so far.
func (lw *lowerer) outputIndicesOf(name string) []int {
	fm, err := lw.d.functions.lookup(name)
	if err != nil {
		return nil
	}
	n := len(fm.Output)
	if n == 0 {
		return nil
	}
	hi := lw.nextMemIdx
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = hi + i
	}
	lw.nextMemIdx = hi + n
	return out
}

// containsInt reports whether needle occurs anywhere in haystack.
func containsInt(haystack []int, needle int) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

// materializeOperand ensures idx's value sits on top of the real stack for
// the current call, either by a destructive ROLL (the operand simply
// relocates; its model entry is pulled, since the compiler treats it as
// consumed the instant it lands at the top) or a non-destructive PICK (the
// model entry is left exactly where it is: the fresh physical copy the PICK
// produces belongs to this call alone and is never tracked). extraOffset
// accounts for the machine slots earlier operands of this same call have
// already placed above everything the model still thinks is on top, a
// quantity the model itself cannot see because picked copies and
// soon-to-be-consumed rolled operands are deliberately never recorded in
// it. It returns idx's width, so the caller can fold it into the running
// offset for the next operand.
func (lw *lowerer) materializeOperand(idx, extraOffset int, canRoll bool) (int, error) {
	width, err := lw.stack.getLength(idx)
	if err != nil {
		return 0, err
	}
	pos, err := lw.stack.getRelativePosition(idx)
	if err != nil {
		return 0, err
	}
	distance := pos + extraOffset

	if canRoll {
		lw.script.Roll(distance, width)
		if err := lw.stack.pull(idx); err != nil {
			return 0, err
		}
		lw.d.logf("roll", "idx=%d distance=%d width=%d", idx, distance, width)
		return width, nil
	}

	lw.script.Pick(distance, width)
	lw.d.logf("pick", "idx=%d distance=%d width=%d", idx, distance, width)
	return width, nil
}

// drainOutputs emits the sequence that moves every declared output, in
// reverse declaration order, onto the alt stack; Compile then drops what is
// left (cleanup) and restores the outputs, so that they end up on the main
// stack in declaration order with nothing else beneath them. An output index repeated later in outputs_rev is picked
// (non-destructively copied, since a later position still needs it);
// otherwise it is rolled and its model entry pulled. Drainage always emits
// the raw, generic <pos> PICK/<pos> ROLL immediate forms, never the
// DUP/OVER/SWAP/ROT/no-op shortcuts materialization's Pick/Roll use, and
// repeats the same pos for every one of an output's width slots: each pick
// is immediately paired with its own TOALTSTACK, so the net runtime depth
// this loop leaves behind always matches what the model still tracks, even
// though the picked copies themselves are never recorded in it (see
// §4.3.4/§9 open question 3). It returns outputTotalLen, the total slots
// pushed to the alt stack across every output, so the final restore can
// bring back exactly that many, not one per declared output.
func (lw *lowerer) drainOutputs(outputs []int) (int, error) {
	outputTotalLen := 0
	for i := len(outputs) - 1; i >= 0; i-- {
		idx := outputs[i]
		width, err := lw.stack.getLength(idx)
		if err != nil {
			return 0, err
		}
		pos, err := lw.stack.getRelativePosition(idx)
		if err != nil {
			return 0, err
		}

		// outputs[:i] is exactly the portion of outputs_rev that still comes
		// after this position: iterating i from len(outputs)-1 down to 0
		// walks outputs_rev in order, and everything with a smaller original
		// index is later in that reversed walk.
		isRepeat := containsInt(outputs[:i], idx)

		for s := 0; s < width; s++ {
			if isRepeat {
				lw.script.PushInt(pos)
				lw.script.Emit(OpPick)
			} else {
				lw.script.PushInt(pos)
				lw.script.Emit(OpRoll)
			}
			lw.script.Emit(OpToAltStack)
		}
		outputTotalLen += width
		if !isRepeat {
			if err := lw.stack.pull(idx); err != nil {
				return 0, err
			}
		}
	}
	return outputTotalLen, nil
}

// cleanup drops whatever remains live on the simulated stack once the
// outputs have been drained to the alt stack, so that after Compile's final
// restore the program leaves nothing but the declared outputs behind.
func (lw *lowerer) cleanup() {
	n := lw.stack.numLiveSlots()
	lw.script.Drop(n)
}
