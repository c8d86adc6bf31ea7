package dsl

import (
	"github.com/hashicorp/go-multierror"
)

// DSL accumulates a typed memory and a trace of allocations and function
// calls, to be lowered into a target-VM program by Compile.
type DSL struct {
	logging

	dataTypes *dataTypeRegistry
	functions *functionRegistry
	memory    *memory
	trace     []traceEntry

	numInputs *int
	hints     []MemoryEntry
	outputs   []int

	strictReferences bool
	memoryCap        int
}

// New constructs a DSL, applying any construction options.
func New(opts ...Option) *DSL {
	d := &DSL{
		dataTypes: newDataTypeRegistry(),
		functions: newFunctionRegistry(),
		memory:    &memory{},
	}
	Options(opts...).apply(d)
	return d
}

func (d *DSL) alloc(dataType string, data Element, desc string) (int, error) {
	md, err := d.dataTypes.lookup(dataType)
	if err != nil {
		return 0, err
	}
	if !data.MatchesType(md.ElementType) {
		return 0, ElementTypeMismatchError{DataType: dataType, Want: md.ElementType, Got: data.Type()}
	}
	if d.memoryCap > 0 && d.memory.len() >= d.memoryCap {
		return 0, MemoryCapError{Cap: d.memoryCap}
	}
	idx := d.memory.append(MemoryEntry{DataType: dataType, Data: data, Description: desc})
	return idx, nil
}

// AllocInput declares a new input: a memory slot of dataType whose concrete
// value is supplied by the caller of the compiled program, not baked in at
// compile time. Inputs may only be allocated before the first constant,
// hint or function call.
func (d *DSL) AllocInput(dataType string, data Element, desc string) (int, error) {
	if d.numInputs != nil {
		return 0, InputsLockedError{}
	}
	return d.alloc(dataType, data, desc)
}

// AllocConstant declares a new memory slot whose value is fixed at compile
// time and baked into the emitted program as a literal push.
func (d *DSL) AllocConstant(dataType string, data Element, desc string) (int, error) {
	d.lockInputs()
	idx, err := d.alloc(dataType, data, desc)
	if err != nil {
		return 0, err
	}
	d.trace = append(d.trace, constantEntry{Idx: idx})
	return idx, nil
}

// AllocHint declares a new memory slot whose value the executor supplies at
// runtime, beneath the ordinary inputs. When Compile replays this entry it
// emits Builder.HintRoll to lift the value from the bottom of the real stack
// to the top, and the value becomes live on the simulated stack from then
// on.
func (d *DSL) AllocHint(dataType string, data Element, desc string) (int, error) {
	d.lockInputs()
	idx, err := d.alloc(dataType, data, desc)
	if err != nil {
		return 0, err
	}
	d.trace = append(d.trace, hintEntry{Idx: idx})
	return idx, nil
}

func (d *DSL) lockInputs() {
	if d.numInputs == nil {
		n := d.memory.len()
		d.numInputs = &n
	}
}

// NumInputs returns how many leading memory indices are declared inputs.
func (d *DSL) NumInputs() int {
	if d.numInputs == nil {
		return d.memory.len()
	}
	return *d.numInputs
}

// Execute replays a call to a function registered without call options.
func (d *DSL) Execute(name string, inputs ...int) ([]int, error) {
	return d.execute(name, inputs, nil)
}

// ExecuteWithOptions replays a call to a function registered with
// NewFunctionWithOptions.
func (d *DSL) ExecuteWithOptions(name string, inputs []int, opts CallOptions) ([]int, error) {
	return d.execute(name, inputs, &opts)
}

func (d *DSL) execute(name string, inputs []int, opts *CallOptions) ([]int, error) {
	d.lockInputs()

	fm, err := d.functions.lookup(name)
	if err != nil {
		return nil, err
	}
	if len(inputs) != len(fm.Input) {
		return nil, ArityMismatchError{Function: name, Want: len(fm.Input), Got: len(inputs)}
	}
	if opts != nil && !fm.acceptsOptions() {
		return nil, OptionsNotSupportedError{Function: name}
	}
	if opts == nil && fm.acceptsOptions() {
		empty := NewCallOptions()
		opts = &empty
	}
	if err := d.checkInputTypes(name, fm, inputs); err != nil {
		return nil, err
	}

	out, err := d.runTraceGenerator(fm, inputs, opts)
	if err != nil {
		return nil, err
	}
	if len(out.NewElements) != len(fm.Output) {
		return nil, OutputArityMismatchError{Function: name, Want: len(fm.Output), Got: len(out.NewElements)}
	}

	newIdxs := make([]int, len(out.NewElements))
	for i, entry := range out.NewElements {
		md, err := d.dataTypes.lookup(fm.Output[i])
		if err != nil {
			return nil, err
		}
		if !entry.Data.MatchesType(md.ElementType) {
			return nil, OutputTypeMismatchError{Function: name, Position: i, Want: fm.Output[i]}
		}
		if entry.DataType == "" {
			entry.DataType = fm.Output[i]
		}
		newIdxs[i] = d.memory.append(entry)
	}
	d.hints = append(d.hints, out.NewHints...)

	d.trace = append(d.trace, callEntry{Function: name, Inputs: append([]int(nil), inputs...), Options: opts})
	d.logf("call", "%s(%v) -> %v", name, inputs, newIdxs)
	return newIdxs, nil
}

func (d *DSL) runTraceGenerator(fm FunctionMetadata, inputs []int, opts *CallOptions) (FunctionOutput, error) {
	switch k := fm.kind.(type) {
	case basicFunction:
		return k.trace(d, inputs)
	case optionedFunction:
		return k.trace(d, inputs, *opts)
	default:
		return FunctionOutput{}, UnknownFunctionError{}
	}
}

func (d *DSL) checkInputTypes(name string, fm FunctionMetadata, inputs []int) error {
	for i, idx := range inputs {
		want := fm.Input[i]
		isRef := len(want) > 0 && want[0] == '&'
		bareWant := want
		if isRef {
			bareWant = want[1:]
		}
		entry, err := d.memory.get(idx)
		if err != nil {
			return err
		}
		if entry.DataType != bareWant {
			return InputTypeMismatchError{Function: name, Position: i, Want: bareWant, Got: entry.DataType}
		}
		if isRef && d.strictReferences {
			md, err := d.dataTypes.lookup(bareWant)
			if err != nil {
				return err
			}
			if !md.RefOnly {
				return ReferenceTypeError{Function: name, Position: i, DataType: bareWant}
			}
		}
	}
	return nil
}

// SetName sets or replaces the description of an already-allocated memory
// index.
func (d *DSL) SetName(idx int, desc string) error {
	return d.memory.setDescription(idx, desc)
}

// GetNum returns the number stored at idx.
func (d *DSL) GetNum(idx int) (int, error) {
	entry, err := d.memory.get(idx)
	if err != nil {
		return 0, err
	}
	v, ok := entry.Data.Num()
	if !ok {
		return 0, ElementTypeMismatchError{DataType: entry.DataType, Want: Num(), Got: entry.Data.Type()}
	}
	return v, nil
}

// GetManyNum returns the number vector stored at idx.
func (d *DSL) GetManyNum(idx int) ([]int, error) {
	entry, err := d.memory.get(idx)
	if err != nil {
		return nil, err
	}
	v, ok := entry.Data.ManyNum()
	if !ok {
		return nil, ElementTypeMismatchError{DataType: entry.DataType, Want: ManyNum(0), Got: entry.Data.Type()}
	}
	return v, nil
}

// GetStr returns the string stored at idx.
func (d *DSL) GetStr(idx int) (string, error) {
	entry, err := d.memory.get(idx)
	if err != nil {
		return "", err
	}
	v, ok := entry.Data.Str()
	if !ok {
		return "", ElementTypeMismatchError{DataType: entry.DataType, Want: Str(), Got: entry.Data.Type()}
	}
	return v, nil
}

// GetManyStr returns the string vector stored at idx.
func (d *DSL) GetManyStr(idx int) ([]string, error) {
	entry, err := d.memory.get(idx)
	if err != nil {
		return nil, err
	}
	v, ok := entry.Data.ManyStr()
	if !ok {
		return nil, ElementTypeMismatchError{DataType: entry.DataType, Want: ManyStr(0), Got: entry.Data.Type()}
	}
	return v, nil
}

// SetOutputs declares which memory indices the compiled program should
// drain onto the real stack (in the given order) as its final result.
func (d *DSL) SetOutputs(idxs ...int) error {
	for _, idx := range idxs {
		if _, err := d.memory.get(idx); err != nil {
			return err
		}
	}
	d.outputs = append([]int(nil), idxs...)
	return nil
}

// Outputs returns the declared output indices.
func (d *DSL) Outputs() []int { return append([]int(nil), d.outputs...) }

// computeLastVisit returns, for every memory index read by some call in the
// trace, the trace position (0-based step index, in replay order) of the
// last call that reads it. An index that is never read by any call, or is
// only ever a declared output, is absent from the map.
func (d *DSL) computeLastVisit() map[int]int {
	lastVisit := make(map[int]int)
	for step, te := range d.trace {
		if ce, ok := te.(callEntry); ok {
			for _, idx := range ce.Inputs {
				lastVisit[idx] = step
			}
		}
	}
	return lastVisit
}

// Check performs a non-mutating pre-flight pass over the whole trace,
// aggregating every defect it can find (rather than stopping at the first
// one, the way alloc_*/Execute must). It is purely additive: Compile does
// not require Check to have been called first.
func (d *DSL) Check() error {
	var result *multierror.Error
	seen := make(map[int]bool)
	for idx := 0; idx < d.memory.len(); idx++ {
		seen[idx] = true
	}
	for _, te := range d.trace {
		ce, ok := te.(callEntry)
		if !ok {
			continue
		}
		fm, err := d.functions.lookup(ce.Function)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if len(ce.Inputs) != len(fm.Input) {
			result = multierror.Append(result, ArityMismatchError{Function: ce.Function, Want: len(fm.Input), Got: len(ce.Inputs)})
		}
		for _, idx := range ce.Inputs {
			if _, err := d.memory.get(idx); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	for _, idx := range d.outputs {
		if _, err := d.memory.get(idx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
