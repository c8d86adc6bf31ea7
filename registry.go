package dsl

// FunctionOutput is what a trace generator returns: the memory entries that
// become the function call's declared outputs, plus any extra hint entries
// the function wants folded into the compiled program's Hint list without
// being given their own memory index or trace entry.
type FunctionOutput struct {
	NewElements []MemoryEntry
	NewHints    []MemoryEntry
}

// TraceGenerator computes a function call's outputs given the DSL's current
// memory and the indices bound to its declared inputs.
type TraceGenerator func(d *DSL, inputs []int) (FunctionOutput, error)

// ScriptGenerator emits the target-VM bytecode for a function call. It is
// given the stack distance (from the top, at the point of the call) of each
// of the function's declared inputs that was marked `&` (passed by
// reference, addressed in place rather than materialized), one entry per
// reference input in declared order; non-reference
// inputs are materialized onto the top of the stack by the lowering driver
// before the generator runs, in declared input order.
type ScriptGenerator func(refPositions []int) ([]byte, error)

// TraceGeneratorWithOptions and ScriptGeneratorWithOptions are the
// options-accepting forms, used by functions registered with
// NewFunctionWithOptions.
type TraceGeneratorWithOptions func(d *DSL, inputs []int, opts CallOptions) (FunctionOutput, error)
type ScriptGeneratorWithOptions func(refPositions []int, opts CallOptions) ([]byte, error)

// functionKind is a tagged sum distinguishing a function registered without
// call options from one registered with them, without resorting to a
// subclassing hierarchy: FunctionMetadata holds one of these, and acceptsOptions
// switches on its concrete type.
type functionKind interface {
	isFunctionKind()
}

type basicFunction struct {
	trace  TraceGenerator
	script ScriptGenerator
}

func (basicFunction) isFunctionKind() {}

type optionedFunction struct {
	trace  TraceGeneratorWithOptions
	script ScriptGeneratorWithOptions
}

func (optionedFunction) isFunctionKind() {}

// FunctionMetadata describes one registered function: its declared input
// and output data types, and the trace/script generator pair that computes
// its behavior.
type FunctionMetadata struct {
	Input  []string
	Output []string
	kind   functionKind
}

// NewFunction describes a function whose calls never carry options.
func NewFunction(input, output []string, trace TraceGenerator, script ScriptGenerator) FunctionMetadata {
	return FunctionMetadata{
		Input:  input,
		Output: output,
		kind:   basicFunction{trace: trace, script: script},
	}
}

// NewFunctionWithOptions describes a function whose calls may carry a
// CallOptions bag, consulted by both its trace and script generators.
func NewFunctionWithOptions(input, output []string, trace TraceGeneratorWithOptions, script ScriptGeneratorWithOptions) FunctionMetadata {
	return FunctionMetadata{
		Input:  input,
		Output: output,
		kind:   optionedFunction{trace: trace, script: script},
	}
}

func (fm FunctionMetadata) acceptsOptions() bool {
	_, ok := fm.kind.(optionedFunction)
	return ok
}

type functionRegistry struct {
	functions map[string]FunctionMetadata
}

func newFunctionRegistry() *functionRegistry {
	return &functionRegistry{functions: make(map[string]FunctionMetadata)}
}

func (r *functionRegistry) add(name string, fm FunctionMetadata) {
	r.functions[name] = fm
}

func (r *functionRegistry) lookup(name string) (FunctionMetadata, error) {
	fm, ok := r.functions[name]
	if !ok {
		return FunctionMetadata{}, UnknownFunctionError{Name: name}
	}
	return fm, nil
}

// RegisterFunction adds fm to the DSL's function registry under name,
// replacing any existing registration of that name.
func (d *DSL) RegisterFunction(name string, fm FunctionMetadata) {
	d.functions.add(name, fm)
}
