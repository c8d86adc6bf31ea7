package dsl

// This file registers a small standard library of demo functions: enough
// to exercise every shape the lowering driver supports (plain value
// inputs, a `&`-reference input, and an options-accepting call) without
// pulling in a real target-VM instruction set. RegisterArithmetic is meant
// for tests and for cmd/dslc's canned examples.

var (
	opAdd = NewOp("ADD")
	opAnd = NewOp("AND")
)

// RegisterArithmetic registers "add" and "and", two Num,Num -> Num
// functions, and "first", a reference-taking ManyNum -> Num function that
// returns the vector's first element, against d. It also registers "scale", an options-accepting
// function, to exercise ExecuteWithOptions end to end.
func RegisterArithmetic(d *DSL) {
	d.AddDataType("num", Num())

	d.RegisterFunction("add", NewFunction(
		[]string{"num", "num"},
		[]string{"num"},
		func(d *DSL, inputs []int) (FunctionOutput, error) {
			a, err := d.GetNum(inputs[0])
			if err != nil {
				return FunctionOutput{}, err
			}
			b, err := d.GetNum(inputs[1])
			if err != nil {
				return FunctionOutput{}, err
			}
			return FunctionOutput{NewElements: []MemoryEntry{{DataType: "num", Data: NewNum(a + b)}}}, nil
		},
		func(refPositions []int) ([]byte, error) {
			var b Builder
			b.Emit(opAdd)
			return b.Bytes(), nil
		},
	))

	d.RegisterFunction("and", NewFunction(
		[]string{"num", "num"},
		[]string{"num"},
		func(d *DSL, inputs []int) (FunctionOutput, error) {
			a, err := d.GetNum(inputs[0])
			if err != nil {
				return FunctionOutput{}, err
			}
			b, err := d.GetNum(inputs[1])
			if err != nil {
				return FunctionOutput{}, err
			}
			v := 0
			if a != 0 && b != 0 {
				v = 1
			}
			return FunctionOutput{NewElements: []MemoryEntry{{DataType: "num", Data: NewNum(v)}}}, nil
		},
		func(refPositions []int) ([]byte, error) {
			var b Builder
			b.Emit(opAnd)
			return b.Bytes(), nil
		},
	))

	d.AddRefOnlyDataType("num_vec", ManyNum(3))

	d.RegisterFunction("first", NewFunction(
		[]string{"&num_vec"},
		[]string{"num"},
		func(d *DSL, inputs []int) (FunctionOutput, error) {
			vs, err := d.GetManyNum(inputs[0])
			if err != nil {
				return FunctionOutput{}, err
			}
			v := 0
			if len(vs) > 0 {
				v = vs[0]
			}
			return FunctionOutput{NewElements: []MemoryEntry{{DataType: "num", Data: NewNum(v)}}}, nil
		},
		func(refPositions []int) ([]byte, error) {
			var b Builder
			b.Pick(refPositions[0], 1)
			return b.Bytes(), nil
		},
	))

	// scale multiplies its input by a small positive integer factor given as
	// a call option, by repeated addition: there is no MUL opcode in this
	// demo instruction set.
	d.RegisterFunction("scale", NewFunctionWithOptions(
		[]string{"num"},
		[]string{"num"},
		func(d *DSL, inputs []int, opts CallOptions) (FunctionOutput, error) {
			v, err := d.GetNum(inputs[0])
			if err != nil {
				return FunctionOutput{}, err
			}
			factor, _ := opts.Int("factor")
			if factor < 1 {
				factor = 1
			}
			return FunctionOutput{NewElements: []MemoryEntry{{DataType: "num", Data: NewNum(v * factor)}}}, nil
		},
		func(refPositions []int, opts CallOptions) ([]byte, error) {
			factor, _ := opts.Int("factor")
			if factor < 1 {
				factor = 1
			}
			var b Builder
			for i := 1; i < factor; i++ {
				b.Emit(OpDup)
			}
			for i := 1; i < factor; i++ {
				b.Emit(opAdd)
			}
			return b.Bytes(), nil
		},
	))
}
