// Package dsl implements a trace-driven compiler that lowers a typed,
// allocation-based intermediate representation into a linear byte program
// for a small stack-based target virtual machine in the style of Bitcoin
// Script.
//
// A caller builds a DSL value, allocates inputs and constants into its
// memory, and replays a sequence of function calls (the "trace") against it.
// Each call consumes some already-allocated memory indices and produces new
// ones. Compile then walks that trace once, doing liveness analysis to
// decide whether each operand needs a destructive move (ROLL) or a
// non-destructive copy (PICK), and emits the shortest opcode sequence that
// realizes the chosen access for the target stack machine.
//
// The package does not execute the programs it emits, and it does not
// optimize the trace it is given; it only lowers it.
package dsl
