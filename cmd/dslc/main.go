// Command dslc builds one of a few canned example traces, compiles it, and
// prints the resulting script and memory snapshot.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tracecompile/dsl"
	"github.com/tracecompile/dsl/internal/logio"
)

func main() {
	log := logio.Logger{}
	log.SetOutput(os.Stderr)
	defer func() { os.Exit(log.ExitCode()) }()

	var (
		example string
		trace   bool
		timeout time.Duration
	)

	root := &cobra.Command{
		Use:   "dslc",
		Short: "compile a canned trace-driven DSL example",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if timeout != 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return run(ctx, example, trace, &log)
		},
	}
	root.Flags().StringVar(&example, "example", "add", "canned example to compile: add, and, first, scale")
	root.Flags().BoolVar(&trace, "trace", false, "enable compiler trace logging")
	root.Flags().DurationVar(&timeout, "timeout", 0, "wall-clock timeout for compilation")

	log.ErrorIf(root.Execute())
}

func run(ctx context.Context, example string, trace bool, log *logio.Logger) error {
	var opts []dsl.Option
	if trace {
		opts = append(opts, dsl.WithLogf(log.Leveledf("TRACE")))
	}
	d := dsl.New(opts...)
	dsl.RegisterArithmetic(d)

	outIdx, err := buildExample(d, example)
	if err != nil {
		return err
	}
	if err := d.SetOutputs(outIdx); err != nil {
		return err
	}
	if err := d.Check(); err != nil {
		return err
	}

	type result struct {
		BuildID string            `json:"build_id"`
		Input   []dsl.MemoryEntry `json:"input"`
		Script  string            `json:"script_hex"`
		Hint    []dsl.MemoryEntry `json:"hint"`
	}

	done := make(chan error, 1)
	var prog *dsl.CompiledProgram
	go func() {
		var cerr error
		prog, cerr = d.Compile()
		done <- cerr
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return err
		}
	}

	out := result{
		BuildID: uuid.NewString(),
		Input:   prog.Input,
		Script:  hex.EncodeToString(prog.Script),
		Hint:    prog.Hint,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func buildExample(d *dsl.DSL, example string) (int, error) {
	switch example {
	case "add":
		a, err := d.AllocInput("num", dsl.NewNum(2), "a")
		if err != nil {
			return 0, err
		}
		b, err := d.AllocInput("num", dsl.NewNum(3), "b")
		if err != nil {
			return 0, err
		}
		out, err := d.Execute("add", a, b)
		if err != nil {
			return 0, err
		}
		return out[0], nil

	case "and":
		a, err := d.AllocInput("num", dsl.NewNum(1), "a")
		if err != nil {
			return 0, err
		}
		b, err := d.AllocInput("num", dsl.NewNum(1), "b")
		if err != nil {
			return 0, err
		}
		out, err := d.Execute("and", a, b)
		if err != nil {
			return 0, err
		}
		return out[0], nil

	case "first":
		v, err := d.AllocInput("num_vec", dsl.NewManyNum([]int{7, 8, 9}), "v")
		if err != nil {
			return 0, err
		}
		out, err := d.Execute("first", v)
		if err != nil {
			return 0, err
		}
		return out[0], nil

	case "scale":
		a, err := d.AllocInput("num", dsl.NewNum(4), "a")
		if err != nil {
			return 0, err
		}
		out, err := d.ExecuteWithOptions("scale", []int{a}, dsl.NewCallOptions(dsl.WithCallOption("factor", 3)))
		if err != nil {
			return 0, err
		}
		return out[0], nil

	default:
		return 0, fmt.Errorf("dslc: unknown example %q", example)
	}
}
