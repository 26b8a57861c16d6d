package runner

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"wasmexec/pkg/ast"
	"wasmexec/pkg/color"
	"wasmexec/pkg/interpreter"
	"wasmexec/pkg/trace"
)

// ErrTrapped is returned by Run when the program terminated with a trap.
var ErrTrapped = errors.New("program trapped")

type Runner struct {
	Help       bool   // Show help message
	Verbose    bool   // Debug logs and instruction listing
	Trace      bool   // Print every executed instruction
	NoColor    bool   // Disable colored output
	MaxDepth   int    // Nesting depth guard
	MaxSteps   int    // Instruction budget (0 = unlimited)
	ConfigFile string // Path to the TOML config file
	SourceFile string // Path to the YAML program
	TraceFile  string // Path of the CBOR trace output

	Out    io.Writer   // Program output, stdout when nil
	Logger *log.Logger // Defaults to log.Default()
}

// Run loads the program, executes it and reports the outcome. A trap is
// reported as ErrTrapped after the trace has been written.
func (r *Runner) Run() error {
	out := r.Out
	if out == nil {
		out = os.Stdout
	}
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}

	logger.Info("Loading program", "file", r.SourceFile)

	fn, err := ast.LoadFile(r.SourceFile)
	if err != nil {
		return fmt.Errorf("load program: %w", err)
	}

	if r.Verbose {
		fmt.Fprintln(out, color.Banner("Instructions"))
		if len(fn.Body) == 0 {
			fmt.Fprintln(out, color.GrayText("No instructions."))
		} else if err := ast.Fprint(out, fn.Body); err != nil {
			return err
		}
	}

	rec := &trace.Recorder{}
	var printer interpreter.TraceFunc
	if r.Trace {
		fmt.Fprintln(out, color.Banner("Trace"))
		printer = trace.PrintHook(out)
	}

	var recorder interpreter.TraceFunc
	if r.TraceFile != "" {
		recorder = rec.Hook()
	}

	var logHook interpreter.TraceFunc
	if r.Verbose {
		logHook = trace.LogHook(logger)
	}

	it := interpreter.NewInterpreter(
		interpreter.WithMaxDepth(r.MaxDepth),
		interpreter.WithMaxSteps(r.MaxSteps),
		interpreter.WithTrace(trace.Tee(printer, recorder, logHook)),
		interpreter.WithLogger(logger),
	)

	res, err := it.Invoke(fn.Body, interpreter.NewLocalsFrom(fn.Locals...))
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	if r.TraceFile != "" {
		if err := writeTrace(r.TraceFile, rec); err != nil {
			return err
		}
		logger.Info("Trace written", "file", r.TraceFile, "events", len(rec.Events()))
	}

	fmt.Fprintln(out, color.Banner("Result"))
	if res.Trapped() {
		fmt.Fprintln(out, color.BrightRedText(res.String()))
		return ErrTrapped
	}
	if _, ok := res.Value(); !ok {
		fmt.Fprintln(out, color.YellowText(res.String()))
		return nil
	}
	fmt.Fprintln(out, color.CyanText(res.String()))

	return nil
}

func writeTrace(path string, rec *trace.Recorder) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write trace: %w", err)
	}

	if err := rec.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("write trace: %w", err)
	}

	return f.Close()
}
