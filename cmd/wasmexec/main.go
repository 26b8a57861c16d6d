package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"wasmexec/internal/config"
	"wasmexec/internal/logger"
	"wasmexec/internal/runner"
	"wasmexec/pkg/color"
)

// Main entry point for the wasmexec interpreter.
func main() {
	options := runner.Runner{}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&options.Trace, "t", false, "Print every executed instruction")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.StringVar(&options.ConfigFile, "c", "", "Config file (default "+config.DefaultFile+" if present)")
	flag.StringVar(&options.TraceFile, "o", "", "Write the CBOR trace to this file")
	flag.IntVar(&options.MaxDepth, "d", 0, "Maximum nesting depth")
	flag.IntVar(&options.MaxSteps, "s", 0, "Maximum executed instructions (0 = unlimited)")

	flag.Parse()
	args := flag.Args()

	if options.Help {
		fmt.Printf("Usage: %s [options] <program.yaml>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	cfgPath, optional := options.ConfigFile, false
	if cfgPath == "" {
		cfgPath, optional = config.DefaultFile, true
	}
	cfg, err := config.Load(cfgPath, optional)
	if err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}
	applyConfig(&options, cfg)

	logger.Init(options.Verbose, options.NoColor)
	if options.NoColor {
		color.EnableColor(false)
	}

	if len(args) == 0 {
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}

	options.SourceFile = args[0]

	err = options.Run()
	if errors.Is(err, runner.ErrTrapped) {
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("Execution failed", "error", err)
	}
}

// applyConfig fills every option the command line left unset.
func applyConfig(opts *runner.Runner, cfg config.Config) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["v"] {
		opts.Verbose = cfg.Verbose
	}
	if !set["t"] {
		opts.Trace = cfg.Trace
	}
	if !set["n"] {
		opts.NoColor = cfg.NoColor
	}
	if !set["o"] {
		opts.TraceFile = cfg.TraceFile
	}
	if !set["d"] {
		opts.MaxDepth = cfg.MaxDepth
	}
	if !set["s"] {
		opts.MaxSteps = cfg.MaxSteps
	}
}
