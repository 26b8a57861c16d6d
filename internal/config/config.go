package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"wasmexec/pkg/interpreter"
)

// DefaultFile is read when no config file is named explicitly.
const DefaultFile = "wasmexec.toml"

// Config holds run defaults. Command-line flags take precedence.
type Config struct {
	MaxDepth  int    `toml:"max_depth"`  // nesting depth guard
	MaxSteps  int    `toml:"max_steps"`  // instruction budget, 0 = unlimited
	Trace     bool   `toml:"trace"`      // print every executed instruction
	TraceFile string `toml:"trace_file"` // write the CBOR trace here
	Verbose   bool   `toml:"verbose"`    // debug logs and instruction listing
	NoColor   bool   `toml:"no_color"`   // disable colored output
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		MaxDepth: interpreter.DefaultMaxDepth,
	}
}

// Load reads path over the defaults. A missing file is an error unless
// optional is set.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative, got %d", c.MaxSteps)
	}
	return nil
}
