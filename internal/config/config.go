// Package config holds the compiler driver settings, read from an optional
// YAML file and overridden by command-line flags.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type EmitMode string

const (
	EmitLLVM   EmitMode = "llvm"
	EmitObject EmitMode = "object"
	EmitAST    EmitMode = "ast"
	EmitTokens EmitMode = "tokens"
)

var emitModes = []EmitMode{EmitLLVM, EmitObject, EmitAST, EmitTokens}

// Config models wlang.yaml.
type Config struct {
	// Output is the file the result is written to. Empty means stdout.
	Output       string   `yaml:"output,omitempty"`
	Emit         EmitMode `yaml:"emit"`
	ModuleName   string   `yaml:"module_name"`
	TargetTriple string   `yaml:"target_triple,omitempty"`
	DumpAST      bool     `yaml:"dump_ast,omitempty"`
}

func Default() *Config {
	return &Config{
		Emit:       EmitLLVM,
		ModuleName: "main",
	}
}

// Load reads a config file. Fields the file leaves out keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", abs, err)
	}
	return cfg, nil
}

// Decode parses YAML from r on top of the defaults and validates the result.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Encode writes cfg as YAML.
func (c *Config) Encode(w io.Writer) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: encoder close: %w", err)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func (c *Config) normalize() {
	c.Output = strings.TrimSpace(c.Output)
	c.Emit = EmitMode(strings.ToLower(strings.TrimSpace(string(c.Emit))))
	c.ModuleName = strings.TrimSpace(c.ModuleName)
	c.TargetTriple = strings.TrimSpace(c.TargetTriple)
}

func (c *Config) Validate() error {
	if !slices.Contains(emitModes, c.Emit) {
		return fmt.Errorf("config: unknown emit mode %q (expected one of llvm, object, ast, tokens)", c.Emit)
	}
	if c.ModuleName == "" {
		return fmt.Errorf("config: module_name must not be empty")
	}
	return nil
}

// SetEmit validates and applies an emit mode given on the command line.
func (c *Config) SetEmit(mode string) error {
	emit := EmitMode(strings.ToLower(strings.TrimSpace(mode)))
	if !slices.Contains(emitModes, emit) {
		return fmt.Errorf("config: unknown emit mode %q (expected one of llvm, object, ast, tokens)", mode)
	}
	c.Emit = emit
	return nil
}
