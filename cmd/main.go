package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kievzenit/wlang/internal/ast"
	"github.com/kievzenit/wlang/internal/compiler_errors"
	"github.com/kievzenit/wlang/internal/config"
	"github.com/kievzenit/wlang/internal/emitter"
	l "github.com/kievzenit/wlang/internal/lexer"
	"github.com/kievzenit/wlang/internal/parser"
	"github.com/kievzenit/wlang/internal/type_checker"
	"github.com/sanity-io/litter"
)

const (
	sourceExtension = ".wlg"
	objectExtension = ".wlo.json"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("wlangc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file")
	emit := fs.String("emit", "", "What to emit: llvm, object, ast or tokens")
	output := fs.String("o", "", "Output file (default stdout)")
	dumpAST := fs.Bool("dump-ast", false, "Dump the parsed AST to stdout")
	printConfig := fs.Bool("print-config", false, "Print the effective config and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Wlang compiler %s\n\n", ast.CompilerVersion)
		fmt.Fprintf(stderr, "Usage: wlangc [options] <file%s|file%s>\n\n", sourceExtension, objectExtension)
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *emit != "" {
		if err := cfg.SetEmit(*emit); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 2
		}
	}
	if *output != "" {
		cfg.Output = *output
	}
	if *dumpAST {
		cfg.DumpAST = true
	}

	if *printConfig {
		if err := cfg.Encode(stdout); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	fileName := fs.Arg(0)

	fileData, err := os.ReadFile(fileName)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	eh := compiler_errors.NewErrorHandler(stderr)

	if cfg.Emit == config.EmitTokens {
		if !strings.HasSuffix(fileName, sourceExtension) {
			fmt.Fprintf(stderr, "error: tokens can only be emitted for %s files\n", sourceExtension)
			return 1
		}

		_, tokens, err := tokenize(fileData, eh)
		if err != nil {
			return 1
		}

		var sb strings.Builder
		for i := range tokens {
			sb.WriteString(tokens[i].String())
			sb.WriteString("\n")
		}
		return writeOutput(cfg, []byte(sb.String()), stdout, stderr)
	}

	module, err := loadModule(fileName, fileData, eh)
	if err != nil {
		if !eh.HasErrors() {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
		return 1
	}

	if cfg.DumpAST {
		fmt.Fprintln(stdout, litter.Sdump(module))
	}

	result := type_checker.Check(module)
	if !result.Sound {
		result.Report(eh)
		eh.Report()
		return 1
	}

	var out []byte
	switch cfg.Emit {
	case config.EmitObject:
		out, err = ast.MarshalModule(module)
	case config.EmitAST:
		out = []byte(ast.Render(module))
	case config.EmitLLVM:
		out, err = emitLLVM(module, cfg)
	}
	if err != nil {
		if ce, ok := err.(compiler_errors.CompilerError); ok {
			eh.AddError(ce)
			eh.Report()
		} else {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
		return 1
	}

	return writeOutput(cfg, out, stdout, stderr)
}

func tokenize(data []byte, eh compiler_errors.ErrorHandler) (lexer *l.Lexer, tokens []l.Token, err error) {
	defer compiler_errors.Catch(&err)

	lexer = l.NewLexer(data, eh)
	return lexer, lexer.Tokenize(), nil
}

func loadModule(fileName string, data []byte, eh compiler_errors.ErrorHandler) (*ast.Module, error) {
	switch {
	case strings.HasSuffix(fileName, objectExtension):
		return ast.UnmarshalModule(data)
	case strings.HasSuffix(fileName, sourceExtension):
		lexer, tokens, err := tokenize(data, eh)
		if err != nil {
			return nil, err
		}
		return parser.NewParser(l.NewTokenScanner(tokens), lexer, eh).Parse()
	}

	return nil, fmt.Errorf("unsupported file %q: expected a %s or %s file", fileName, sourceExtension, objectExtension)
}

func emitLLVM(module *ast.Module, cfg *config.Config) ([]byte, error) {
	options := []emitter.Option{emitter.WithModuleName(cfg.ModuleName)}
	if cfg.TargetTriple != "" {
		options = append(options, emitter.WithTargetTriple(cfg.TargetTriple))
	}

	llvmModule, err := emitter.NewEmitter(module, options...).Emit()
	if err != nil {
		return nil, err
	}
	defer emitter.Dispose(llvmModule)

	return []byte(llvmModule.String()), nil
}

func writeOutput(cfg *config.Config, data []byte, stdout, stderr io.Writer) int {
	if cfg.Output == "" {
		if _, err := stdout.Write(data); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := os.WriteFile(cfg.Output, data, 0o644); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
