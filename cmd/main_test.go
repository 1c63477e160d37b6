package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const helloSource = `let printf : funct(format: mut ptr :- i8, varargs) => inative = extern;

let main : funct() => inative = {
    result printf(c"hello", 1);
};
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCompiler(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestEmitRenderedSource(t *testing.T) {
	path := writeFile(t, "hello.wlg", helloSource)

	code, stdout, stderr := runCompiler("-emit", "ast", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if stdout != helloSource {
		t.Errorf("got:\n%s\nwant:\n%s", stdout, helloSource)
	}
}

func TestObjectRoundTripThroughDriver(t *testing.T) {
	src := writeFile(t, "hello.wlg", helloSource)
	object := filepath.Join(filepath.Dir(src), "hello.wlo.json")

	if code, _, stderr := runCompiler("-emit", "object", "-o", object, src); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}

	code, stdout, stderr := runCompiler("-emit", "ast", object)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if stdout != helloSource {
		t.Errorf("got:\n%s\nwant:\n%s", stdout, helloSource)
	}
}

func TestEmitTokens(t *testing.T) {
	path := writeFile(t, "tiny.wlg", "let f")

	code, stdout, stderr := runCompiler("-emit", "tokens", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if want := "RESERVED_WORD(let)\nIDENT(f)\nEOF()\n"; stdout != want {
		t.Errorf("got %q, want %q", stdout, want)
	}
}

func TestUnsoundModuleFails(t *testing.T) {
	path := writeFile(t, "bad.wlg", "let f : funct() => i32 = { };\n")

	code, stdout, stderr := runCompiler("-emit", "ast", path)
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if stdout != "" {
		t.Errorf("unexpected output %q", stdout)
	}
	for _, want := range []string{"Build failed with errors:", "block does not end with a result statement", "Type error in function `f`"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr does not mention %q:\n%s", want, stderr)
		}
	}
}

func TestSyntaxErrorFails(t *testing.T) {
	path := writeFile(t, "bad.wlg", "let f : funct() => void = {\n  g(1 2);\n};\n")

	code, _, stderr := runCompiler(path)
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr, "on line 2") || !strings.Contains(stderr, "   2 |   g(1 2);") {
		t.Errorf("stderr:\n%s", stderr)
	}
}

func TestSyntaxErrorAtEndOfFile(t *testing.T) {
	path := writeFile(t, "bad.wlg", "let f : funct() => void = { }\n")

	code, _, stderr := runCompiler(path)
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr, "on line 1") || !strings.Contains(stderr, "   1 | let f : funct() => void = { }") {
		t.Errorf("stderr:\n%s", stderr)
	}
}

func TestConfigFile(t *testing.T) {
	cfg := writeFile(t, "wlang.yaml", "emit: ast\nmodule_name: demo\n")

	code, stdout, stderr := runCompiler("-config", cfg, "-dump-ast", "-print-config")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	for _, want := range []string{"emit: ast", "module_name: demo", "dump_ast: true"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("config output does not contain %q:\n%s", want, stdout)
		}
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{"no input", nil, 2, "Usage: wlangc"},
		{"bad emit", []string{"-emit", "wasm", "x.wlg"}, 2, "unknown emit mode"},
		{"missing file", []string{filepath.Join(os.TempDir(), "does-not-exist.wlg")}, 1, "error:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCompiler(tt.args...)
			if code != tt.code {
				t.Errorf("exit %d, want %d", code, tt.code)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr does not mention %q:\n%s", tt.want, stderr)
			}
		})
	}
}

func TestUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "hello.txt", helloSource)

	code, _, stderr := runCompiler("-emit", "ast", path)
	if code != 1 || !strings.Contains(stderr, "unsupported file") {
		t.Errorf("exit %d, stderr:\n%s", code, stderr)
	}
}
