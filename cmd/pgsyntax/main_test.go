// Package main provides tests for the pgsyntax CLI.
package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/pgsyntax/internal/cli"
	"github.com/leapstack-labs/pgsyntax/internal/cli/commands"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := execute(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(output, "pgsyntax") {
		t.Errorf("version output should contain 'pgsyntax', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := execute(t, "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	expectedCommands := []string{"parse", "tokens", "check", "watch", "repl", "lsp", "completion"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestParseCommand(t *testing.T) {
	output, err := execute(t, "parse", "-e", "SELECT a FROM t;", "-o", "sexp")
	if err != nil {
		t.Fatalf("parse command error = %v", err)
	}
	if !strings.HasPrefix(output, "(program") {
		t.Errorf("sexp output should start with '(program', got: %s", output)
	}
	if !strings.Contains(output, "table_reference") {
		t.Errorf("sexp output should contain the table reference, got: %s", output)
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ok.sql"), "CREATE TABLE t (id int);\n")

	output, err := execute(t, "check", dir, "-o", "text")
	if err != nil {
		t.Fatalf("check command error = %v\n%s", err, output)
	}
	if !strings.Contains(output, "no syntax errors") {
		t.Errorf("check output should report success, got: %s", output)
	}

	writeFile(t, filepath.Join(dir, "nested", "bad.sql"), "SELEC 1;\n")
	output, err = execute(t, "check", dir, "-o", "text")
	if !errors.Is(err, commands.ErrSyntaxErrors) {
		t.Fatalf("check command error = %v, want ErrSyntaxErrors", err)
	}
	if !strings.Contains(output, "bad.sql:1:1") {
		t.Errorf("check output should locate the error, got: %s", output)
	}
}

func TestInvalidOutputMode(t *testing.T) {
	_, err := execute(t, "parse", "-e", "SELECT 1", "-o", "xml")
	if err == nil {
		t.Error("expected an error for an unknown output mode")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
