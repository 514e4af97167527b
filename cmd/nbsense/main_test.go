package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/dshills/nbsense/internal/config"
	"github.com/dshills/nbsense/internal/intellisense"
	"github.com/dshills/nbsense/internal/logging"
)

const testNotebook = `{
 "metadata": {"kernelspec": {"name": "ifsharp"}},
 "nbformat": 4,
 "cells": [
  {"cell_type": "code", "source": ["let x = 1\n", "let y = 2"]},
  {"cell_type": "markdown", "source": "# notes"},
  {"cell_type": "code", "id": "c2", "source": "x."}
 ]
}`

func writeNotebook(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.ipynb")
	if err := os.WriteFile(path, []byte(testNotebook), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAnnotateCommand(t *testing.T) {
	path := writeNotebook(t)

	out, err := execute(t, "annotate", path)
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if !strings.Contains(out, "updated") {
		t.Errorf("output: got %q, want updated", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := gjson.GetBytes(data, "metadata.language").String(); got != "fsharp" {
		t.Errorf("metadata.language: got %q, want fsharp", got)
	}

	out, err = execute(t, "annotate", path)
	if err != nil {
		t.Fatalf("second annotate: %v", err)
	}
	if !strings.Contains(out, "unchanged") {
		t.Errorf("second output: got %q, want unchanged", out)
	}
}

func TestAnnotateCommand_MissingFile(t *testing.T) {
	if _, err := execute(t, "annotate", filepath.Join(t.TempDir(), "none.ipynb")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTriggersCommand(t *testing.T) {
	out, err := execute(t, "triggers")
	if err != nil {
		t.Fatalf("triggers: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(intellisense.DefaultTriggers()) {
		t.Errorf("lines: got %d, want %d\n%s", len(lines), len(intellisense.DefaultTriggers()), out)
	}
}

func TestClassifyCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"period", []string{"classify", "--shift=false", "190", "List"}, "declaration: request"},
		{"slash outside directive", []string{"classify", "--shift=false", "191", "let a = b"}, "declaration: skipped"},
		{"slash in directive", []string{"classify", "--shift=false", "191", `#r "lib`}, "declaration: request"},
		{"methods", []string{"classify", "--shift", "57", "f"}, "methods: no request"},
		{"unbound", []string{"classify", "--shift=false", "65", "x"}, "no trigger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("classify: %v", err)
			}
			if strings.TrimSpace(out) != tt.want {
				t.Errorf("output: got %q, want %q", strings.TrimSpace(out), tt.want)
			}
		})
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		args    []string
		want    intellisense.KeyEvent
		wantErr bool
	}{
		{[]string{"190"}, intellisense.KeyEvent{KeyCode: 190, Type: intellisense.KeyUp}, false},
		{[]string{"32", "ctrl", "down"}, intellisense.KeyEvent{KeyCode: 32, Modifiers: intellisense.ModCtrl, Type: intellisense.KeyDown}, false},
		{[]string{"57", "Shift"}, intellisense.KeyEvent{KeyCode: 57, Modifiers: intellisense.ModShift, Type: intellisense.KeyUp}, false},
		{[]string{}, intellisense.KeyEvent{}, true},
		{[]string{"x"}, intellisense.KeyEvent{}, true},
		{[]string{"1", "hyper"}, intellisense.KeyEvent{}, true},
	}

	for _, tt := range tests {
		got, err := parseKey(tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseKey(%v) error: got %v, wantErr %v", tt.args, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseKey(%v): got %+v, want %+v", tt.args, got, tt.want)
		}
	}
}

func TestSession(t *testing.T) {
	var out bytes.Buffer
	m := &printMessenger{out: &out, session: "s", username: "u"}

	s, err := newSession(config.Default(), writeNotebook(t), m, nil, &out, logging.Nop())
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	defer s.close()

	ctx := context.Background()
	if err := s.start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if lang, _ := s.doc.Metadata().Language(); lang != "fsharp" {
		t.Errorf("language: got %q", lang)
	}
	if src, _ := s.chrome.ImageSource(config.DefaultLogoSelector); src != config.DefaultLogoURL {
		t.Errorf("logo: got %q", src)
	}

	script := []struct {
		line string
		want string
	}{
		{"key 190", "error: no cell selected"},
		{"select c2", ""},
		{"cursor 0 2", ""},
		{"key 190", `"msg_type":"intellisense_request"`},
		{"key 65", "no trigger"},
		{"key 32 ctrl down", "fired (default prevented)"},
		{"key 57 shift", "fired"},
		{"add c9 List.", ""},
		{"select c9", ""},
		{"key 190", `\"selectedIndex\":2`},
		{"delete c9", ""},
		{"show", "[1] c2"},
		{"bogus", `error: unknown command "bogus"`},
	}

	for _, step := range script {
		out.Reset()
		quit, err := s.exec(ctx, step.line)
		if err != nil {
			out.WriteString("error: " + err.Error())
		}
		if quit {
			t.Fatalf("%q: unexpected quit", step.line)
		}
		if step.want != "" && !strings.Contains(out.String(), step.want) {
			t.Errorf("%q: output %q does not contain %q", step.line, out.String(), step.want)
		}
	}

	if quit, _ := s.exec(ctx, "quit"); !quit {
		t.Error("quit: got false")
	}
}

func TestSessionRun(t *testing.T) {
	var out bytes.Buffer
	m := &printMessenger{out: &out, session: "s", username: "u"}

	s, err := newSession(config.Default(), writeNotebook(t), m, nil, &out, logging.Nop())
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	defer s.close()
	if err := s.start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	in := strings.NewReader("select nope\nselect c2\nquit\nselect cell-0\n")
	if err := s.run(context.Background(), in); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), `error: no cell "nope"`) {
		t.Errorf("output: got %q", out.String())
	}
	if s.selected != "c2" {
		t.Errorf("selected: got %q, want c2 (commands after quit must not run)", s.selected)
	}
}
