package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func runHumane(t *testing.T, input string, args ...string) (string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	if code := run(args, strings.NewReader(input), &stdout, &stderr); code != 0 {
		t.Fatalf("run(%v) = %d, stderr:\n%s", args, code, stderr.String())
	}
	return stdout.String(), stderr.String()
}

func TestSaveAndReopen(t *testing.T) {
	dir := t.TempDir()

	out, _ := runHumane(t, "insert hello world\nselect 0 4\nbold\nsave\nshow\nquit\n", "-dir", dir, "-log-level", "error")
	if !strings.Contains(out, "[hello] world|") {
		t.Errorf("first session output:\n%s", out)
	}

	out, _ = runHumane(t, "show\n", "-dir", dir, "-log-level", "error")
	if !strings.Contains(out, "[hello] world|") {
		t.Errorf("reopened document:\n%s", out)
	}
}

func TestRecoverUnsavedChanges(t *testing.T) {
	dir := t.TempDir()

	runHumane(t, "insert abc\ninsert \"\\tdef\"\n", "-dir", dir, "-log-level", "error")
	out, _ := runHumane(t, "show\nundo\nshow\n", "-dir", dir, "-log-level", "error")

	want := []string{"abc[\tdef]|", "[abc]|"}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(want) {
		t.Fatalf("output:\n%s", out)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
}

func TestREPLErrors(t *testing.T) {
	dir := t.TempDir()
	out, _ := runHumane(t, "bogus\ncursor x\nselect 1\ninsert\nrun nothing\n", "-dir", dir, "-log-level", "error")

	for _, want := range []string{
		`unknown command "bogus"`,
		"usage: cursor N",
		"usage: select START END",
		"usage: insert TEXT",
		`"NOTHING"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRecording(t *testing.T) {
	dir := t.TempDir()
	out, _ := runHumane(t, "record\ninsert a\ninsert b\nstop\nundo\nshow\nredo\nshow\n", "-dir", dir, "-log-level", "error")

	if !strings.Contains(out, "recorded 2 commands") {
		t.Errorf("output:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if got := lines[len(lines)-2:]; got[0] != "|" || got[1] != "a[b]|" {
		t.Errorf("after undo and redo: %q", got)
	}
}

func TestSchema(t *testing.T) {
	out, _ := runHumane(t, "", "schema")

	var schema map[string]any
	if err := json.Unmarshal([]byte(out), &schema); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema has no properties: %v", schema)
	}
	for _, key := range []string{"version", "generation", "text", "history"} {
		if _, ok := props[key]; !ok {
			t.Errorf("schema missing %q", key)
		}
	}
}

func TestFlags(t *testing.T) {
	out, _ := runHumane(t, "", "-version")
	if !strings.HasPrefix(out, "humane dev") {
		t.Errorf("version output = %q", out)
	}

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-log-level", "loud"}, strings.NewReader(""), &stdout, &stderr); code != 2 {
		t.Errorf("bad log level exit = %d, want 2", code)
	}
}
