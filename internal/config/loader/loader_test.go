package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

// memFS is an in-memory file system for testing.
type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(data), nil
}

const tomlConfig = `
[history]
limit = 500

[persist]
flush_interval = "2s"

[scripts]
files = ["a.lua", "b.lua"]
`

const yamlConfig = `
history:
  limit: 500
persist:
  flush_interval: 2s
scripts:
  files: [a.lua, b.lua]
`

func TestFileLoaders(t *testing.T) {
	memfs := memFS{"/humane.toml": tomlConfig, "/humane.yaml": yamlConfig}

	tests := []struct {
		path      string
		wantLimit any
	}{
		{"/humane.toml", int64(500)},
		{"/humane.yaml", 500},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			l, err := ForPath(memfs, tt.path)
			if err != nil {
				t.Fatal(err)
			}
			config, err := l.Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if got, _ := Lookup(config, "history.limit"); got != tt.wantLimit {
				t.Errorf("history.limit = %v (%T), want %v", got, got, tt.wantLimit)
			}
			if got, _ := Lookup(config, "persist.flush_interval"); got != "2s" {
				t.Errorf("persist.flush_interval = %v, want 2s", got)
			}
			files, _ := Lookup(config, "scripts.files")
			if list, ok := files.([]any); !ok || len(list) != 2 || list[1] != "b.lua" {
				t.Errorf("scripts.files = %v", files)
			}
		})
	}
}

func TestForPathUnsupported(t *testing.T) {
	if _, err := ForPath(memFS{}, "/humane.ini"); err == nil {
		t.Error("expected error for .ini")
	}
	if _, err := ForPath(memFS{}, "/HUMANE.YML"); err != nil {
		t.Errorf("ForPath(.YML): %v", err)
	}
}

func TestLoadNonExistent(t *testing.T) {
	for _, path := range []string{"/missing.toml", "/missing.yaml"} {
		l, _ := ForPath(memFS{}, path)
		config, err := l.Load()
		if err != nil {
			t.Errorf("%s: expected no error, got %v", path, err)
		}
		if config != nil {
			t.Errorf("%s: expected nil config", path)
		}
	}
}

func TestLoadInvalid(t *testing.T) {
	memfs := memFS{
		"/bad.toml": "[history\nlimit = 4\n",
		"/bad.yaml": "history: [1, 2\n",
	}
	for path := range memfs {
		t.Run(path, func(t *testing.T) {
			l, _ := ForPath(memfs, path)
			_, err := l.Load()
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T (%v)", err, err)
			}
			if pe.Path != path {
				t.Errorf("Path = %q, want %q", pe.Path, path)
			}
		})
	}

	_, err := NewTOMLLoaderWithFS(memfs, "/bad.toml").Load()
	var pe *ParseError
	if errors.As(err, &pe) && pe.Line == 0 {
		t.Errorf("TOML parse error has no line: %v", pe)
	}
}

func TestLoadFromReader(t *testing.T) {
	config, err := (&TOMLLoader{}).LoadFromReader(strings.NewReader(`font = "Helvetica"`))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	if config["font"] != "Helvetica" {
		t.Errorf("font = %v", config["font"])
	}

	config, err = (&YAMLLoader{}).LoadFromReader(strings.NewReader(""))
	if err != nil || config == nil || len(config) != 0 {
		t.Errorf("empty YAML = %v, %v; want empty map", config, err)
	}
}

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name     string
		dst      map[string]any
		src      map[string]any
		expected map[string]any
	}{
		{
			name:     "nil dst",
			src:      map[string]any{"a": 1},
			expected: map[string]any{"a": 1},
		},
		{
			name:     "nil src",
			dst:      map[string]any{"a": 1},
			expected: map[string]any{"a": 1},
		},
		{
			name:     "src overrides dst",
			dst:      map[string]any{"a": 1},
			src:      map[string]any{"a": 2},
			expected: map[string]any{"a": 2},
		},
		{
			name:     "nested merge",
			dst:      map[string]any{"history": map[string]any{"limit": 4}},
			src:      map[string]any{"history": map[string]any{"anchor": true}},
			expected: map[string]any{"history": map[string]any{"limit": 4, "anchor": true}},
		},
		{
			name:     "scalar replaces map",
			dst:      map[string]any{"style": map[string]any{"font": "x"}},
			src:      map[string]any{"style": "plain"},
			expected: map[string]any{"style": "plain"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeepMerge(tt.dst, tt.src); !mapsEqual(got, tt.expected) {
				t.Errorf("DeepMerge() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestClone(t *testing.T) {
	original := map[string]any{
		"string": "value",
		"nested": map[string]any{"deep": "data"},
		"array":  []any{"a", map[string]any{"k": "v"}},
	}
	cloned := Clone(original)

	original["string"] = "changed"
	original["nested"].(map[string]any)["deep"] = "modified"
	original["array"].([]any)[1].(map[string]any)["k"] = "x"

	if cloned["string"] != "value" {
		t.Error("clone was affected by original modification")
	}
	if cloned["nested"].(map[string]any)["deep"] != "data" {
		t.Error("nested clone was affected by original modification")
	}
	if cloned["array"].([]any)[1].(map[string]any)["k"] != "v" {
		t.Error("array clone was affected by original modification")
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) should return nil")
	}
}

func mapsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok {
			return false
		}
		if ma, isMap := va.(map[string]any); isMap {
			mb, ok := vb.(map[string]any)
			if !ok || !mapsEqual(ma, mb) {
				return false
			}
			continue
		}
		if va != vb {
			return false
		}
	}
	return true
}
