package tool

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"ingestbot/internal/domain"
)

// stubTool is a minimal tool for testing the registry and runtime.
type stubTool struct {
	name   string
	result string
	err    error
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub: " + s.name }
func (s *stubTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}
func (s *stubTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return s.result, s.err
}

var _ domain.Tool = (*stubTool)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(&stubTool{name: "test_tool", result: "ok"})

	got := reg.Get("test_tool")
	if got == nil {
		t.Fatal("expected to find registered tool")
	}
	if got.Name() != "test_tool" {
		t.Fatalf("expected 'test_tool', got %q", got.Name())
	}
	if reg.Get("nonexistent") != nil {
		t.Fatal("expected nil for unknown tool")
	}
}

func TestRegistry_Subset(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(&stubTool{name: "alpha"})
	reg.Register(&stubTool{name: "beta"})
	reg.Register(&stubTool{name: "gamma"})

	set := reg.Subset("alpha", "gamma", "missing")
	if len(set) != 2 {
		t.Fatalf("expected 2 tools in subset, got %d", len(set))
	}
	if _, ok := set["beta"]; ok {
		t.Fatal("beta should not be in subset")
	}
	if _, ok := set["missing"]; ok {
		t.Fatal("unknown names must be skipped, not stubbed")
	}
}

func TestRegistry_All(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(&stubTool{name: "a"})
	reg.Register(&stubTool{name: "b"})

	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(all))
	}

	// Mutating the returned set must not affect the registry.
	delete(all, "a")
	if reg.Get("a") == nil {
		t.Fatal("All() must return a copy")
	}
}

func TestRegistry_NamesSorted(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(&stubTool{name: "zeta"})
	reg.Register(&stubTool{name: "alpha"})

	names := reg.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Fatalf("expected sorted names, got %v", names)
	}
}

func TestDefinitions_StableOrder(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(&stubTool{name: "b_tool"})
	reg.Register(&stubTool{name: "a_tool"})

	defs := Definitions(reg.All())
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Name != "a_tool" || defs[1].Name != "b_tool" {
		t.Fatalf("expected sorted definitions, got %v", defs)
	}
}

// --- ToolParameters ---

func TestToolParameters_WithRequired(t *testing.T) {
	params := ToolParameters(
		map[string]Param{
			"name": {Type: "string", Description: "The name"},
			"age":  {Type: "integer", Description: "The age in years"},
		},
		[]string{"name"},
	)

	if params["type"] != "object" {
		t.Fatal("expected type=object")
	}
	props := params["properties"].(map[string]any)
	if len(props) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(props))
	}
	required := params["required"].([]string)
	if len(required) != 1 || required[0] != "name" {
		t.Fatalf("unexpected required: %v", required)
	}
}

func TestToolParameters_NoRequired(t *testing.T) {
	params := ToolParameters(
		map[string]Param{
			"query": {Type: "string", Description: "Search query"},
		},
		nil,
	)
	if _, ok := params["required"]; ok {
		t.Fatal("should not have 'required' key when nil")
	}
}

// --- argument helpers ---

func TestArgsString(t *testing.T) {
	if got := ArgsString(map[string]any{"key": "value"}, "key"); got != "value" {
		t.Fatalf("expected 'value', got %q", got)
	}
	if got := ArgsString(map[string]any{"other": "x"}, "key"); got != "" {
		t.Fatalf("expected empty for missing key, got %q", got)
	}
	if got := ArgsString(nil, "key"); got != "" {
		t.Fatalf("expected empty for nil args, got %q", got)
	}
	if got := ArgsString(map[string]any{"num": 42.0}, "num"); got == "" {
		t.Fatal("expected non-empty for numeric value")
	}
}

func TestArgsInt64(t *testing.T) {
	cases := []struct {
		name string
		args map[string]any
		want int64
		ok   bool
	}{
		{"float64", map[string]any{"id": 7.0}, 7, true},
		{"int", map[string]any{"id": 7}, 7, true},
		{"string", map[string]any{"id": "12"}, 12, true},
		{"bad string", map[string]any{"id": "twelve"}, 0, false},
		{"missing", map[string]any{}, 0, false},
		{"nil args", nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := ArgsInt64(tc.args, "id")
		if got != tc.want || ok != tc.ok {
			t.Fatalf("%s: expected (%d, %v), got (%d, %v)", tc.name, tc.want, tc.ok, got, ok)
		}
	}
}
