package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func execRead(t *testing.T, workspace string, args map[string]any) ReadResult {
	t.Helper()
	rf := NewReadFileTool(workspace)
	out, err := rf.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var r ReadResult
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	return r
}

func TestReadFile_JSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sample.json", `{"a":1}`)

	r := execRead(t, dir, map[string]any{"filename": "sample.json"})
	if r.Error != "" {
		t.Fatalf("unexpected error: %q", r.Error)
	}
	if r.Content != `{"a":1}` {
		t.Fatalf("content mismatch: %q", r.Content)
	}
	if r.Format != "json" {
		t.Fatalf("expected format json, got %q", r.Format)
	}
}

func TestReadFile_MissingFileYieldsErrorShape(t *testing.T) {
	r := execRead(t, t.TempDir(), map[string]any{"filename": "ghost.txt"})
	if r.Error == "" {
		t.Fatal("expected error field for missing file")
	}
	if r.Content != "" || r.Format != "" {
		t.Fatalf("error payload must not carry content/format: %+v", r)
	}
}

func TestReadFile_NoExtensionIsUnknown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README", "hello")

	r := execRead(t, dir, map[string]any{"filename": "README"})
	if r.Error != "" {
		t.Fatalf("unexpected error: %q", r.Error)
	}
	if r.Format != "unknown" {
		t.Fatalf("expected unknown format, got %q", r.Format)
	}
}

func TestReadFile_UppercaseExtensionLowered(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "invoice.TXT", "dear sir")

	r := execRead(t, dir, map[string]any{"filename": "invoice.TXT"})
	if r.Format != "txt" {
		t.Fatalf("expected txt, got %q", r.Format)
	}
}

func TestReadFile_TraversalRejected(t *testing.T) {
	dir := t.TempDir()

	r := execRead(t, dir, map[string]any{"filename": "../outside.txt"})
	if r.Error == "" {
		t.Fatal("expected traversal outside the workspace to be rejected")
	}
}

func TestReadFile_MissingArgument(t *testing.T) {
	r := execRead(t, t.TempDir(), nil)
	if r.Error == "" {
		t.Fatal("expected error for missing filename argument")
	}
}

func TestParseReadResult(t *testing.T) {
	if _, ok := ParseReadResult("not json at all"); ok {
		t.Fatal("expected malformed content to be rejected")
	}
	r, ok := ParseReadResult(`{"content":"x","format":"txt"}`)
	if !ok || r.Format != "txt" {
		t.Fatalf("expected parsed result, got ok=%v %+v", ok, r)
	}
}
