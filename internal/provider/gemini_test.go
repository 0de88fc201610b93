package provider

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestToGenaiSchema(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"filename": map[string]any{"type": "string", "description": "The file to read"},
			"entry_id": map[string]any{"type": "integer", "description": "Record id"},
			"tags":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"filename"},
	}

	schema := toGenaiSchema(params)
	if schema.Type != genai.TypeObject {
		t.Fatalf("expected object type, got %v", schema.Type)
	}
	if len(schema.Properties) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(schema.Properties))
	}
	if schema.Properties["filename"].Type != genai.TypeString {
		t.Fatalf("filename should be string, got %v", schema.Properties["filename"].Type)
	}
	if schema.Properties["filename"].Description != "The file to read" {
		t.Fatalf("description lost: %q", schema.Properties["filename"].Description)
	}
	if schema.Properties["entry_id"].Type != genai.TypeInteger {
		t.Fatalf("entry_id should be integer, got %v", schema.Properties["entry_id"].Type)
	}
	if schema.Properties["tags"].Items == nil || schema.Properties["tags"].Items.Type != genai.TypeString {
		t.Fatal("array items schema not converted")
	}
	if len(schema.Required) != 1 || schema.Required[0] != "filename" {
		t.Fatalf("required not carried over: %v", schema.Required)
	}
}

func TestToGenaiSchema_RequiredFromAnySlice(t *testing.T) {
	schema := toGenaiSchema(map[string]any{
		"type":     "object",
		"required": []any{"a", "b"},
	})
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %v", schema.Required)
	}
}

func TestToGenaiSchema_Nil(t *testing.T) {
	if toGenaiSchema(nil) != nil {
		t.Fatal("nil params must yield nil schema")
	}
}

func TestSchemaType_UnknownIsUnspecified(t *testing.T) {
	if got := schemaType("mystery"); got != genai.TypeUnspecified {
		t.Fatalf("expected unspecified, got %v", got)
	}
	if got := schemaType(nil); got != genai.TypeUnspecified {
		t.Fatalf("expected unspecified for non-string, got %v", got)
	}
}

func TestToResponseMap(t *testing.T) {
	m := toResponseMap(`{"id": 7, "status": "ok"}`)
	if m["status"] != "ok" {
		t.Fatalf("object payload should pass through, got %v", m)
	}

	m = toResponseMap("Added email record with ID: 3")
	if m["result"] != "Added email record with ID: 3" {
		t.Fatalf("plain text should be wrapped, got %v", m)
	}

	m = toResponseMap("[1, 2]")
	if m["result"] != "[1, 2]" {
		t.Fatalf("non-object JSON should be wrapped, got %v", m)
	}
}
