package tool

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"ingestbot/internal/domain"
	"ingestbot/internal/store"
)

func recordStore(t *testing.T) domain.RecordStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "records.db"), testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func toolByName(t *testing.T, tools []domain.Tool, name string) domain.Tool {
	t.Helper()
	for _, tl := range tools {
		if tl.Name() == name {
			return tl
		}
	}
	t.Fatalf("tool %q not in set", name)
	return nil
}

func TestRecordTools_NamesAreSourceScoped(t *testing.T) {
	tools := RecordTools(recordStore(t), domain.SourceEmail)
	if len(tools) != 6 {
		t.Fatalf("expected 6 capabilities, got %d", len(tools))
	}
	expected := []string{
		"add_email_record", "get_email_record", "update_email_record",
		"delete_email_record", "list_email_records", "search_email_records",
	}
	for _, name := range expected {
		toolByName(t, tools, name)
	}
}

func TestAddAndGetRecordTools(t *testing.T) {
	s := recordStore(t)
	tools := RecordTools(s, domain.SourceEmail)
	ctx := context.Background()

	out, err := toolByName(t, tools, "add_email_record").Execute(ctx, map[string]any{
		"type":      "RFQ",
		"data":      `{"customer":"ACME"}`,
		"thread_id": "t-9",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Added email record with ID:") {
		t.Fatalf("unexpected confirmation: %q", out)
	}

	recs, err := s.List(ctx, domain.RecordFilter{Source: domain.SourceEmail, Limit: 10})
	if err != nil || len(recs) != 1 {
		t.Fatalf("expected 1 stored record, got %d (err %v)", len(recs), err)
	}
	id := recs[0].ID

	got, err := toolByName(t, tools, "get_email_record").Execute(ctx, map[string]any{"entry_id": float64(id)})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var rec domain.Record
	if err := json.Unmarshal([]byte(got), &rec); err != nil {
		t.Fatalf("get payload not a record: %v", err)
	}
	if rec.Source != domain.SourceEmail || rec.Type != "RFQ" || rec.ThreadID != "t-9" {
		t.Fatalf("record mismatch: %+v", rec)
	}
}

func TestGetRecordTool_AbsentIDYieldsEmptyObject(t *testing.T) {
	tools := RecordTools(recordStore(t), domain.SourceJSON)
	out, err := toolByName(t, tools, "get_json_record").Execute(context.Background(), map[string]any{"entry_id": 404.0})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != "{}" {
		t.Fatalf("expected empty object, got %q", out)
	}
}

func TestUpdateAndDeleteRecordTools(t *testing.T) {
	s := recordStore(t)
	tools := RecordTools(s, domain.SourceJSON)
	ctx := context.Background()

	id, err := s.Insert(ctx, domain.Record{Source: domain.SourceJSON, Type: "event", Data: "old"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	out, err := toolByName(t, tools, "update_json_record").Execute(ctx, map[string]any{
		"entry_id": float64(id),
		"data":     "new",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.Contains(out, "Updated record") {
		t.Fatalf("unexpected update message: %q", out)
	}
	rec, _ := s.GetByID(ctx, id)
	if rec.Data != "new" {
		t.Fatalf("data not updated: %q", rec.Data)
	}

	out, err = toolByName(t, tools, "delete_json_record").Execute(ctx, map[string]any{"entry_id": float64(id)})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "Deleted record") {
		t.Fatalf("unexpected delete message: %q", out)
	}

	out, _ = toolByName(t, tools, "delete_json_record").Execute(ctx, map[string]any{"entry_id": float64(id)})
	if !strings.Contains(out, "not found") {
		t.Fatalf("second delete should report not found, got %q", out)
	}
}

func TestListRecordsTool_SourceScopedDefault(t *testing.T) {
	s := recordStore(t)
	ctx := context.Background()
	_, _ = s.Insert(ctx, domain.Record{Source: domain.SourceEmail, Type: "RFQ", Data: "{}"})
	_, _ = s.Insert(ctx, domain.Record{Source: domain.SourceJSON, Type: "event", Data: "{}"})

	tools := RecordTools(s, domain.SourceEmail)
	out, err := toolByName(t, tools, "list_email_records").Execute(ctx, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var recs []domain.Record
	if err := json.Unmarshal([]byte(out), &recs); err != nil {
		t.Fatalf("list payload: %v", err)
	}
	if len(recs) != 1 || recs[0].Source != domain.SourceEmail {
		t.Fatalf("expected only email records, got %+v", recs)
	}
}

func TestListRecordsTool_ClassifierSeesAllSources(t *testing.T) {
	s := recordStore(t)
	ctx := context.Background()
	_, _ = s.Insert(ctx, domain.Record{Source: domain.SourceEmail, Type: "RFQ", Data: "{}"})
	_, _ = s.Insert(ctx, domain.Record{Source: domain.SourceJSON, Type: "event", Data: "{}"})

	lr := NewListRecordsTool(s)
	if lr.Name() != "list_records" {
		t.Fatalf("expected unscoped name, got %q", lr.Name())
	}
	out, err := lr.Execute(ctx, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var recs []domain.Record
	if err := json.Unmarshal([]byte(out), &recs); err != nil {
		t.Fatalf("list payload: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected records from all sources, got %d", len(recs))
	}
}

func TestSearchRecordsTool(t *testing.T) {
	s := recordStore(t)
	ctx := context.Background()
	_, _ = s.Insert(ctx, domain.Record{Source: domain.SourceEmail, Type: "RFQ", Data: `{"customer":"FooBar"}`})
	_, _ = s.Insert(ctx, domain.Record{Source: domain.SourceEmail, Type: "RFQ", Data: `{"customer":"Baz"}`})

	tools := RecordTools(s, domain.SourceEmail)
	out, err := toolByName(t, tools, "search_email_records").Execute(ctx, map[string]any{"query": "foo"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var recs []domain.Record
	if err := json.Unmarshal([]byte(out), &recs); err != nil {
		t.Fatalf("search payload: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 match, got %d", len(recs))
	}

	out, err = toolByName(t, tools, "search_email_records").Execute(ctx, map[string]any{"query": "nothing"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if out != "[]" {
		t.Fatalf("expected empty array for no matches, got %q", out)
	}
}
