package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"ingestbot/internal/domain"
)

// RecordTools returns the six CRUD/search capabilities scoped to one
// extraction source ("email" or "json"). The email and json agents each bind
// exactly this set.
func RecordTools(store domain.RecordStore, source string) []domain.Tool {
	return []domain.Tool{
		&AddRecordTool{store: store, source: source},
		&GetRecordTool{store: store, source: source},
		&UpdateRecordTool{store: store, source: source},
		&DeleteRecordTool{store: store, source: source},
		&ListRecordsTool{store: store, source: source},
		&SearchRecordsTool{store: store, source: source},
	}
}

// --- add ---

// AddRecordTool persists a new extraction record under its source tag.
type AddRecordTool struct {
	store  domain.RecordStore
	source string
}

func (t *AddRecordTool) Name() string { return fmt.Sprintf("add_%s_record", t.source) }
func (t *AddRecordTool) Description() string {
	return fmt.Sprintf("Add a new %s record to shared memory. Returns the new record ID.", t.source)
}
func (t *AddRecordTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"type":      {Type: "string", Description: "The record type or intent (e.g. \"RFQ\", \"Complaint\")"},
			"data":      {Type: "string", Description: "Extracted values, serialized as a string"},
			"thread_id": {Type: "string", Description: "Optional conversation or thread ID"},
		},
		[]string{"type", "data"},
	)
}

func (t *AddRecordTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	id, err := t.store.Insert(ctx, domain.Record{
		Source:   t.source,
		Type:     ArgsString(args, "type"),
		Data:     ArgsString(args, "data"),
		ThreadID: ArgsString(args, "thread_id"),
	})
	if err != nil {
		return "", fmt.Errorf("add %s record: %w", t.source, err)
	}
	return fmt.Sprintf("Added %s record with ID: %d", t.source, id), nil
}

// --- get ---

type GetRecordTool struct {
	store  domain.RecordStore
	source string
}

func (t *GetRecordTool) Name() string { return fmt.Sprintf("get_%s_record", t.source) }
func (t *GetRecordTool) Description() string {
	return fmt.Sprintf("Retrieve a %s record by its ID.", t.source)
}
func (t *GetRecordTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"entry_id": {Type: "integer", Description: "Record ID to fetch"},
		},
		[]string{"entry_id"},
	)
}

func (t *GetRecordTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	id, ok := ArgsInt64(args, "entry_id")
	if !ok {
		return "", fmt.Errorf("missing or invalid 'entry_id' argument")
	}
	rec, err := t.store.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get %s record: %w", t.source, err)
	}
	if rec == nil {
		return "{}", nil
	}
	return marshalJSON(rec)
}

// --- update ---

type UpdateRecordTool struct {
	store  domain.RecordStore
	source string
}

func (t *UpdateRecordTool) Name() string { return fmt.Sprintf("update_%s_record", t.source) }
func (t *UpdateRecordTool) Description() string {
	return fmt.Sprintf("Update the data and/or thread ID of an existing %s record.", t.source)
}
func (t *UpdateRecordTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"entry_id":  {Type: "integer", Description: "ID of the record to update"},
			"data":      {Type: "string", Description: "New extracted values to store"},
			"thread_id": {Type: "string", Description: "Optional new thread ID"},
		},
		[]string{"entry_id"},
	)
}

func (t *UpdateRecordTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	id, ok := ArgsInt64(args, "entry_id")
	if !ok {
		return "", fmt.Errorf("missing or invalid 'entry_id' argument")
	}
	var data, threadID *string
	if _, present := args["data"]; present {
		v := ArgsString(args, "data")
		data = &v
	}
	if _, present := args["thread_id"]; present {
		v := ArgsString(args, "thread_id")
		threadID = &v
	}
	updated, err := t.store.Update(ctx, id, data, threadID)
	if err != nil {
		return "", fmt.Errorf("update %s record: %w", t.source, err)
	}
	if !updated {
		return fmt.Sprintf("Record %d not found", id), nil
	}
	return fmt.Sprintf("Updated record %d", id), nil
}

// --- delete ---

type DeleteRecordTool struct {
	store  domain.RecordStore
	source string
}

func (t *DeleteRecordTool) Name() string { return fmt.Sprintf("delete_%s_record", t.source) }
func (t *DeleteRecordTool) Description() string {
	return fmt.Sprintf("Delete a %s record by its ID.", t.source)
}
func (t *DeleteRecordTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"entry_id": {Type: "integer", Description: "Record ID to delete"},
		},
		[]string{"entry_id"},
	)
}

func (t *DeleteRecordTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	id, ok := ArgsInt64(args, "entry_id")
	if !ok {
		return "", fmt.Errorf("missing or invalid 'entry_id' argument")
	}
	deleted, err := t.store.Delete(ctx, id)
	if err != nil {
		return "", fmt.Errorf("delete %s record: %w", t.source, err)
	}
	if !deleted {
		return fmt.Sprintf("Record %d not found", id), nil
	}
	return fmt.Sprintf("Deleted record %d", id), nil
}

// --- list ---

// ListRecordsTool lists records with conjunctive filters. When source is set
// on the tool it is the default filter; the model may still narrow by type or
// thread. The classifier variant (NewListRecordsTool with empty source, name
// "list_records") lists across all sources.
type ListRecordsTool struct {
	store  domain.RecordStore
	source string
}

func NewListRecordsTool(store domain.RecordStore) *ListRecordsTool {
	return &ListRecordsTool{store: store}
}

func (t *ListRecordsTool) Name() string {
	if t.source == "" {
		return "list_records"
	}
	return fmt.Sprintf("list_%s_records", t.source)
}

func (t *ListRecordsTool) Description() string {
	if t.source == "" {
		return "List stored records with optional source, type and thread_id filters, newest first."
	}
	return fmt.Sprintf("List %s records with optional type and thread_id filters, newest first.", t.source)
}

func (t *ListRecordsTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"source":    {Type: "string", Description: "Source filter: classifier, json or email"},
			"type":      {Type: "string", Description: "Filter by record type"},
			"thread_id": {Type: "string", Description: "Filter by thread ID"},
			"limit":     {Type: "integer", Description: "Max number of records to return (default 50)"},
		},
		nil,
	)
}

func (t *ListRecordsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	f := domain.RecordFilter{
		Source:   ArgsString(args, "source"),
		Type:     ArgsString(args, "type"),
		ThreadID: ArgsString(args, "thread_id"),
		Limit:    50,
	}
	if f.Source == "" {
		f.Source = t.source
	}
	if n, ok := ArgsInt64(args, "limit"); ok && n > 0 {
		f.Limit = int(n)
	}
	recs, err := t.store.List(ctx, f)
	if err != nil {
		return "", fmt.Errorf("list records: %w", err)
	}
	if recs == nil {
		recs = []domain.Record{}
	}
	return marshalJSON(recs)
}

// --- search ---

type SearchRecordsTool struct {
	store  domain.RecordStore
	source string
}

func (t *SearchRecordsTool) Name() string { return fmt.Sprintf("search_%s_records", t.source) }
func (t *SearchRecordsTool) Description() string {
	return fmt.Sprintf("Search %s records for a query string inside the extracted data fields.", t.source)
}
func (t *SearchRecordsTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"query": {Type: "string", Description: "String to search for inside extracted data"},
			"limit": {Type: "integer", Description: "Max records to return (default 20)"},
		},
		[]string{"query"},
	)
}

func (t *SearchRecordsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	limit := 20
	if n, ok := ArgsInt64(args, "limit"); ok && n > 0 {
		limit = int(n)
	}
	recs, err := t.store.Search(ctx, ArgsString(args, "query"), t.source, limit)
	if err != nil {
		return "", fmt.Errorf("search %s records: %w", t.source, err)
	}
	if recs == nil {
		recs = []domain.Record{}
	}
	return marshalJSON(recs)
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(b), nil
}

var (
	_ domain.Tool = (*AddRecordTool)(nil)
	_ domain.Tool = (*GetRecordTool)(nil)
	_ domain.Tool = (*UpdateRecordTool)(nil)
	_ domain.Tool = (*DeleteRecordTool)(nil)
	_ domain.Tool = (*ListRecordsTool)(nil)
	_ domain.Tool = (*SearchRecordsTool)(nil)
)
