package domain

import "context"

// Record sources identify which extraction pipeline produced a record.
const (
	SourceClassifier = "classifier"
	SourceEmail      = "email"
	SourceJSON       = "json"
)

// Record is a persisted extraction result. ID is assigned by the store on
// insert and never changes; Timestamp is set exactly once. Data holds the
// payload in its source's native string form and is not schema-validated.
type Record struct {
	ID        int64  `json:"id"`
	Source    string `json:"source"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Data      string `json:"data"`
	ThreadID  string `json:"thread_id,omitempty"`
}

// RecordFilter narrows List results. Empty fields are unconstrained;
// set fields combine conjunctively.
type RecordFilter struct {
	Source   string
	Type     string
	ThreadID string
	Limit    int
}

// RecordStore handles persistent storage of extraction records. All
// operations are serialized by the implementation; no two calls interleave.
type RecordStore interface {
	Insert(ctx context.Context, rec Record) (int64, error)
	GetByID(ctx context.Context, id int64) (*Record, error)
	Update(ctx context.Context, id int64, data, threadID *string) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, f RecordFilter) ([]Record, error)
	Search(ctx context.Context, query, source string, limit int) ([]Record, error)

	Close() error
}
