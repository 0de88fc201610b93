package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ingestbot/internal/domain"
)

// ReadResult is the payload readfile emits. Exactly one of the two shapes is
// populated: {Content, Format} on success, {Error} on any failure. Routing
// downstream branches on the presence of Error.
type ReadResult struct {
	Content string `json:"content,omitempty"`
	Format  string `json:"format,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ReadFileTool reads a named file from the workspace and reports its content
// together with the declared format (lowercased extension). Failures are
// encoded in the payload, never raised, so a bad file name cannot abort a run.
type ReadFileTool struct {
	workspace string
}

func NewReadFileTool(workspace string) *ReadFileTool {
	return &ReadFileTool{workspace: workspace}
}

func (t *ReadFileTool) Name() string { return "readfile" }
func (t *ReadFileTool) Description() string {
	return "Read a file from the working directory and return its content with the file format as a JSON string."
}
func (t *ReadFileTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"filename": {Type: "string", Description: "Name of the file to read (with extension)"},
		},
		[]string{"filename"},
	)
}

func (t *ReadFileTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	filename := ArgsString(args, "filename")
	if filename == "" {
		return marshalReadResult(ReadResult{Error: "missing 'filename' argument"})
	}

	resolved, err := resolvePath(t.workspace, filename)
	if err != nil {
		return marshalReadResult(ReadResult{Error: err.Error()})
	}

	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return marshalReadResult(ReadResult{
			Error: fmt.Sprintf("File '%s' not found in current directory.", filename),
		})
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return marshalReadResult(ReadResult{Error: "can not read file"})
	}

	return marshalReadResult(ReadResult{
		Content: string(content),
		Format:  fileFormat(filename),
	})
}

// fileFormat returns the lowercased extension without the leading dot, or
// "unknown" when the name has no extension.
func fileFormat(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return "unknown"
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// resolvePath resolves a file name against the workspace and rejects
// traversal outside it.
func resolvePath(workspace, path string) (string, error) {
	path = strings.TrimSpace(path)
	if !filepath.IsAbs(path) && workspace != "" {
		path = filepath.Join(workspace, path)
	}
	resolved, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if workspace != "" {
		wsAbs, err := filepath.Abs(workspace)
		if err != nil {
			return "", fmt.Errorf("resolve workspace: %w", err)
		}
		if !strings.HasPrefix(resolved, wsAbs+string(filepath.Separator)) && resolved != wsAbs {
			return "", fmt.Errorf("path %q is outside the working directory", path)
		}
	}
	return resolved, nil
}

func marshalReadResult(r ReadResult) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseReadResult decodes a readfile payload. ok is false when the content
// is not the structured shape at all (malformed tool result).
func ParseReadResult(content string) (ReadResult, bool) {
	var r ReadResult
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return ReadResult{}, false
	}
	return r, true
}

var _ domain.Tool = (*ReadFileTool)(nil)
