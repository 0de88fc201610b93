package agent

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"ingestbot/internal/domain"
)

// extractToolCalls recovers tool calls a model embedded as JSON in its
// content text instead of the structured tool_calls field. Handles pure
// JSON, code-fenced JSON, and JSON surrounded by prose.
func extractToolCalls(content string) []domain.ToolCall {
	content = strings.TrimSpace(content)

	// Strip a markdown code fence if present.
	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) >= 3 && strings.HasPrefix(lines[len(lines)-1], "```") {
			content = strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
		}
	}

	if calls := tryParseToolJSON(content); len(calls) > 0 {
		return calls
	}

	// Locate a JSON object or array inside surrounding text.
	if start, end := findJSONBounds(content); start >= 0 && end > start {
		if calls := tryParseToolJSON(content[start:end]); len(calls) > 0 {
			return calls
		}
	}

	return nil
}

// findJSONBounds locates the first top-level JSON object ({}) or array ([])
// in s, respecting string literals. Returns (-1, -1) when none is found.
func findJSONBounds(s string) (int, int) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return -1, -1
	}

	openChar := s[start]
	closeChar := byte('}')
	if openChar == '[' {
		closeChar = ']'
	}

	depth := 0
	inStr := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inStr {
			if ch == '\\' {
				i++
				continue
			}
			if ch == '"' {
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case openChar:
			depth++
		case closeChar:
			depth--
			if depth == 0 {
				return start, i + 1
			}
		}
	}
	return -1, -1
}

type embeddedCall struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
	Arguments  map[string]any `json:"arguments"`
}

func (c embeddedCall) toToolCall() domain.ToolCall {
	args := c.Arguments
	if args == nil {
		args = c.Parameters
	}
	if args == nil {
		args = make(map[string]any)
	}
	return domain.ToolCall{ID: uuid.NewString(), Name: c.Name, Arguments: args}
}

// tryParseToolJSON attempts to parse raw as one tool call object or an array
// of them.
func tryParseToolJSON(raw string) []domain.ToolCall {
	var single embeddedCall
	if err := json.Unmarshal([]byte(raw), &single); err == nil && single.Name != "" {
		return []domain.ToolCall{single.toToolCall()}
	}

	var multi []embeddedCall
	if err := json.Unmarshal([]byte(raw), &multi); err != nil {
		return nil
	}
	var calls []domain.ToolCall
	for _, c := range multi {
		if c.Name == "" {
			continue
		}
		calls = append(calls, c.toToolCall())
	}
	return calls
}
