package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"ingestbot/internal/domain"
)

// Runtime executes tool calls requested by assistant messages against an
// agent's bound capability set. It is stateless: side effects belong to the
// invoked capability.
type Runtime struct {
	logger *slog.Logger
}

func NewRuntime(logger *slog.Logger) *Runtime {
	return &Runtime{logger: logger}
}

// Run executes one tool call and returns the tool message answering it. A
// name missing from the capability set is a configuration error; it is
// reported as an error payload on the result, never as a crash, so routing
// can branch on it.
func (rt *Runtime) Run(ctx context.Context, call domain.ToolCall, available map[string]domain.Tool) domain.Message {
	msg := domain.Message{
		Role:       domain.RoleTool,
		ToolCallID: call.ID,
		ToolName:   call.Name,
	}

	t, ok := available[call.Name]
	if !ok {
		rt.logger.Error("tool call names unavailable capability", "name", call.Name)
		msg.Content = errorPayload(fmt.Sprintf("unknown tool: %s", call.Name))
		return msg
	}

	rt.logger.Info("executing tool", "tool", call.Name)
	result, err := t.Execute(ctx, call.Arguments)
	if err != nil {
		rt.logger.Warn("tool failed", "tool", call.Name, "error", err)
		msg.Content = errorPayload(err.Error())
		return msg
	}

	msg.Content = result
	return msg
}

// RunAll answers every tool call on the given assistant message, in order.
// Each produced tool message is bound to the id of the call it answers.
func (rt *Runtime) RunAll(ctx context.Context, assistant domain.Message, available map[string]domain.Tool) []domain.Message {
	out := make([]domain.Message, 0, len(assistant.ToolCalls))
	for _, call := range assistant.ToolCalls {
		out = append(out, rt.Run(ctx, call, available))
	}
	return out
}

func errorPayload(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}
