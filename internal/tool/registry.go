package tool

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"ingestbot/internal/domain"
)

// Registry holds named capabilities. Each agent binds a subset of the
// registry at construction time; the runtime dispatches against that subset.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]domain.Tool
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]domain.Tool),
		logger: logger,
	}
}

func (r *Registry) Register(t domain.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
	r.logger.Debug("registered tool", "name", t.Name())
}

func (r *Registry) Get(name string) domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Subset returns the named tools as a capability set. Unknown names are
// skipped; the caller's agent simply does not get that capability.
func (r *Registry) Subset(names ...string) map[string]domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[string]domain.Tool, len(names))
	for _, n := range names {
		if t, ok := r.tools[n]; ok {
			set[n] = t
		} else {
			r.logger.Warn("capability not registered", "name", n)
		}
	}
	return set
}

// All returns every registered tool as a capability set.
func (r *Registry) All() map[string]domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[string]domain.Tool, len(r.tools))
	for n, t := range r.tools {
		set[n] = t
	}
	return set
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Definitions returns tool definitions for the given capability set, sorted
// by name so the provider sees a stable order.
func Definitions(set map[string]domain.Tool) []domain.ToolDefinition {
	defs := make([]domain.ToolDefinition, 0, len(set))
	for _, t := range set {
		defs = append(defs, domain.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Param describes a single tool parameter.
type Param struct {
	Type        string
	Description string
}

// ToolParameters builds a JSON Schema "parameters" object for a tool.
func ToolParameters(properties map[string]Param, required []string) map[string]any {
	props := make(map[string]any)
	for name, p := range properties {
		props[name] = map[string]any{"type": p.Type, "description": p.Description}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ArgsString extracts a string argument, marshalling non-string values.
func ArgsString(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// ArgsInt64 extracts an integer argument. JSON decoding yields float64; model
// providers occasionally deliver numbers as strings, so both are accepted.
func ArgsInt64(args map[string]any, key string) (int64, bool) {
	if args == nil {
		return 0, false
	}
	switch v := args[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
