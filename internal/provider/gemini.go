package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"ingestbot/internal/domain"
)

// Gemini implements domain.Provider on the Google Generative AI SDK with
// native function calling. The SDK does not assign tool-call ids, so ids are
// minted here; tool results are matched back by function name when replaying
// history.
type Gemini struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

type GeminiConfig struct {
	APIKey string
	Model  string
	Logger *slog.Logger
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key not configured")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model, logger: cfg.Logger}, nil
}

func (g *Gemini) Name() string              { return "gemini" }
func (g *Gemini) Models() []string          { return []string{"gemini-2.0-flash", "gemini-1.5-pro", "gemini-1.5-flash"} }
func (g *Gemini) SupportsToolCalling() bool { return true }

func (g *Gemini) Healthy(ctx context.Context) error {
	// Cheapest round trip the SDK offers: token counting on a tiny prompt.
	model := g.client.GenerativeModel(g.model)
	if _, err := model.CountTokens(ctx, genai.Text("ping")); err != nil {
		return fmt.Errorf("gemini not reachable: %w", err)
	}
	return nil
}

func (g *Gemini) Close() error { return g.client.Close() }

func (g *Gemini) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	name := req.Model
	if name == "" {
		name = g.model
	}
	model := g.client.GenerativeModel(name)
	if req.Temperature > 0 {
		model.SetTemperature(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGenaiSchema(t.Parameters),
			})
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	history, last, err := g.buildContents(req.Messages, model)
	if err != nil {
		return nil, err
	}

	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, last...)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}

	out := &domain.ChatResponse{FinishReason: "stop"}
	if resp.UsageMetadata != nil {
		out.Usage = domain.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		g.logger.Warn("gemini returned no candidates")
		return out, nil
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			out.Content += string(p)
		case genai.FunctionCall:
			args := p.Args
			if args == nil {
				args = make(map[string]any)
			}
			out.ToolCalls = append(out.ToolCalls, domain.ToolCall{
				ID:        uuid.NewString(),
				Name:      p.Name,
				Arguments: args,
			})
		}
	}
	if out.HasToolCalls() {
		out.FinishReason = "tool_calls"
	}
	return out, nil
}

// buildContents maps pipeline messages onto genai chat contents. System
// messages become the model's system instruction; the final user-facing turn
// is returned separately because SendMessage supplies it.
func (g *Gemini) buildContents(messages []domain.Message, model *genai.GenerativeModel) ([]*genai.Content, []genai.Part, error) {
	// Track requested call ids so tool results can be replayed under the
	// function name Gemini expects.
	callNames := make(map[string]string)

	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(m.Content)}}
		case domain.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(m.Content)},
			})
		case domain.RoleAssistant:
			var parts []genai.Part
			if m.Content != "" {
				parts = append(parts, genai.Text(m.Content))
			}
			for _, tc := range m.ToolCalls {
				callNames[tc.ID] = tc.Name
				parts = append(parts, genai.FunctionCall{Name: tc.Name, Args: tc.Arguments})
			}
			if len(parts) == 0 {
				parts = append(parts, genai.Text(""))
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		case domain.RoleTool:
			fname := m.ToolName
			if fname == "" {
				fname = callNames[m.ToolCallID]
			}
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.FunctionResponse{Name: fname, Response: toResponseMap(m.Content)}},
			})
		default:
			return nil, nil, fmt.Errorf("gemini: unsupported message role %q", m.Role)
		}
	}

	if len(contents) == 0 {
		return nil, nil, fmt.Errorf("gemini: empty conversation")
	}

	last := contents[len(contents)-1]
	return contents[:len(contents)-1], last.Parts, nil
}

// toResponseMap shapes a tool result for FunctionResponse, which requires a
// JSON object.
func toResponseMap(content string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(content), &m); err == nil && m != nil {
		return m
	}
	return map[string]any{"result": content}
}

// toGenaiSchema converts a JSON Schema parameters object into the SDK's
// schema type. Only the subset the tool layer emits is handled.
func toGenaiSchema(params map[string]any) *genai.Schema {
	if params == nil {
		return nil
	}
	schema := &genai.Schema{Type: schemaType(params["type"])}
	if desc, ok := params["description"].(string); ok {
		schema.Description = desc
	}
	if props, ok := params["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				schema.Properties[name] = toGenaiSchema(sub)
			}
		}
	}
	if items, ok := params["items"].(map[string]any); ok {
		schema.Items = toGenaiSchema(items)
	}
	switch req := params["required"].(type) {
	case []string:
		schema.Required = req
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	return schema
}

func schemaType(v any) genai.Type {
	s, _ := v.(string)
	switch s {
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

var _ domain.Provider = (*Gemini)(nil)
