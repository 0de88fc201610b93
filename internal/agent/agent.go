package agent

import (
	"context"
	"fmt"
	"log/slog"

	"ingestbot/internal/domain"
)

// Default system prompts for the three pipeline agents. A config-provided
// agents.yaml profile may override any of them.
const (
	classifierPrompt = "You are a classification agent. The user names a file or asks about stored records. " +
		"Use the readfile tool to read a named file, or the list_records tool to inspect stored records. " +
		"If neither applies, answer directly."

	emailPrompt = "You are an email extraction agent. Given the raw text of an email, determine its type or " +
		"intent (e.g. RFQ, Complaint, Order) and extract the key values, then persist them with the record tools."

	jsonPrompt = "You are a JSON extraction agent. Given raw JSON content, determine its type or category and " +
		"extract the key values, then persist them with the record tools."

	// Directive injected by the extraction agents ahead of every decision so
	// storage is attempted even when the user gave no explicit instruction.
	storeDirective = "Please store the previously read data using the appropriate tool."
)

// Agent is a role-scoped decision point. Its capability set is bound at
// construction; Decide only ever offers those tools to the model. The
// returned assistant message either carries tool calls (the agent wants to
// act) or only content (done, or more input needed).
type Agent struct {
	name         string
	systemPrompt string
	directive    string
	model        string
	provider     domain.Provider
	capabilities []domain.ToolDefinition
	logger       *slog.Logger
}

type AgentConfig struct {
	Name         string
	SystemPrompt string
	Directive    string // optional synthetic user message injected before deciding
	Model        string // optional model override
	Provider     domain.Provider
	Capabilities []domain.ToolDefinition
	Logger       *slog.Logger
}

func New(cfg AgentConfig) *Agent {
	return &Agent{
		name:         cfg.Name,
		systemPrompt: cfg.SystemPrompt,
		directive:    cfg.Directive,
		model:        cfg.Model,
		provider:     cfg.Provider,
		capabilities: cfg.Capabilities,
		logger:       cfg.Logger,
	}
}

// NewClassifier builds the classification agent. caps must be the
// definitions for list_records and readfile.
func NewClassifier(provider domain.Provider, caps []domain.ToolDefinition, logger *slog.Logger) *Agent {
	return New(AgentConfig{
		Name:         "classifier",
		SystemPrompt: classifierPrompt,
		Provider:     provider,
		Capabilities: caps,
		Logger:       logger,
	})
}

// NewEmail builds the email extraction agent over the email-scoped record
// tool definitions.
func NewEmail(provider domain.Provider, caps []domain.ToolDefinition, logger *slog.Logger) *Agent {
	return New(AgentConfig{
		Name:         "email",
		SystemPrompt: emailPrompt,
		Directive:    storeDirective,
		Provider:     provider,
		Capabilities: caps,
		Logger:       logger,
	})
}

// NewJSON builds the json extraction agent over the json-scoped record tool
// definitions.
func NewJSON(provider domain.Provider, caps []domain.ToolDefinition, logger *slog.Logger) *Agent {
	return New(AgentConfig{
		Name:         "json",
		SystemPrompt: jsonPrompt,
		Directive:    storeDirective,
		Provider:     provider,
		Capabilities: caps,
		Logger:       logger,
	})
}

// WithProfile returns a copy of the agent with the model and/or system
// prompt overridden. Empty override fields keep the built-in values.
func (a *Agent) WithProfile(model, systemPrompt string) *Agent {
	b := *a
	if model != "" {
		b.model = model
	}
	if systemPrompt != "" {
		b.systemPrompt = systemPrompt
	}
	return &b
}

func (a *Agent) Name() string { return a.name }

// Directive returns the synthetic user message this agent wants appended to
// the conversation before it decides, or "" when it has none.
func (a *Agent) Directive() string { return a.directive }

// Capabilities returns the agent's statically bound tool definitions.
func (a *Agent) Capabilities() []domain.ToolDefinition { return a.capabilities }

// Decide inspects the conversation and produces one assistant message. The
// system prompt is prepended on every call; the history itself is never
// mutated here.
func (a *Agent) Decide(ctx context.Context, history []domain.Message) (domain.Message, error) {
	messages := make([]domain.Message, 0, len(history)+1)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: a.systemPrompt})
	messages = append(messages, history...)

	resp, err := a.provider.Chat(ctx, domain.ChatRequest{
		Messages: messages,
		Tools:    a.capabilities,
		Model:    a.model,
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("agent %s: %w", a.name, err)
	}

	// Some models embed the tool call as JSON in the content instead of the
	// structured field; recover it so routing still sees a tool request.
	if !resp.HasToolCalls() && resp.Content != "" {
		if extracted := extractToolCalls(resp.Content); len(extracted) > 0 {
			resp.ToolCalls = extracted
			resp.Content = ""
			a.logger.Info("extracted tool calls from content text", "agent", a.name, "count", len(extracted))
		}
	}

	a.logger.Debug("agent decided", "agent", a.name, "tool_calls", len(resp.ToolCalls))
	return domain.Message{
		Role:      domain.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	}, nil
}
