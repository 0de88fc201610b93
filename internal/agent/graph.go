package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"ingestbot/internal/domain"
	"ingestbot/internal/tool"
)

// Node names the states of the execution graph.
type Node string

const (
	NodeClassify   Node = "classify"
	NodeReadTool   Node = "read_tool"
	NodeListRecord Node = "list_record"
	NodeEmail      Node = "email"
	NodeJSON       Node = "json"
	NodeCallTools  Node = "call_tools"
	NodeInputEmail Node = "input_email"
	NodeInputJSON  Node = "input_json"
	NodeEnd        Node = "" // terminal
)

const defaultMaxSteps = 20

// Graph sequences the pipeline agents and the tool runtime over one
// conversation thread: classify the input, read the named file, route on its
// declared format, extract and persist. Nodes run one at a time to
// completion; input_email/input_json are the only blocking suspension
// points.
type Graph struct {
	classifier *Agent
	email      *Agent
	jsonAgent  *Agent

	runtime   *tool.Runtime
	readTools map[string]domain.Tool // readfile only
	listTools map[string]domain.Tool // list_records only
	allTools  map[string]domain.Tool // everything call_tools may touch

	checkpoints *Checkpointer
	input       InputProvider
	onMessage   func(domain.Message)
	logger      *slog.Logger
	maxSteps    int
}

type GraphConfig struct {
	Classifier *Agent
	Email      *Agent
	JSON       *Agent
	Runtime    *tool.Runtime
	Registry   *tool.Registry
	Input      InputProvider
	Checkpoints *Checkpointer
	OnMessage  func(domain.Message) // called for every appended message; optional
	Logger     *slog.Logger
	MaxSteps   int
}

func NewGraph(cfg GraphConfig) *Graph {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = defaultMaxSteps
	}
	if cfg.Checkpoints == nil {
		cfg.Checkpoints = NewCheckpointer()
	}
	return &Graph{
		classifier:  cfg.Classifier,
		email:       cfg.Email,
		jsonAgent:   cfg.JSON,
		runtime:     cfg.Runtime,
		readTools:   cfg.Registry.Subset("readfile"),
		listTools:   cfg.Registry.Subset("list_records"),
		allTools:    cfg.Registry.All(),
		checkpoints: cfg.Checkpoints,
		input:       cfg.Input,
		onMessage:   cfg.OnMessage,
		logger:      cfg.Logger,
		maxSteps:    cfg.MaxSteps,
	}
}

// Run executes one graph pass for a thread, starting from the classify node
// with the given user input appended. It returns when a terminal edge is
// reached, the step bound trips, or a quit sentinel arrives at a suspension
// point. Conversation state is saved back on every exit path.
func (g *Graph) Run(ctx context.Context, threadID, userInput string) error {
	messages := g.checkpoints.Load(threadID)
	messages = g.append(messages, domain.Message{Role: domain.RoleUser, Content: userInput})
	defer func() { g.checkpoints.Save(threadID, messages) }()

	current := NodeClassify
	for step := 0; current != NodeEnd; step++ {
		if step >= g.maxSteps {
			g.logger.Warn("graph step bound reached", "thread", threadID, "steps", step)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		g.logger.Debug("graph node", "thread", threadID, "node", current)

		var err error
		messages, current, err = g.step(ctx, current, messages)
		if err != nil {
			return err
		}
	}
	return nil
}

// step runs one node and evaluates its outgoing edge against the most recent
// message.
func (g *Graph) step(ctx context.Context, node Node, messages []domain.Message) ([]domain.Message, Node, error) {
	switch node {
	case NodeClassify:
		msg, err := g.classifier.Decide(ctx, messages)
		if err != nil {
			return messages, NodeEnd, err
		}
		messages = g.append(messages, msg)
		return messages, routeFromClassify(msg), nil

	case NodeReadTool:
		messages = g.runTools(ctx, messages, g.readTools)
		return messages, routeFromRead(last(messages)), nil

	case NodeListRecord:
		messages = g.runTools(ctx, messages, g.listTools)
		return messages, NodeClassify, nil

	case NodeEmail:
		return g.extractionStep(ctx, g.email, messages, NodeInputEmail)

	case NodeJSON:
		return g.extractionStep(ctx, g.jsonAgent, messages, NodeInputJSON)

	case NodeCallTools:
		messages = g.runTools(ctx, messages, g.allTools)
		return messages, NodeEnd, nil

	case NodeInputEmail:
		return g.inputStep(ctx, messages, NodeEmail)

	case NodeInputJSON:
		return g.inputStep(ctx, messages, NodeJSON)

	default:
		return messages, NodeEnd, fmt.Errorf("graph: unknown node %q", node)
	}
}

// extractionStep runs one of the format-scoped agents: inject its directive,
// decide, then branch to tool execution or to the matching suspension point.
func (g *Graph) extractionStep(ctx context.Context, a *Agent, messages []domain.Message, suspend Node) ([]domain.Message, Node, error) {
	if d := a.Directive(); d != "" {
		messages = g.append(messages, domain.Message{Role: domain.RoleUser, Content: d})
	}
	msg, err := a.Decide(ctx, messages)
	if err != nil {
		return messages, NodeEnd, err
	}
	messages = g.append(messages, msg)
	if msg.HasToolCalls() {
		return messages, NodeCallTools, nil
	}
	return messages, suspend, nil
}

// inputStep blocks for additional human input, then resumes the extraction
// agent. Quit sentinels (and input exhaustion under a batch driver) end the
// run without persisting anything.
func (g *Graph) inputStep(ctx context.Context, messages []domain.Message, resume Node) ([]domain.Message, Node, error) {
	line, err := g.input.ReadInput(ctx)
	if err != nil {
		if err == io.EOF {
			g.logger.Debug("input exhausted at suspension point")
			return messages, NodeEnd, nil
		}
		return messages, NodeEnd, err
	}
	if IsQuitSentinel(line) {
		g.logger.Info("user cancelled at suspension point")
		return messages, NodeEnd, nil
	}
	messages = g.append(messages, domain.Message{Role: domain.RoleUser, Content: line})
	return messages, resume, nil
}

// runTools answers every tool call on the last assistant message against the
// given capability set; tool messages always directly follow the assistant
// message that requested them.
func (g *Graph) runTools(ctx context.Context, messages []domain.Message, available map[string]domain.Tool) []domain.Message {
	for _, msg := range g.runtime.RunAll(ctx, last(messages), available) {
		messages = g.append(messages, msg)
	}
	return messages
}

func (g *Graph) append(messages []domain.Message, msg domain.Message) []domain.Message {
	if g.onMessage != nil {
		g.onMessage(msg)
	}
	return append(messages, msg)
}

func last(messages []domain.Message) domain.Message {
	if len(messages) == 0 {
		return domain.Message{}
	}
	return messages[len(messages)-1]
}

// routeFromClassify picks the edge out of the classify node: a readfile
// request goes to the read node, a list_records request to the list node,
// anything else ends the run.
func routeFromClassify(msg domain.Message) Node {
	if !msg.HasToolCalls() {
		return NodeEnd
	}
	switch msg.ToolCalls[0].Name {
	case "readfile":
		return NodeReadTool
	case "list_records":
		return NodeListRecord
	default:
		return NodeEnd
	}
}

// routeFromRead dispatches on a read result. An error field always wins and
// routes back to classification for a retry, regardless of what format says;
// format dispatch applies only to error-free reads. Unsupported formats and
// unparseable content end the run: nothing more to do, not a failure.
func routeFromRead(msg domain.Message) Node {
	r, ok := tool.ParseReadResult(msg.Content)
	if !ok {
		return NodeEnd
	}
	if r.Error != "" {
		return NodeClassify
	}
	switch r.Format {
	case "json":
		return NodeJSON
	case "txt":
		return NodeEmail
	default:
		return NodeEnd
	}
}
