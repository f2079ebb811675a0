// Package agent implements the decision stage of the voice pipeline:
// a tool-calling assistant that turns a transcribed utterance plus
// conversation history into a speakable reply.
//
// The agent is constructed once at startup with an inference provider and
// a set of registered tools. Each Respond call runs the tool loop: the
// model either answers directly or requests tool executions, whose results
// are fed back until it produces a final reply. Backend faults never
// escape as errors; the caller always receives non-empty text.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/showroomlabs/go-showroom/pkg/inference"
)

// DefaultSystemPrompt is the showroom assistant persona.
const DefaultSystemPrompt = "You are an intelligent auto dealership voice assistant. " +
	"Your goal is to help customers find cars, check details, and book test drives. " +
	"You have access to the dealership's real-time inventory and booking system. " +
	"Use the available tools to answer questions accurately. " +
	"Always verify availability before booking. " +
	"Keep your final responses natural, helpful, and concise (suitable for voice output)."

// Fallback replies used when the inference backend fails.
const (
	fallbackReply = "I apologize, but I encountered an error while processing your request. Please try again."
	emptyReply    = "I'm sorry, I'm having trouble generating a response right now."
)

// DefaultMaxToolRounds bounds the tool loop per turn.
const DefaultMaxToolRounds = 5

// Tool is a callable capability exposed to the model.
type Tool struct {
	// Name is the function name the model calls.
	Name string

	// Description tells the model when to use the tool.
	Description string

	// Parameters is the JSON Schema for the arguments.
	Parameters map[string]interface{}

	// Handler executes the tool. The returned string goes back to the
	// model verbatim; user-facing errors belong in the string, not err.
	Handler func(args map[string]interface{}) (string, error)
}

// ActionRecord captures one executed tool invocation.
type ActionRecord struct {
	Tool   string                 `json:"tool"`
	Args   map[string]interface{} `json:"args"`
	Result string                 `json:"result"`
}

// Reply is the outcome of one decision turn.
type Reply struct {
	// Text is the reply to speak. Never empty.
	Text string

	// Flow lists the executed steps, e.g. ["agent", "tool:book_test_drive"].
	Flow []string

	// Actions records every tool invocation with args and result.
	Actions []ActionRecord

	// Degraded is true when the backend failed and Text is a fallback.
	Degraded bool
}

// Config holds agent construction parameters.
type Config struct {
	// Provider is the chat backend. Required.
	Provider inference.Provider

	// SystemPrompt overrides DefaultSystemPrompt when set.
	SystemPrompt string

	// HistoryWindow caps how many history messages are sent to the
	// model. 0 sends the full history (the tool-calling agent benefits
	// from complete context).
	HistoryWindow int

	// MaxToolRounds bounds tool-loop iterations per turn.
	MaxToolRounds int

	// Logger for structured logging.
	Logger *slog.Logger
}

// Agent is the tool-calling decision stage.
type Agent struct {
	provider      inference.Provider
	systemPrompt  string
	historyWindow int
	maxRounds     int
	logger        *slog.Logger

	tools []Tool
	defs  []inference.Tool
}

// New creates an Agent from the config.
func New(cfg Config) (*Agent, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("agent: provider is required")
	}
	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	rounds := cfg.MaxToolRounds
	if rounds <= 0 {
		rounds = DefaultMaxToolRounds
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Agent{
		provider:      cfg.Provider,
		systemPrompt:  prompt,
		historyWindow: cfg.HistoryWindow,
		maxRounds:     rounds,
		logger:        logger.With("component", "agent"),
	}, nil
}

// RegisterTool adds a tool the model can invoke.
// Call before the first Respond; not safe concurrently with Respond.
func (a *Agent) RegisterTool(t Tool) {
	a.tools = append(a.tools, t)
	a.defs = append(a.defs, inference.NewTool(t.Name, t.Description, t.Parameters))
}

// RegisterTools adds several tools at once.
func (a *Agent) RegisterTools(tools []Tool) {
	for _, t := range tools {
		a.RegisterTool(t)
	}
}

// Respond runs one decision turn. The history is the prior conversation
// (user/assistant messages, oldest first); userText is the new utterance.
// The reply text is always non-empty: backend faults surface as a
// degraded fallback reply, never as an error.
func (a *Agent) Respond(ctx context.Context, userText string, history []inference.Message) *Reply {
	reply := &Reply{Flow: []string{"agent"}}

	messages := make([]inference.Message, 0, len(history)+2)
	messages = append(messages, inference.NewSystemMessage(a.systemPrompt))
	messages = append(messages, a.window(history)...)
	messages = append(messages, inference.NewUserMessage(userText))

	for round := 0; round < a.maxRounds; round++ {
		resp, err := a.provider.Chat(ctx, &inference.ChatRequest{
			Messages: messages,
			Tools:    a.defs,
		})
		if err != nil {
			a.logger.Error("inference failed",
				"round", round,
				"error", err,
			)
			reply.Text = fallbackReply
			reply.Degraded = true
			reply.Flow = append(reply.Flow, "degraded")
			return reply
		}

		if !resp.HasToolCalls() {
			text := strings.TrimSpace(resp.Message.Content)
			if text == "" {
				text = emptyReply
				reply.Degraded = true
				reply.Flow = append(reply.Flow, "degraded")
			}
			reply.Text = text
			return reply
		}

		messages = append(messages, resp.Message)

		for _, call := range resp.Message.ToolCalls {
			result := a.execute(call)
			reply.Flow = append(reply.Flow, "tool:"+call.Name)
			reply.Actions = append(reply.Actions, ActionRecord{
				Tool:   call.Name,
				Args:   parseArgs(call.Arguments),
				Result: result,
			})
			messages = append(messages, inference.Message{
				Role:       inference.RoleTool,
				Name:       call.Name,
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	// Out of rounds with the model still asking for tools.
	a.logger.Warn("tool loop exhausted", "max_rounds", a.maxRounds)
	reply.Text = fallbackReply
	reply.Degraded = true
	reply.Flow = append(reply.Flow, "degraded")
	return reply
}

// execute runs the named tool and returns its result string.
func (a *Agent) execute(call inference.ToolCall) string {
	tool, ok := a.lookup(call.Name)
	if !ok {
		a.logger.Warn("unknown tool requested", "tool", call.Name)
		return fmt.Sprintf("Unknown tool: %s", call.Name)
	}

	args := parseArgs(call.Arguments)
	a.logger.Info("tool call", "tool", call.Name, "args", call.Arguments)

	result, err := tool.Handler(args)
	if err != nil {
		a.logger.Error("tool failed", "tool", call.Name, "error", err)
		return fmt.Sprintf("Tool %s failed: %v", call.Name, err)
	}

	a.logger.Debug("tool result", "tool", call.Name, "result", result)
	return result
}

func (a *Agent) lookup(name string) (Tool, bool) {
	for _, t := range a.tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// window applies the configured history cap, keeping the newest messages.
func (a *Agent) window(history []inference.Message) []inference.Message {
	if a.historyWindow <= 0 || len(history) <= a.historyWindow {
		return history
	}
	return history[len(history)-a.historyWindow:]
}

func parseArgs(raw string) map[string]interface{} {
	args := map[string]interface{}{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]interface{}{}
	}
	return args
}
