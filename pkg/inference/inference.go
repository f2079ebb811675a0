// Package inference provides a unified interface for LLM chat inference.
//
// The package abstracts chat completions with function calling behind a
// single Provider interface, enabling switching between backends like
// Groq, OpenAI, Ollama and Gemini without changing caller code.
//
// Example usage:
//
//	client, _ := inference.NewClient(
//	    inference.WithAPIKey(os.Getenv("GROQ_API_KEY")),
//	    inference.WithModel("openai/gpt-oss-120b"),
//	)
//	defer client.Close()
//
//	resp, _ := client.Chat(ctx, &inference.ChatRequest{
//	    Messages: []inference.Message{
//	        inference.NewUserMessage("Hello!"),
//	    },
//	})
package inference

import "context"

// Provider is the unified chat inference interface.
type Provider interface {
	// Chat generates a response from a sequence of messages.
	// When the request carries tools, the response may contain tool
	// calls instead of (or in addition to) text content.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Capabilities returns what features this provider supports.
	Capabilities() Capabilities

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Capabilities describes optional provider features.
type Capabilities struct {
	// Chat indicates chat completion support.
	Chat bool

	// Tools indicates function calling support.
	Tools bool
}

// ChatRequest is a chat completion request.
type ChatRequest struct {
	// Messages is the conversation so far, oldest first.
	Messages []Message

	// Tools the model may call.
	Tools []Tool

	// Model overrides the configured default model.
	Model string

	// MaxTokens caps the completion length. 0 uses the config default.
	MaxTokens int

	// Temperature controls randomness. 0 uses the config default.
	Temperature float64
}

// ChatResponse is a completed chat turn.
type ChatResponse struct {
	// Message is the assistant's reply, possibly containing tool calls.
	Message Message

	// FinishReason is the provider's stop reason ("stop", "tool_calls"...).
	FinishReason string

	// Usage reports token accounting.
	Usage Usage

	// Model is the model that produced the response.
	Model string

	// LatencyMs is the round-trip time in milliseconds.
	LatencyMs int64
}

// HasToolCalls reports whether the model requested tool execution.
func (r *ChatResponse) HasToolCalls() bool {
	return len(r.Message.ToolCalls) > 0
}

// Usage reports token consumption for a request.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
