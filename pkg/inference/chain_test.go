package inference_test

import (
	"context"
	"errors"
	"testing"

	"github.com/showroomlabs/go-showroom/pkg/inference"
)

// textOnly wraps a mock and withdraws tool support.
type textOnly struct {
	*inference.Mock
}

func (t *textOnly) Capabilities() inference.Capabilities {
	return inference.Capabilities{Chat: true}
}

func TestChainFallback(t *testing.T) {
	primary := inference.MockWithError(errors.New("primary down"))
	secondary := inference.NewMock("fallback answer")

	chain, err := inference.NewChain(primary, secondary)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}

	resp, err := chain.Chat(context.Background(), &inference.ChatRequest{
		Messages: []inference.Message{inference.NewUserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "fallback answer" {
		t.Errorf("unexpected content: %q", resp.Message.Content)
	}
}

func TestChainAllFail(t *testing.T) {
	first := errors.New("first down")
	second := errors.New("second down")

	chain, err := inference.NewChain(
		inference.MockWithError(first),
		inference.MockWithError(second),
	)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}

	_, err = chain.Chat(context.Background(), &inference.ChatRequest{
		Messages: []inference.Message{inference.NewUserMessage("hi")},
	})
	if !errors.Is(err, inference.ErrAllProvidersFailed) {
		t.Errorf("expected ErrAllProvidersFailed, got %v", err)
	}
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Errorf("expected both provider errors joined, got %v", err)
	}
}

func TestChainSkipsProvidersWithoutTools(t *testing.T) {
	noTools := &textOnly{inference.NewMock("should be skipped")}
	withTools := inference.NewMock("tool capable answer")

	chain, err := inference.NewChain(noTools, withTools)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}

	resp, err := chain.Chat(context.Background(), &inference.ChatRequest{
		Messages: []inference.Message{inference.NewUserMessage("hi")},
		Tools: []inference.Tool{
			inference.NewTool("get_cars_by_type", "List cars", map[string]interface{}{"type": "object"}),
		},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "tool capable answer" {
		t.Errorf("unexpected content: %q", resp.Message.Content)
	}
	if len(noTools.Requests()) != 0 {
		t.Error("tool-less provider should have been skipped")
	}
}

func TestChainStopsOnCancelledContext(t *testing.T) {
	primary := &inference.Mock{ChatFunc: func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
		return nil, ctx.Err()
	}}
	fallback := inference.NewMock("should not run")

	chain, err := inference.NewChain(primary, fallback)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = chain.Chat(ctx, &inference.ChatRequest{
		Messages: []inference.Message{inference.NewUserMessage("hi")},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, inference.ErrAllProvidersFailed) {
		t.Error("cancellation must not be reported as provider failure")
	}
	if len(fallback.Requests()) != 0 {
		t.Error("fallback provider must not run after cancellation")
	}
}

func TestChainRequiresProviders(t *testing.T) {
	if _, err := inference.NewChain(); !errors.Is(err, inference.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestChainCapabilitiesUnion(t *testing.T) {
	chain, err := inference.NewChain(&textOnly{inference.NewMock("a")}, inference.NewMock("b"))
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	caps := chain.Capabilities()
	if !caps.Chat || !caps.Tools {
		t.Errorf("unexpected capabilities: %+v", caps)
	}
}
