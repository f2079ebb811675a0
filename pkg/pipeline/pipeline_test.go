package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/showroomlabs/go-showroom/pkg/agent"
	"github.com/showroomlabs/go-showroom/pkg/inference"
	"github.com/showroomlabs/go-showroom/pkg/pipeline"
	"github.com/showroomlabs/go-showroom/pkg/session"
	"github.com/showroomlabs/go-showroom/pkg/stt"
	"github.com/showroomlabs/go-showroom/pkg/tts"
)

type fixture struct {
	stt          *stt.Mock
	tts          *tts.Mock
	store        *session.Store
	orchestrator *pipeline.Orchestrator
	audioDir     string
}

func newFixture(t *testing.T, transcriber *stt.Mock, chat inference.Provider, speaker *tts.Mock) *fixture {
	t.Helper()

	a, err := agent.New(agent.Config{Provider: chat})
	if err != nil {
		t.Fatalf("agent.New: %v", err)
	}
	store := session.NewStore()
	audioDir := t.TempDir()

	orch, err := pipeline.New(transcriber, a, speaker, store, pipeline.Config{
		AudioDir:       audioDir,
		AudioURLPrefix: "/audio",
	})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return &fixture{stt: transcriber, tts: speaker, store: store, orchestrator: orch, audioDir: audioDir}
}

func TestProcessTurn(t *testing.T) {
	f := newFixture(t,
		stt.WithText("what SUVs do you have?"),
		inference.NewMock("We have the Adventure SUV in stock."),
		tts.NewMock(),
	)

	result, err := f.orchestrator.ProcessTurn(context.Background(), "s1", []byte("audio"))
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result")
	}

	t.Run("result carries both texts", func(t *testing.T) {
		if result.UserText != "what SUVs do you have?" {
			t.Errorf("unexpected user text: %q", result.UserText)
		}
		if result.AIText != "We have the Adventure SUV in stock." {
			t.Errorf("unexpected ai text: %q", result.AIText)
		}
		if result.Intent != "chat" {
			t.Errorf("unexpected intent: %q", result.Intent)
		}
	})

	t.Run("audio asset is written and addressable", func(t *testing.T) {
		if !strings.HasPrefix(result.AudioURL, "/audio/response_") {
			t.Fatalf("unexpected audio url: %q", result.AudioURL)
		}
		name := strings.TrimPrefix(result.AudioURL, "/audio/")
		if _, err := os.Stat(filepath.Join(f.audioDir, name)); err != nil {
			t.Errorf("audio file missing: %v", err)
		}
	})

	t.Run("session records the turn", func(t *testing.T) {
		s := f.store.Summary("s1")
		if len(s.UserRequests) != 1 || s.UserRequests[0] != "what SUVs do you have?" {
			t.Errorf("unexpected summary: %+v", s)
		}
		if len(s.AgentFlow) == 0 || s.AgentFlow[0] != "agent" {
			t.Errorf("unexpected flow: %v", s.AgentFlow)
		}
	})
}

func TestProcessTurnNoSpeech(t *testing.T) {
	f := newFixture(t, stt.WithText("   "), inference.NewMock("hi"), tts.NewMock())

	result, err := f.orchestrator.ProcessTurn(context.Background(), "s1", []byte("noise"))
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result for silent audio, got %+v", result)
	}
	if f.tts.CallCount("Synthesize") != 0 {
		t.Error("synthesis must not run for silent audio")
	}
	if s := f.store.Summary("s1"); len(s.UserRequests) != 0 {
		t.Errorf("silent turn mutated the session: %+v", s)
	}
}

func TestProcessTurnTranscribeFault(t *testing.T) {
	fault := errors.New("upstream 500")
	f := newFixture(t, stt.WithError(fault), inference.NewMock("hi"), tts.NewMock())

	_, err := f.orchestrator.ProcessTurn(context.Background(), "s1", []byte("audio"))

	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != pipeline.StageTranscribe {
		t.Errorf("unexpected stage: %v", stageErr.Stage)
	}
	if !errors.Is(err, fault) {
		t.Errorf("expected wrapped fault, got %v", err)
	}
	if stageErr.Result != nil {
		t.Errorf("transcribe fault must not carry a result: %+v", stageErr.Result)
	}
	if s := f.store.Summary("s1"); len(s.UserRequests) != 0 {
		t.Errorf("failed turn mutated the session: %+v", s)
	}
}

func TestProcessTurnSynthesisFault(t *testing.T) {
	fault := errors.New("voice quota exceeded")
	f := newFixture(t,
		stt.WithText("hello there"),
		inference.NewMock("Hi! How can I help?"),
		tts.WithError(fault),
	)

	_, err := f.orchestrator.ProcessTurn(context.Background(), "s1", []byte("audio"))

	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != pipeline.StageSynthesize {
		t.Errorf("unexpected stage: %v", stageErr.Stage)
	}

	t.Run("result carries the completed text exchange", func(t *testing.T) {
		if stageErr.Result == nil {
			t.Fatal("expected the textual result on the error")
		}
		if stageErr.Result.AIText != "Hi! How can I help?" {
			t.Errorf("unexpected ai text: %q", stageErr.Result.AIText)
		}
		if stageErr.Result.AudioURL != "" {
			t.Errorf("unexpected audio url: %q", stageErr.Result.AudioURL)
		}
	})

	t.Run("session keeps the turn", func(t *testing.T) {
		s := f.store.Summary("s1")
		if len(s.UserRequests) != 1 {
			t.Fatalf("expected the turn recorded, got %+v", s)
		}
		if s.AgentResponses[0] != "Hi! How can I help?" {
			t.Errorf("unexpected response: %q", s.AgentResponses[0])
		}
	})
}

func TestProcessTurnDegradedAgent(t *testing.T) {
	f := newFixture(t,
		stt.WithText("hello"),
		inference.MockWithError(errors.New("backend down")),
		tts.NewMock(),
	)

	result, err := f.orchestrator.ProcessTurn(context.Background(), "s1", []byte("audio"))
	if err != nil {
		t.Fatalf("degraded decision must not fail the turn: %v", err)
	}
	if result.AIText == "" {
		t.Error("expected a speakable fallback reply")
	}
	if result.Intent != "degraded" {
		t.Errorf("unexpected intent: %q", result.Intent)
	}
	if result.AudioURL == "" {
		t.Error("fallback reply should still be synthesized")
	}
}

func TestProcessTurnToolIntent(t *testing.T) {
	toolCall := &inference.ChatResponse{
		Message: inference.Message{
			Role:      inference.RoleAssistant,
			ToolCalls: []inference.ToolCall{{ID: "call_1", Name: "get_cars_by_type", Arguments: `{"car_type":"suv"}`}},
		},
		FinishReason: "tool_calls",
	}
	final := &inference.ChatResponse{
		Message:      inference.NewAssistantMessage("We have three SUVs."),
		FinishReason: "stop",
	}
	chat := &inference.Mock{Responses: []*inference.ChatResponse{toolCall, final}}

	a, err := agent.New(agent.Config{Provider: chat})
	if err != nil {
		t.Fatalf("agent.New: %v", err)
	}
	a.RegisterTool(agent.Tool{
		Name:    "get_cars_by_type",
		Handler: func(args map[string]interface{}) (string, error) { return "Adventure SUV", nil },
	})

	store := session.NewStore()
	orch, err := pipeline.New(stt.WithText("what SUVs do you have?"), a, tts.NewMock(), store, pipeline.Config{
		AudioDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}

	result, err := orch.ProcessTurn(context.Background(), "s1", []byte("audio"))
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if result.Intent != "get_cars_by_type" {
		t.Errorf("unexpected intent: %q", result.Intent)
	}
	if len(result.ActionResult) != 1 || result.ActionResult[0].Tool != "get_cars_by_type" {
		t.Errorf("unexpected actions: %+v", result.ActionResult)
	}

	s := store.Summary("s1")
	if len(s.Operations) != 1 || !strings.HasPrefix(s.Operations[0], "get_cars_by_type:") {
		t.Errorf("unexpected operations: %v", s.Operations)
	}
}

func TestSameSessionSerialized(t *testing.T) {
	var inflight int32
	var overlapped int32

	chat := &inference.Mock{ChatFunc: func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
		if atomic.AddInt32(&inflight, 1) > 1 {
			atomic.StoreInt32(&overlapped, 1)
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inflight, -1)
		return &inference.ChatResponse{Message: inference.NewAssistantMessage("ok"), FinishReason: "stop"}, nil
	}}

	f := newFixture(t, stt.WithText("hello"), chat, tts.NewMock())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.orchestrator.ProcessTurn(context.Background(), "s1", []byte("audio")); err != nil {
				t.Errorf("ProcessTurn: %v", err)
			}
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&overlapped) != 0 {
		t.Error("turns for the same session overlapped")
	}
	if s := f.store.Summary("s1"); len(s.UserRequests) != 5 {
		t.Errorf("expected 5 recorded turns, got %d", len(s.UserRequests))
	}
}

func TestDifferentSessionsRunInParallel(t *testing.T) {
	arrived := make(chan struct{}, 2)
	release := make(chan struct{})

	chat := &inference.Mock{ChatFunc: func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
		arrived <- struct{}{}
		<-release
		return &inference.ChatResponse{Message: inference.NewAssistantMessage("ok"), FinishReason: "stop"}, nil
	}}

	f := newFixture(t, stt.WithText("hello"), chat, tts.NewMock())

	var wg sync.WaitGroup
	for _, id := range []string{"s1", "s2"} {
		wg.Add(1)
		go func(sessionID string) {
			defer wg.Done()
			f.orchestrator.ProcessTurn(context.Background(), sessionID, []byte("audio"))
		}(id)
	}

	// Both sessions must reach the decision stage while neither has
	// finished; a shared lock would park the second one here.
	for i := 0; i < 2; i++ {
		select {
		case <-arrived:
		case <-time.After(2 * time.Second):
			t.Fatal("sessions did not run concurrently")
		}
	}
	close(release)
	wg.Wait()
}
