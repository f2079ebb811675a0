// Package pipeline orchestrates one voice turn end to end: transcribe the
// caller's audio, let the agent decide on a reply, synthesize the reply to
// speech and record the exchange in the session store. Turns belonging to
// the same session run strictly one at a time; different sessions proceed
// in parallel.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/showroomlabs/go-showroom/internal/log"
	"github.com/showroomlabs/go-showroom/pkg/agent"
	"github.com/showroomlabs/go-showroom/pkg/inference"
	"github.com/showroomlabs/go-showroom/pkg/session"
	"github.com/showroomlabs/go-showroom/pkg/stt"
	"github.com/showroomlabs/go-showroom/pkg/tts"
)

// Config holds orchestrator settings.
type Config struct {
	// AudioDir is where synthesized reply audio is written.
	AudioDir string

	// AudioURLPrefix is the public URL path under which AudioDir is served.
	AudioURLPrefix string

	// HistoryWindow limits how many prior messages are handed to the
	// agent. Zero means the full history.
	HistoryWindow int

	// StageTimeout bounds each external stage call. Zero disables the
	// per-stage deadline.
	StageTimeout time.Duration

	// Logger receives pipeline events. Defaults to the component logger.
	Logger *slog.Logger
}

// Result is the outcome of one completed turn, shaped for the wire.
type Result struct {
	UserText     string               `json:"user_text"`
	AIText       string               `json:"ai_text"`
	AudioURL     string               `json:"audio_url"`
	Intent       string               `json:"intent"`
	ActionResult []agent.ActionRecord `json:"action_result"`
}

// Orchestrator wires the speech and decision providers into per-session
// turn processing.
type Orchestrator struct {
	stt    stt.Provider
	agent  *agent.Agent
	tts    tts.Provider
	store  *session.Store
	config Config
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an Orchestrator and ensures the audio directory exists.
func New(sttProvider stt.Provider, ag *agent.Agent, ttsProvider tts.Provider, store *session.Store, config Config) (*Orchestrator, error) {
	if sttProvider == nil || ag == nil || ttsProvider == nil || store == nil {
		return nil, fmt.Errorf("pipeline: all collaborators are required")
	}
	if config.AudioDir == "" {
		config.AudioDir = "public/audio"
	}
	if config.AudioURLPrefix == "" {
		config.AudioURLPrefix = "/audio"
	}
	if config.Logger == nil {
		config.Logger = log.Component("pipeline")
	}
	if err := os.MkdirAll(config.AudioDir, 0o755); err != nil {
		return nil, fmt.Errorf("pipeline: create audio dir: %w", err)
	}

	return &Orchestrator{
		stt:    sttProvider,
		agent:  ag,
		tts:    ttsProvider,
		store:  store,
		config: config,
		logger: config.Logger,
		locks:  map[string]*sync.Mutex{},
	}, nil
}

// Store exposes the session store backing this orchestrator.
func (o *Orchestrator) Store() *session.Store {
	return o.store
}

// ProcessTurn runs one full voice turn for the given session. A nil Result
// with a nil error means the audio contained no recognizable speech; the
// session is left untouched in that case. Transcription faults return a
// StageError before any session mutation. Synthesis faults return a
// StageError whose Result carries the textual exchange, which is already
// recorded in the session.
func (o *Orchestrator) ProcessTurn(ctx context.Context, sessionID string, audio []byte) (*Result, error) {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()

	transcript, err := o.transcribe(ctx, audio)
	if err != nil {
		return nil, &StageError{Stage: StageTranscribe, SessionID: sessionID, Err: err}
	}
	if transcript.Empty() {
		o.logger.Debug("no speech detected", "session_id", sessionID, "audio_bytes", len(audio))
		return nil, nil
	}
	userText := strings.TrimSpace(transcript.Text)
	o.logger.Info("transcribed", "session_id", sessionID, "text", userText, "latency_ms", transcript.LatencyMs)

	sess := o.store.GetOrCreate(sessionID)
	history := toChatHistory(sess.History(o.config.HistoryWindow))

	reply := o.agent.Respond(ctx, userText, history)
	sess.AppendTurn(userText, reply.Text, reply.Flow, operations(reply))

	result := &Result{
		UserText:     userText,
		AIText:       reply.Text,
		Intent:       intentFor(reply),
		ActionResult: reply.Actions,
	}

	speech := SpeechText(reply.Text)
	synthesized, err := o.synthesize(ctx, speech)
	if err != nil {
		return nil, &StageError{Stage: StageSynthesize, SessionID: sessionID, Err: err, Result: result}
	}

	name := fmt.Sprintf("response_%s.%s", assetID(), synthesized.Format.Encoding.Ext())
	if err := os.WriteFile(filepath.Join(o.config.AudioDir, name), synthesized.Audio, 0o644); err != nil {
		return nil, &StageError{Stage: StageSynthesize, SessionID: sessionID, Err: err, Result: result}
	}
	result.AudioURL = strings.TrimSuffix(o.config.AudioURLPrefix, "/") + "/" + name

	o.logger.Info("turn complete",
		"session_id", sessionID,
		"intent", result.Intent,
		"audio_url", result.AudioURL,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

func (o *Orchestrator) transcribe(ctx context.Context, audio []byte) (*stt.Result, error) {
	ctx, cancel := o.stageContext(ctx)
	defer cancel()
	return o.stt.Transcribe(ctx, audio)
}

func (o *Orchestrator) synthesize(ctx context.Context, text string) (*tts.AudioResult, error) {
	ctx, cancel := o.stageContext(ctx)
	defer cancel()
	return o.tts.Synthesize(ctx, text)
}

func (o *Orchestrator) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.config.StageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.config.StageTimeout)
}

// sessionLock returns the mutex serializing turns for one session.
func (o *Orchestrator) sessionLock(sessionID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[sessionID] = lock
	}
	return lock
}

func toChatHistory(messages []session.Message) []inference.Message {
	history := make([]inference.Message, 0, len(messages))
	for _, m := range messages {
		role := inference.RoleUser
		if m.Role == session.RoleAgent {
			role = inference.RoleAssistant
		}
		history = append(history, inference.Message{Role: role, Content: m.Content})
	}
	return history
}

// intentFor labels the turn by the first tool the agent invoked, if any.
func intentFor(reply *agent.Reply) string {
	if reply.Degraded {
		return "degraded"
	}
	if len(reply.Actions) > 0 {
		return reply.Actions[0].Tool
	}
	return "chat"
}

// operations renders the agent's tool invocations as summary entries.
func operations(reply *agent.Reply) []string {
	ops := make([]string, 0, len(reply.Actions))
	for _, a := range reply.Actions {
		ops = append(ops, fmt.Sprintf("%s: %s", a.Tool, firstLine(a.Result)))
	}
	return ops
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func assetID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
