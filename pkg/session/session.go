// Package session holds per-conversation state for the voice pipeline:
// the ordered turn history used as model context and the append-only
// summary exposed over the query endpoint.
//
// The orchestrator is the sole mutator of a session; summary readers only
// observe. History and the summary transcript grow together at turn
// boundaries and never diverge.
package session

import (
	"fmt"
	"sync"
)

// Role tags a history message as spoken by the user or the agent.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is one history entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Summary is the append-only record of everything observable about a
// session. All fields grow monotonically and only at turn boundaries.
type Summary struct {
	SessionID              string   `json:"session_id"`
	UserRequests           []string `json:"user_requests"`
	AgentResponses         []string `json:"agent_responses"`
	AgentFlow              []string `json:"agent_flow"`
	Operations             []string `json:"operations"`
	ConversationTranscript []string `json:"conversation_transcript"`
}

func emptySummary(id string) Summary {
	// Slices start non-nil so the endpoint serves [] rather than null.
	return Summary{
		SessionID:              id,
		UserRequests:           []string{},
		AgentResponses:         []string{},
		AgentFlow:              []string{},
		Operations:             []string{},
		ConversationTranscript: []string{},
	}
}

func (s Summary) clone() Summary {
	out := s
	out.UserRequests = append([]string{}, s.UserRequests...)
	out.AgentResponses = append([]string{}, s.AgentResponses...)
	out.AgentFlow = append([]string{}, s.AgentFlow...)
	out.Operations = append([]string{}, s.Operations...)
	out.ConversationTranscript = append([]string{}, s.ConversationTranscript...)
	return out
}

// Session is one conversation, identified by a caller-supplied id.
type Session struct {
	id string

	mu      sync.RWMutex
	history []Message
	summary Summary
}

func newSession(id string) *Session {
	return &Session{
		id:      id,
		summary: emptySummary(id),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// AppendTurn records one completed turn: the user utterance, the agent
// reply, the executed flow markers and the performed operations. History
// and the summary transcript are updated under one lock so they can
// never be observed inconsistent.
func (s *Session) AppendTurn(userText, agentText string, flow, operations []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history,
		Message{Role: RoleUser, Content: userText},
		Message{Role: RoleAgent, Content: agentText},
	)

	s.summary.UserRequests = append(s.summary.UserRequests, userText)
	s.summary.AgentResponses = append(s.summary.AgentResponses, agentText)
	s.summary.AgentFlow = append(s.summary.AgentFlow, flow...)
	s.summary.Operations = append(s.summary.Operations, operations...)
	s.summary.ConversationTranscript = append(s.summary.ConversationTranscript,
		fmt.Sprintf("User: %s", userText),
		fmt.Sprintf("Agent: %s", agentText),
	)
}

// History returns a copy of the most recent messages. limit <= 0 returns
// the full history.
func (s *Session) History(limit int) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := s.history
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	out := make([]Message, len(h))
	copy(out, h)
	return out
}

// Len returns the number of history messages.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// Summary returns a snapshot of the session summary.
func (s *Session) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary.clone()
}
