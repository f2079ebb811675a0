package session_test

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/showroomlabs/go-showroom/pkg/session"
)

func TestAppendTurn(t *testing.T) {
	store := session.NewStore()
	sess := store.GetOrCreate("s1")

	sess.AppendTurn("what SUVs do you have?", "We have three SUVs in stock.",
		[]string{"agent", "tool:get_cars_by_type"},
		[]string{"get_cars_by_type: Adventure SUV"})

	t.Run("history grows by two", func(t *testing.T) {
		if sess.Len() != 2 {
			t.Fatalf("expected 2 messages, got %d", sess.Len())
		}
		h := sess.History(0)
		if h[0].Role != session.RoleUser || h[1].Role != session.RoleAgent {
			t.Errorf("unexpected roles: %v %v", h[0].Role, h[1].Role)
		}
	})

	t.Run("summary records the turn", func(t *testing.T) {
		s := sess.Summary()
		if len(s.UserRequests) != 1 || s.UserRequests[0] != "what SUVs do you have?" {
			t.Errorf("unexpected user requests: %v", s.UserRequests)
		}
		if len(s.AgentResponses) != 1 {
			t.Errorf("unexpected agent responses: %v", s.AgentResponses)
		}
		if len(s.AgentFlow) != 2 || s.AgentFlow[1] != "tool:get_cars_by_type" {
			t.Errorf("unexpected flow: %v", s.AgentFlow)
		}
		if len(s.Operations) != 1 {
			t.Errorf("unexpected operations: %v", s.Operations)
		}
	})

	t.Run("transcript pairs user and agent lines", func(t *testing.T) {
		s := sess.Summary()
		if len(s.ConversationTranscript) != 2 {
			t.Fatalf("expected 2 transcript lines, got %d", len(s.ConversationTranscript))
		}
		if !strings.HasPrefix(s.ConversationTranscript[0], "User: ") {
			t.Errorf("unexpected transcript line: %q", s.ConversationTranscript[0])
		}
		if !strings.HasPrefix(s.ConversationTranscript[1], "Agent: ") {
			t.Errorf("unexpected transcript line: %q", s.ConversationTranscript[1])
		}
	})
}

func TestSummaryMonotonic(t *testing.T) {
	store := session.NewStore()
	sess := store.GetOrCreate("s1")

	for i := 0; i < 5; i++ {
		sess.AppendTurn(fmt.Sprintf("question %d", i), fmt.Sprintf("answer %d", i),
			[]string{"agent"}, nil)

		s := sess.Summary()
		if len(s.UserRequests) != i+1 {
			t.Fatalf("turn %d: expected %d requests, got %d", i, i+1, len(s.UserRequests))
		}
		if len(s.ConversationTranscript) != 2*(i+1) {
			t.Fatalf("turn %d: expected %d transcript lines, got %d", i, 2*(i+1), len(s.ConversationTranscript))
		}
	}
}

func TestSummarySnapshotIsolated(t *testing.T) {
	store := session.NewStore()
	sess := store.GetOrCreate("s1")
	sess.AppendTurn("hi", "hello", []string{"agent"}, nil)

	snap := sess.Summary()
	sess.AppendTurn("bye", "goodbye", []string{"agent"}, nil)

	if len(snap.UserRequests) != 1 {
		t.Errorf("snapshot mutated: %v", snap.UserRequests)
	}
}

func TestHistoryWindow(t *testing.T) {
	store := session.NewStore()
	sess := store.GetOrCreate("s1")
	for i := 0; i < 4; i++ {
		sess.AppendTurn(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), nil, nil)
	}

	t.Run("zero returns full history", func(t *testing.T) {
		if got := len(sess.History(0)); got != 8 {
			t.Errorf("expected 8 messages, got %d", got)
		}
	})

	t.Run("limit keeps the newest", func(t *testing.T) {
		h := sess.History(2)
		if len(h) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(h))
		}
		if h[1].Content != "a3" {
			t.Errorf("expected newest message last, got %q", h[1].Content)
		}
	})
}

func TestStore(t *testing.T) {
	store := session.NewStore()

	t.Run("GetOrCreate is stable per id", func(t *testing.T) {
		a := store.GetOrCreate("s1")
		b := store.GetOrCreate("s1")
		if a != b {
			t.Error("expected the same session instance")
		}
		if store.GetOrCreate("s2") == a {
			t.Error("expected distinct sessions per id")
		}
	})

	t.Run("unknown id yields empty summary", func(t *testing.T) {
		s := store.Summary("never-seen")
		if s.SessionID != "never-seen" {
			t.Errorf("unexpected session id: %q", s.SessionID)
		}
		if len(s.UserRequests) != 0 || len(s.ConversationTranscript) != 0 {
			t.Errorf("expected empty summary, got %+v", s)
		}
	})

	t.Run("empty summary serves arrays not null", func(t *testing.T) {
		data, err := json.Marshal(store.Summary("never-seen"))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if strings.Contains(string(data), "null") {
			t.Errorf("expected [] fields, got %s", data)
		}
	})

	t.Run("repeated reads return identical summaries", func(t *testing.T) {
		store.GetOrCreate("s3").AppendTurn("any sedans?", "Two sedans in stock.",
			[]string{"agent", "tool:get_cars_by_type"},
			[]string{"get_cars_by_type: City Sedan"})

		first := store.Summary("s3")
		second := store.Summary("s3")
		if !reflect.DeepEqual(first, second) {
			t.Errorf("summaries differ between reads:\n%+v\n%+v", first, second)
		}
	})

	t.Run("summary query does not create sessions", func(t *testing.T) {
		before := store.Len()
		store.Summary("another-unknown")
		if store.Len() != before {
			t.Error("summary query created a session")
		}
	})
}

func TestConcurrentAccess(t *testing.T) {
	store := session.NewStore()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", n%4)
			sess := store.GetOrCreate(id)
			for j := 0; j < 50; j++ {
				sess.AppendTurn("q", "a", []string{"agent"}, nil)
				_ = sess.Summary()
				_ = sess.History(10)
			}
		}(i)
	}
	wg.Wait()

	total := 0
	for i := 0; i < 4; i++ {
		s := store.Summary(fmt.Sprintf("s%d", i))
		total += len(s.UserRequests)
	}
	if total != 400 {
		t.Errorf("expected 400 recorded turns, got %d", total)
	}
}
