package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/showroomlabs/go-showroom/pkg/agent"
	"github.com/showroomlabs/go-showroom/pkg/inference"
	"github.com/showroomlabs/go-showroom/pkg/pipeline"
	"github.com/showroomlabs/go-showroom/pkg/session"
	"github.com/showroomlabs/go-showroom/pkg/stt"
	"github.com/showroomlabs/go-showroom/pkg/tts"
	"github.com/showroomlabs/go-showroom/pkg/web"
)

// startVoiceServer serves the gateway on a loopback listener and returns
// the ws URL base plus the upload directory.
func startVoiceServer(t *testing.T, transcriber stt.Provider, speaker tts.Provider) (string, string) {
	t.Helper()

	a, err := agent.New(agent.Config{Provider: inference.NewMock("Hi!")})
	if err != nil {
		t.Fatalf("agent.New: %v", err)
	}
	orch, err := pipeline.New(transcriber, a, speaker, session.NewStore(), pipeline.Config{
		AudioDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}

	uploadDir := t.TempDir()
	server := web.NewServer(orch, web.Config{
		AudioDir:  t.TempDir(),
		UploadDir: uploadDir,
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go server.App().Listener(ln)
	t.Cleanup(func() { server.Shutdown() })

	return "ws://" + ln.Addr().String(), uploadDir
}

func dialVoice(t *testing.T, base, sessionID string) *websocket.Conn {
	t.Helper()

	var conn *websocket.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, _, err = websocket.DefaultDialer.Dial(base+"/ws/"+sessionID, nil)
		if err == nil {
			t.Cleanup(func() { conn.Close() })
			return conn
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("dial: %v", err)
	return nil
}

func readReply(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	var reply map[string]interface{}
	if err := json.Unmarshal(data, &reply); err != nil {
		t.Fatalf("decode reply %q: %v", data, err)
	}
	return reply
}

func TestVoiceLoopSurvivesTurnFaults(t *testing.T) {
	var calls int32
	transcriber := &stt.Mock{TranscribeFunc: func(ctx context.Context, audio []byte) (*stt.Result, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("engine offline")
		}
		return &stt.Result{Text: "hello"}, nil
	}}

	base, uploadDir := startVoiceServer(t, transcriber, tts.NewMock())
	conn := dialVoice(t, base, "s1")

	t.Run("faulted turn answers with error and stage", func(t *testing.T) {
		if err := conn.WriteMessage(websocket.BinaryMessage, []byte("frame-one")); err != nil {
			t.Fatalf("write: %v", err)
		}
		reply := readReply(t, conn)
		if reply["error"] != "processing failed" {
			t.Errorf("unexpected error field: %v", reply["error"])
		}
		if reply["stage"] != "transcribe" {
			t.Errorf("unexpected stage: %v", reply["stage"])
		}
	})

	t.Run("connection stays usable for the next turn", func(t *testing.T) {
		if err := conn.WriteMessage(websocket.BinaryMessage, []byte("frame-two")); err != nil {
			t.Fatalf("write: %v", err)
		}
		reply := readReply(t, conn)
		if reply["user_text"] != "hello" {
			t.Errorf("unexpected user text: %v", reply["user_text"])
		}
		if reply["ai_text"] != "Hi!" {
			t.Errorf("unexpected ai text: %v", reply["ai_text"])
		}
		if url, _ := reply["audio_url"].(string); url == "" {
			t.Error("expected an audio url")
		}
	})

	t.Run("spooled uploads are cleaned up", func(t *testing.T) {
		entries, err := os.ReadDir(uploadDir)
		if err != nil {
			t.Fatalf("read upload dir: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected empty upload dir, found %d entries", len(entries))
		}
	})
}

func TestVoiceLoopSynthesisFaultCarriesTexts(t *testing.T) {
	fault := errors.New("voice quota exceeded")
	base, _ := startVoiceServer(t, stt.WithText("book a test drive"), tts.WithError(fault))
	conn := dialVoice(t, base, "s1")

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte("frame")); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply := readReply(t, conn)

	if reply["stage"] != "synthesize" {
		t.Errorf("unexpected stage: %v", reply["stage"])
	}
	if reply["user_text"] != "book a test drive" {
		t.Errorf("expected completed user text on the failure, got %v", reply["user_text"])
	}
	if reply["ai_text"] != "Hi!" {
		t.Errorf("expected completed agent text on the failure, got %v", reply["ai_text"])
	}
}

func TestVoiceLoopSilentFrameAnswersNull(t *testing.T) {
	base, _ := startVoiceServer(t, stt.WithText("   "), tts.NewMock())
	conn := dialVoice(t, base, "s1")

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte("noise")); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if string(data) != "null" {
		t.Errorf("expected JSON null for a silent frame, got %q", data)
	}
}
