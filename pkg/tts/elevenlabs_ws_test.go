package tts_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/showroomlabs/go-showroom/pkg/tts"
)

func TestSynthesizeStream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	chunks := [][]byte{[]byte("chunk-one"), []byte("chunk-two")}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/voice-1/stream-input") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("xi-api-key"); got != "test-key" {
			t.Errorf("unexpected api key header: %q", got)
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		defer conn.Close()

		// BOS, text, EOS
		var bos map[string]interface{}
		if err := conn.ReadJSON(&bos); err != nil {
			t.Fatalf("read BOS: %v", err)
		}
		if _, ok := bos["voice_settings"]; !ok {
			t.Error("BOS missing voice_settings")
		}
		var textMsg map[string]string
		if err := conn.ReadJSON(&textMsg); err != nil {
			t.Fatalf("read text: %v", err)
		}
		if !strings.Contains(textMsg["text"], "Hello there") {
			t.Errorf("unexpected text message: %v", textMsg)
		}
		var eos map[string]string
		if err := conn.ReadJSON(&eos); err != nil {
			t.Fatalf("read EOS: %v", err)
		}
		if eos["text"] != "" {
			t.Errorf("unexpected EOS: %v", eos)
		}

		for i, chunk := range chunks {
			msg := map[string]interface{}{
				"audio":   base64.StdEncoding.EncodeToString(chunk),
				"isFinal": i == len(chunks)-1,
			}
			data, _ := json.Marshal(msg)
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				t.Fatalf("write chunk: %v", err)
			}
		}
	}))
	defer server.Close()

	stream, err := tts.NewElevenLabsStream(
		tts.WithAPIKey("test-key"),
		tts.WithVoice("voice-1"),
		tts.WithBaseURL("ws"+strings.TrimPrefix(server.URL, "http")),
	)
	if err != nil {
		t.Fatalf("NewElevenLabsStream: %v", err)
	}

	var received [][]byte
	err = stream.SynthesizeStream(context.Background(), "Hello there", func(chunk []byte) {
		received = append(received, chunk)
	})
	if err != nil {
		t.Fatalf("SynthesizeStream: %v", err)
	}

	if len(received) != len(chunks) {
		t.Fatalf("expected %d chunks, got %d", len(chunks), len(received))
	}
	for i := range chunks {
		if !bytes.Equal(received[i], chunks[i]) {
			t.Errorf("chunk %d mismatch: %q", i, received[i])
		}
	}
}

func TestSynthesizeStreamError(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		defer conn.Close()

		for i := 0; i < 3; i++ {
			var msg map[string]interface{}
			if err := conn.ReadJSON(&msg); err != nil {
				t.Fatalf("read: %v", err)
			}
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"voice not found"}`))
	}))
	defer server.Close()

	stream, err := tts.NewElevenLabsStream(
		tts.WithAPIKey("test-key"),
		tts.WithVoice("voice-1"),
		tts.WithBaseURL("ws"+strings.TrimPrefix(server.URL, "http")),
	)
	if err != nil {
		t.Fatalf("NewElevenLabsStream: %v", err)
	}

	err = stream.SynthesizeStream(context.Background(), "Hello", func([]byte) {
		t.Error("no audio expected")
	})
	if err == nil || !strings.Contains(err.Error(), "voice not found") {
		t.Errorf("expected stream error, got %v", err)
	}
}

func TestSynthesizeStreamEmptyText(t *testing.T) {
	stream, err := tts.NewElevenLabsStream(tts.WithAPIKey("k"), tts.WithVoice("v"))
	if err != nil {
		t.Fatalf("NewElevenLabsStream: %v", err)
	}
	err = stream.SynthesizeStream(context.Background(), "", func([]byte) {})
	if !errors.Is(err, tts.ErrNoText) {
		t.Errorf("expected ErrNoText, got %v", err)
	}
}
