package web

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/showroomlabs/go-showroom/pkg/pipeline"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleSummary returns the conversation summary for a session. Unknown
// session IDs yield an empty summary rather than an error.
func (s *Server) handleSummary(c *fiber.Ctx) error {
	sessionID := c.Params("session")
	return c.JSON(s.orchestrator.Store().Summary(sessionID))
}

// wsError is the payload sent to the client when a turn fails. When the
// text stages completed before the failure, the exchange rides along so
// the client can still display it.
type wsError struct {
	Error    string `json:"error"`
	Stage    string `json:"stage"`
	UserText string `json:"user_text,omitempty"`
	AIText   string `json:"ai_text,omitempty"`
}

// handleVoiceWS runs the voice loop for one connection. Each binary frame
// is one complete utterance; the reply is a JSON turn result, or JSON null
// when the frame held no recognizable speech. A failed turn is reported to
// the client and the loop continues; only socket faults end the connection.
func (s *Server) handleVoiceWS(c *websocket.Conn) {
	sessionID := c.Params("session")
	s.logger.Info("voice session connected", "session_id", sessionID)
	defer s.logger.Info("voice session disconnected", "session_id", sessionID)

	for {
		msgType, data, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("socket read ended", "session_id", sessionID, "error", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		result, err := s.processFrame(sessionID, data)
		if err != nil {
			reply := wsError{Error: "processing failed", Stage: "pipeline"}
			var stageErr *pipeline.StageError
			if errors.As(err, &stageErr) {
				reply.Stage = string(stageErr.Stage)
				if stageErr.Result != nil {
					reply.UserText = stageErr.Result.UserText
					reply.AIText = stageErr.Result.AIText
				}
			}
			s.logger.Error("turn failed", "session_id", sessionID, "stage", reply.Stage, "error", err)
			if werr := c.WriteJSON(reply); werr != nil {
				return
			}
			continue
		}

		// result is nil when no speech was detected; the client still
		// gets an answer (JSON null) so it can resume recording.
		if err := c.WriteJSON(result); err != nil {
			return
		}
	}
}

// processFrame spools one utterance to the upload directory and runs the
// pipeline over the spooled copy. The spool file is removed when the turn
// completes, whatever the outcome. Spool failures fall back to the
// in-memory frame so a full upload disk never drops a turn.
func (s *Server) processFrame(sessionID string, audio []byte) (*pipeline.Result, error) {
	if s.config.UploadDir != "" {
		path, err := s.spool(audio)
		if err != nil {
			s.logger.Warn("upload spool failed", "session_id", sessionID, "error", err)
		} else {
			defer os.Remove(path)
			data, err := os.ReadFile(path)
			if err != nil {
				s.logger.Warn("upload read failed", "session_id", sessionID, "error", err)
			} else {
				audio = data
			}
		}
	}
	return s.orchestrator.ProcessTurn(context.Background(), sessionID, audio)
}

// spool writes one utterance into the upload directory under a fresh name.
func (s *Server) spool(audio []byte) (string, error) {
	if err := os.MkdirAll(s.config.UploadDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("upload_%s.webm", strings.ReplaceAll(uuid.NewString(), "-", ""))
	path := filepath.Join(s.config.UploadDir, name)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
