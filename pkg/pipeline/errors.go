package pipeline

import "fmt"

// Stage names used in failure reports.
type Stage string

const (
	StageTranscribe Stage = "transcribe"
	StageSynthesize Stage = "synthesize"
)

// StageError reports a collaborator failure inside one pipeline stage.
// Decision-stage faults never surface this way: the agent always returns
// speakable fallback text instead.
type StageError struct {
	// Stage identifies the failed stage.
	Stage Stage

	// SessionID is the session whose turn failed.
	SessionID string

	// Err is the underlying collaborator error.
	Err error

	// Result carries the completed textual exchange when the text
	// stages finished before the failure (synthesis faults only).
	// The session's history retains these entries.
	Result *Result
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline [%s]: stage %s failed: %v", e.SessionID, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}
