// Package contract holds the request and response types shared by the
// service layer and its transports (HTTP and the terminal chat).
package contract

import (
	"io"
	"strings"
	"time"

	"github.com/Povusa/TECNOMAT/internal/domain"
)

// StartRequest opens a conversation. An empty SessionID asks the service to
// allocate one.
type StartRequest struct {
	SessionID string
}

// NewStartRequest trims the client-supplied id.
func NewStartRequest(sessionID string) StartRequest {
	return StartRequest{SessionID: strings.TrimSpace(sessionID)}
}

// Turn is one message from the assistant.
type Turn struct {
	Phase         domain.Phase
	Message       string
	Options       []string
	ArtifactReady bool
	Summary       string
}

// Finished reports whether the conversation accepts no more input.
func (t Turn) Finished() bool {
	return t.Phase.Terminal()
}

type StartResponse struct {
	SessionID string
	Turn      Turn
	// Resumed is true when SessionID already existed.
	Resumed bool
}

type MessageRequest struct {
	SessionID string
	Message   string
}

type MessageResponse struct {
	SessionID string
	Turn      Turn
}

// Artifact is an open generated report. The caller closes Content.
type Artifact struct {
	FileName string
	ModTime  time.Time
	Content  io.ReadSeekCloser
}

// ResetMessage is returned whether or not the session existed.
const ResetMessage = "Sesión reiniciada correctamente"

type ResetResponse struct {
	Message string
	Existed bool
}

type EvictResponse struct {
	Evicted []string
}

type HealthResponse struct {
	Status         string
	Version        string
	ActiveSessions int
}
