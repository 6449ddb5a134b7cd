package service

import (
	"context"

	"github.com/Povusa/TECNOMAT/internal/contract"
)

// TimesheetService runs timesheet conversations on behalf of a transport.
type TimesheetService interface {
	Start(ctx context.Context, req contract.StartRequest) (*contract.StartResponse, error)
	SendMessage(ctx context.Context, req contract.MessageRequest) (*contract.MessageResponse, error)
	FetchArtifact(ctx context.Context, sessionID string) (*contract.Artifact, error)
	Reset(ctx context.Context, sessionID string) (*contract.ResetResponse, error)
	EvictIdle(ctx context.Context) (*contract.EvictResponse, error)
	Health(ctx context.Context) (*contract.HealthResponse, error)
}
