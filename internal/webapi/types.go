package webapi

import "github.com/Povusa/TECNOMAT/internal/domain"

// Field names follow the browser client, which predates this server.

type StartRequest struct {
	SessionID string `json:"session_id"`
}

type MessageRequest struct {
	SessionID string `json:"session_id"`
	Mensaje   string `json:"mensaje"`
}

// TurnResponse is returned by start and message.
type TurnResponse struct {
	SessionID         string       `json:"session_id,omitempty"`
	Mensaje           string       `json:"mensaje"`
	Opciones          []string     `json:"opciones"`
	Estado            domain.Phase `json:"estado"`
	ArchivoDisponible bool         `json:"archivo_disponible,omitempty"`
	Resumen           string       `json:"resumen,omitempty"`
}

type ResetResponse struct {
	Mensaje string `json:"mensaje"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	ActiveSessions int    `json:"active_sessions"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
