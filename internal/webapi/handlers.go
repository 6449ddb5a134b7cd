// Package webapi exposes the timesheet service as a JSON HTTP API.
package webapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/Povusa/TECNOMAT/internal/contract"
	"github.com/Povusa/TECNOMAT/internal/dialogue"
	"github.com/Povusa/TECNOMAT/internal/service"
)

// Version is set at build time or defaults to dev.
var Version = "dev"

const (
	maxBodyBytes = 1 << 20
	banner       = "API de registro de partes de trabajo funcionando"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Client-facing error texts.
const (
	msgInvalidSession   = "Sesión no válida"
	msgSessionFinished  = "La sesión ya ha finalizado. Reinicia la sesión para registrar otro parte."
	msgUnknownState     = "Estado no reconocido"
	msgFileUnavailable  = "Archivo no disponible"
	msgBadRequest       = "Solicitud no válida"
	msgInternal         = "Error interno del servidor"
	msgSessionIDMissing = "Falta el identificador de sesión"
)

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	svc    service.TimesheetService
	logger *slog.Logger
}

// NewHandlers creates a new Handlers backed by svc.
func NewHandlers(svc service.TimesheetService, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{svc: svc, logger: logger}
}

// HandleIndex answers with a plain-text banner.
func (h *Handlers) HandleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, banner) //nolint:errcheck
}

// HandleHealth reports liveness and the number of open sessions.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Health(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	version := resp.Version
	if version == "" {
		version = Version
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         resp.Status,
		Version:        version,
		ActiveSessions: resp.ActiveSessions,
	})
}

// HandleStart opens or resumes a conversation.
func (h *Handlers) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	resp, err := h.svc.Start(r.Context(), contract.NewStartRequest(req.SessionID))
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	out := turnResponse(resp.Turn)
	out.SessionID = resp.SessionID
	writeJSON(w, http.StatusOK, out)
}

// HandleMessage feeds one answer into a conversation.
func (h *Handlers) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	resp, err := h.svc.SendMessage(r.Context(), contract.MessageRequest{
		SessionID: strings.TrimSpace(req.SessionID),
		Message:   req.Mensaje,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, turnResponse(resp.Turn))
	case errors.Is(err, service.ErrUnknownSession):
		writeError(w, http.StatusBadRequest, msgInvalidSession)
	case errors.Is(err, dialogue.ErrSessionFinished):
		writeError(w, http.StatusConflict, msgSessionFinished)
	case errors.Is(err, dialogue.ErrInvalidState):
		h.logger.WarnContext(r.Context(), "session in invalid state", "error", err)
		writeError(w, http.StatusBadRequest, msgUnknownState)
	default:
		h.internalError(w, r, err)
	}
}

// HandleDownload streams the generated report as an attachment.
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, msgSessionIDMissing)
		return
	}
	a, err := h.svc.FetchArtifact(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNoArtifact) || errors.Is(err, service.ErrUnknownSession) {
			writeError(w, http.StatusNotFound, msgFileUnavailable)
			return
		}
		h.internalError(w, r, err)
		return
	}
	defer a.Content.Close()

	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.FileName}))
	http.ServeContent(w, r, a.FileName, a.ModTime, a.Content)
}

// HandleReset discards a session and its report. Unknown ids succeed too.
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, msgSessionIDMissing)
		return
	}
	resp, err := h.svc.Reset(r.Context(), id)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ResetResponse{Mensaje: resp.Message})
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, svc service.TimesheetService, logger *slog.Logger) {
	h := NewHandlers(svc, logger)
	mux.HandleFunc("GET /{$}", h.HandleIndex)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("POST /api/start", h.HandleStart)
	mux.HandleFunc("POST /api/message", h.HandleMessage)
	mux.HandleFunc("GET /api/download/{id}", h.HandleDownload)
	mux.HandleFunc("POST /api/reset/{id}", h.HandleReset)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// "*" allows any origin.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowed["*"] || allowed[origin]) {
			if allowed["*"] {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func turnResponse(t contract.Turn) TurnResponse {
	return TurnResponse{
		Mensaje:           t.Message,
		Opciones:          t.Options,
		Estado:            t.Phase,
		ArchivoDisponible: t.ArtifactReady,
		Resumen:           t.Summary,
	}
}

// decodeBody reads a JSON body capped at maxBodyBytes. An empty body is only
// accepted when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, msgBadRequest)
		return false
	}
	writeError(w, http.StatusBadRequest, msgBadRequest)
	return false
}

func (h *Handlers) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, msgInternal)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
