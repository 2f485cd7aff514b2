package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"patternweb/playground/pkg/app"
	"patternweb/playground/pkg/console"
	"patternweb/playground/pkg/server/middleware"
)

// maxSourceBytes bounds editor submissions.
const maxSourceBytes = 4 << 20

// runResponse is the payload of every endpoint that executes a pattern.
// Engine failures are reported here and in the lines, never as a 5xx.
type runResponse struct {
	RunID      string         `json:"run_id"`
	Label      string         `json:"label"`
	Lines      []console.Line `json:"lines"`
	UIConfig   string         `json:"ui_config,omitempty"`
	DurationMS float64        `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
}

type sourceRequest struct {
	Content string `json:"content"`
}

func (s *Server) newRunResponse(out app.Outcome) runResponse {
	resp := runResponse{
		RunID:      out.RunID,
		Label:      s.controller.Label(),
		Lines:      out.Lines,
		UIConfig:   out.UIConfig,
		DurationMS: float64(out.Duration.Microseconds()) / 1000,
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	return resp
}

// handleFile accepts a multipart upload in the "file" field.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	limit := s.config.Server.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "invalid_request", "data file too large")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "invalid_request", "expected multipart form with a file field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid_request", "missing file field")
		return
	}
	defer file.Close()

	if header.Size > limit {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "invalid_request", "data file too large")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid_request", "failed to read file")
		return
	}
	if int64(len(data)) > limit {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "invalid_request", "data file too large")
		return
	}

	out := s.controller.PickFile(r.Context(), header.Filename, data)
	writeJSON(w, http.StatusOK, s.newRunResponse(out))
}

func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Source())
}

// handlePutSource takes either {"content": "..."} or the raw program text.
func (s *Server) handlePutSource(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSourceBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "invalid_request", "source too large")
		return
	}

	content := string(body)
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		var req sourceRequest
		if err := json.Unmarshal(body, &req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
		content = req.Content
	}

	writeJSON(w, http.StatusOK, s.controller.SetEditorSource(content))
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	out := s.controller.Rerun(r.Context())
	writeJSON(w, http.StatusOK, s.newRunResponse(out))
}

// handleConsole returns the feed as JSON, or as HTML with ?format=html.
func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	lines := s.controller.Lines()

	if r.URL.Query().Get("format") == "html" {
		var buf bytes.Buffer
		if err := console.NewHTMLSink(&buf).Write(lines); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, "server_error", "failed to render console")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"lines": lines})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.State())
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := s.controller.History(r.Context(), limit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to list runs", "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "server_error", "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
