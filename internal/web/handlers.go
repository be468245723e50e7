package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/tablecheck/internal/core"
	"github.com/JonMunkholm/tablecheck/internal/schema"
	"github.com/JonMunkholm/tablecheck/internal/store"
	"github.com/JonMunkholm/tablecheck/internal/web/templates"
)

// handleValidate validates a posted package descriptor. The descriptor is
// JSON or YAML according to Content-Type; local paths must stay inside the
// data root. The response is the report, valid or not.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	enc, err := descriptorEncoding(r.Header.Get("Content-Type"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodySize))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			err = fmt.Errorf("%w: limit %d bytes", core.ErrRequestBodyTooBig, tooBig.Limit)
		}
		s.respondError(w, r, err)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		s.respondError(w, r, core.ErrEmptyDescriptor)
		return
	}

	root, err := filepath.Abs(s.opts.DataRoot)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	pkg, err := schema.DecodeWithin(body, enc, root)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := core.ContextWithTrigger(r.Context(), core.TriggerHTTP)
	rep, _, err := s.service.Validate(ctx, pkg)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep.Document())
}

// handleListReports returns summaries of recent reports, newest first.
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	summaries, err := s.service.ListReports(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": summaries})
}

// handleGetReport returns a stored report document.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleReportPage renders a stored report as HTML.
func (s *Server) handleReportPage(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ReportPage(doc).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err)
	}
}

// handleHealth reports liveness and run capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.service.Limiter().Status()
	state := "ok"
	if status.Available == 0 {
		state = "busy"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  state,
		"limiter": status,
	})
}

// descriptorEncoding maps a request Content-Type to a descriptor encoding.
// A missing Content-Type is read as JSON.
func descriptorEncoding(contentType string) (schema.Encoding, error) {
	if contentType == "" {
		return schema.EncodingJSON, nil
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", core.ErrUnsupportedMedia, contentType)
	}
	switch mt {
	case "application/json":
		return schema.EncodingJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return schema.EncodingYAML, nil
	}
	return 0, fmt.Errorf("%w: %s", core.ErrUnsupportedMedia, mt)
}
