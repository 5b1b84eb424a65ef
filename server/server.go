// Package server exposes a session of analyzed rune documents over HTTP.
// The surface is a thin JSON adapter: every endpoint delegates to the
// session store or to a retained analysis result, and no checking logic
// lives here.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/theTechGoose/rune/analysis"
	"github.com/theTechGoose/rune/notation"
	"github.com/theTechGoose/rune/session"
)

// maxRequestBodySize limits POST body sizes to prevent DoS.
const maxRequestBodySize = 1 << 20 // 1 MB

// Server serves queries against one session store.
type Server struct {
	store   *session.Store
	logger  *slog.Logger
	metrics *metrics
}

// New creates a server over the given session.
func New(store *session.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:   store,
		logger:  logger,
		metrics: newMetrics(),
	}
}

// RegisterHandlers registers all endpoints under the given prefix.
// The prefix should be the path segment without a trailing slash
// (e.g. "api"). Handlers are registered as:
//
//	GET    <prefix>/health
//	GET    <prefix>/documents
//	POST   <prefix>/documents
//	DELETE <prefix>/documents
//	GET    <prefix>/diagnostics
//	POST   <prefix>/describe
//	POST   <prefix>/definition
//	POST   <prefix>/references
//	POST   <prefix>/scope
//	GET    /metrics
func (s *Server) RegisterHandlers(prefix string, mux *http.ServeMux) {
	// Normalise: ensure leading slash and trailing slash.
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	mux.HandleFunc(prefix+"health", s.handleHealth)
	mux.HandleFunc(prefix+"documents", s.handleDocuments)
	mux.HandleFunc(prefix+"diagnostics", s.handleDiagnostics)
	mux.HandleFunc(prefix+"describe", s.handleDescribe)
	mux.HandleFunc(prefix+"definition", s.handleDefinition)
	mux.HandleFunc(prefix+"references", s.handleReferences)
	mux.HandleFunc(prefix+"scope", s.handleScope)
	mux.Handle("/metrics", s.metrics.handler())
}

// Handler returns an http.Handler with everything registered under /api.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterHandlers("api", mux)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("Server listening",
		slog.String("addr", addr),
		slog.String("session", s.store.ID()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// ----------------------------------------------------------------------------
// GET /api/health
// ----------------------------------------------------------------------------

// HealthResponse is the response from GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Session   string `json:"session"`
	Documents int    `json:"documents"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Session:   s.store.ID(),
		Documents: s.store.Len(),
	})
}

// ----------------------------------------------------------------------------
// GET/POST/DELETE /api/documents
// ----------------------------------------------------------------------------

// UpdateRequest is the request body for POST /api/documents.
type UpdateRequest struct {
	// URI identifies the document within the session.
	URI string `json:"uri"`

	// Version orders edits of the same document; lower versions are stale.
	Version int `json:"version"`

	// Text is the full document content.
	Text string `json:"text"`
}

// UpdateResponse is the response body for POST /api/documents.
type UpdateResponse struct {
	URI     string `json:"uri"`
	Version int    `json:"version"`

	// Retained is false when the update was discarded as stale; the
	// diagnostics then belong to the version already held.
	Retained    bool                  `json:"retained"`
	Errors      bool                  `json:"errors"`
	Diagnostics []notation.Diagnostic `json:"diagnostics"`
}

// ListResponse is the response body for GET /api/documents.
type ListResponse struct {
	Session string   `json:"session"`
	URIs    []string `json:"uris"`
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, ListResponse{
			Session: s.store.ID(),
			URIs:    s.store.URIs(),
		})

	case http.MethodPost:
		s.handleUpdate(w, r)

	case http.MethodDelete:
		uri := r.URL.Query().Get("uri")
		if uri == "" {
			http.Error(w, "uri query parameter is required", http.StatusBadRequest)
			return
		}
		s.store.Remove(uri)
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.URI == "" {
		http.Error(w, "uri is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	doc, retained := s.store.Update(req.URI, req.Version, req.Text)

	if retained {
		s.metrics.analyses.Inc()
		s.metrics.duration.Observe(time.Since(start).Seconds())
		for _, d := range doc.Result.Diagnostics {
			s.metrics.diagnostics.WithLabelValues(d.Severity.String()).Inc()
		}
	} else {
		s.metrics.stale.Inc()
	}

	writeJSON(w, http.StatusOK, UpdateResponse{
		URI:         doc.URI,
		Version:     doc.Version,
		Retained:    retained,
		Errors:      doc.Result.HasErrors(),
		Diagnostics: doc.Result.Diagnostics,
	})
}

// ----------------------------------------------------------------------------
// GET /api/diagnostics
// ----------------------------------------------------------------------------

// DiagnosticsResponse is the response body for GET /api/diagnostics.
type DiagnosticsResponse struct {
	URI         string                `json:"uri"`
	Version     int                   `json:"version"`
	Errors      bool                  `json:"errors"`
	Diagnostics []notation.Diagnostic `json:"diagnostics"`
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	doc, ok := s.document(w, r.URL.Query().Get("uri"))
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, DiagnosticsResponse{
		URI:         doc.URI,
		Version:     doc.Version,
		Errors:      doc.Result.HasErrors(),
		Diagnostics: doc.Result.Diagnostics,
	})
}

// ----------------------------------------------------------------------------
// POST /api/describe
// ----------------------------------------------------------------------------

// PositionRequest addresses a point inside a tracked document.
type PositionRequest struct {
	URI      string            `json:"uri"`
	Position notation.Position `json:"position"`
}

// DescribeResponse is the response body for POST /api/describe.
type DescribeResponse struct {
	Description string `json:"description"`
	Found       bool   `json:"found"`
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	doc, req, ok := s.positioned(w, r)
	if !ok {
		return
	}

	text, found := doc.Result.DescribeAt(req.Position)
	writeJSON(w, http.StatusOK, DescribeResponse{Description: text, Found: found})
}

// ----------------------------------------------------------------------------
// POST /api/definition
// ----------------------------------------------------------------------------

// DefinitionResponse is the response body for POST /api/definition.
type DefinitionResponse struct {
	Span  notation.Span `json:"span"`
	Found bool          `json:"found"`
}

func (s *Server) handleDefinition(w http.ResponseWriter, r *http.Request) {
	doc, req, ok := s.positioned(w, r)
	if !ok {
		return
	}

	span, found := doc.Result.ResolveDefinition(req.Position)
	writeJSON(w, http.StatusOK, DefinitionResponse{Span: span, Found: found})
}

// ----------------------------------------------------------------------------
// POST /api/references
// ----------------------------------------------------------------------------

// ReferencesRequest is the request body for POST /api/references.
type ReferencesRequest struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// ReferencesResponse is the response body for POST /api/references.
type ReferencesResponse struct {
	Name  string          `json:"name"`
	Spans []notation.Span `json:"spans"`
}

func (s *Server) handleReferences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req ReferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	doc, ok := s.document(w, req.URI)
	if !ok {
		return
	}

	spans := doc.Result.FindReferences(req.Name)
	if spans == nil {
		spans = []notation.Span{}
	}
	writeJSON(w, http.StatusOK, ReferencesResponse{Name: req.Name, Spans: spans})
}

// ----------------------------------------------------------------------------
// POST /api/scope
// ----------------------------------------------------------------------------

// ScopeResponse is the response body for POST /api/scope.
type ScopeResponse struct {
	Bindings []analysis.Binding `json:"bindings"`
}

func (s *Server) handleScope(w http.ResponseWriter, r *http.Request) {
	doc, req, ok := s.positioned(w, r)
	if !ok {
		return
	}

	bindings := doc.Result.ScopeAt(req.Position)
	if bindings == nil {
		bindings = []analysis.Binding{}
	}
	writeJSON(w, http.StatusOK, ScopeResponse{Bindings: bindings})
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// positioned parses a PositionRequest and resolves its document. A false
// return means the response has already been written.
func (s *Server) positioned(w http.ResponseWriter, r *http.Request) (*session.Document, PositionRequest, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, PositionRequest{}, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return nil, PositionRequest{}, false
	}

	doc, ok := s.document(w, req.URI)
	if !ok {
		return nil, PositionRequest{}, false
	}
	return doc, req, true
}

// document resolves uri in the session or writes a 404.
func (s *Server) document(w http.ResponseWriter, uri string) (*session.Document, bool) {
	if uri == "" {
		http.Error(w, "uri is required", http.StatusBadRequest)
		return nil, false
	}
	doc, ok := s.store.Get(uri)
	if !ok {
		http.Error(w, "document not tracked: "+uri, http.StatusNotFound)
		return nil, false
	}
	return doc, true
}

// writeJSON marshals v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to encode response", slog.String("error", err.Error()))
	}
}
