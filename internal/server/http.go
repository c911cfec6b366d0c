package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *DatasetServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/compliance/classifications", s.handleClassifications)
	mux.HandleFunc("GET /v1/compliance/classifications/defaults", s.handleClassificationDefaults)
	mux.HandleFunc("GET /v1/compliance/logical-types", s.handleLogicalTypes)
	mux.HandleFunc("GET /v1/compliance/identifier-types", s.handleListIdentifierTypes)
	mux.HandleFunc("GET /v1/compliance/identifier-types/{type}", s.handleGetIdentifierType)
	mux.HandleFunc("POST /v1/datasets", s.handleCreateDataset)
	mux.HandleFunc("GET /v1/datasets", s.handleListDatasets)
	mux.HandleFunc("GET /v1/datasets/{id}", s.handleGetDataset)
	mux.HandleFunc("DELETE /v1/datasets/{id}", s.handleDeleteDataset)
	mux.HandleFunc("PUT /v1/datasets/{id}/schema", s.handleSetSchema)
	mux.HandleFunc("GET /v1/datasets/{id}/compliance", s.handleGetCompliance)
	mux.HandleFunc("PUT /v1/datasets/{id}/compliance", s.handleSetCompliance)
	mux.HandleFunc("GET /v1/datasets/{id}/events", s.handleGetEvents)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *DatasetServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps an error from a server helper to an HTTP status.
// entity names the missing record in 404 responses.
func writeServiceError(w http.ResponseWriter, err error, entity string) {
	var (
		ie inputError
		ce conflictError
		nf interface{ NotFound() bool }
	)
	switch {
	case errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, ie.Error())
	case errors.As(err, &ce):
		writeError(w, http.StatusConflict, ce.Error())
	case errors.As(err, &nf) && nf.NotFound():
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, entity+" not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
