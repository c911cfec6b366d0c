package server

import "net/http"

// handleClassifications handles GET /v1/compliance/classifications.
func (s *DatasetServer) handleClassifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"options": s.tables.SecurityClassificationDropdownOptions(),
	})
}

// handleClassificationDefaults handles GET /v1/compliance/classifications/defaults.
func (s *DatasetServer) handleClassificationDefaults(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.classificationDefaults())
}

// handleLogicalTypes handles GET /v1/compliance/logical-types?category=id|generic.
func (s *DatasetServer) handleLogicalTypes(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	opts, err := s.logicalTypes(category)
	if err != nil {
		writeServiceError(w, err, "category")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"options":  opts,
	})
}

// handleListIdentifierTypes handles GET /v1/compliance/identifier-types.
func (s *DatasetServer) handleListIdentifierTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"identifier_types": s.identifierTypes()})
}

// handleGetIdentifierType handles GET /v1/compliance/identifier-types/{type}.
func (s *DatasetServer) handleGetIdentifierType(w http.ResponseWriter, r *http.Request) {
	info, err := s.identifierType(r.PathValue("type"))
	if err != nil {
		writeServiceError(w, err, "identifier type")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleGetCompliance handles GET /v1/datasets/{id}/compliance.
func (s *DatasetServer) handleGetCompliance(w http.ResponseWriter, r *http.Request) {
	info, err := s.getCompliance(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "dataset")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleSetCompliance handles PUT /v1/datasets/{id}/compliance.
func (s *DatasetServer) handleSetCompliance(w http.ResponseWriter, r *http.Request) {
	var in setComplianceInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	info, err := s.setCompliance(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, err, "dataset")
		return
	}
	writeJSON(w, http.StatusOK, info)
}
