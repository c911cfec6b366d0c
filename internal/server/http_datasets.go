package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jiaofangliang/datahub/internal/model"
)

// handleCreateDataset handles POST /v1/datasets.
func (s *DatasetServer) handleCreateDataset(w http.ResponseWriter, r *http.Request) {
	var in createDatasetInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	ds, err := s.createDataset(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, "dataset")
		return
	}

	writeJSON(w, http.StatusCreated, ds)
}

// handleListDatasets handles GET /v1/datasets.
func (s *DatasetServer) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.DatasetFilter{
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	}
	if v := q.Get("platform"); v != "" {
		filter.Platform = strings.Split(v, ",")
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	datasets, total, err := s.listDatasets(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err, "dataset")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"datasets": datasets,
		"total":    total,
	})
}

// handleGetDataset handles GET /v1/datasets/{id}.
func (s *DatasetServer) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.getDataset(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "dataset")
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// handleDeleteDataset handles DELETE /v1/datasets/{id}.
func (s *DatasetServer) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := s.deleteDataset(r.Context(), r.PathValue("id"), r.URL.Query().Get("actor")); err != nil {
		writeServiceError(w, err, "dataset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetSchema handles PUT /v1/datasets/{id}/schema.
func (s *DatasetServer) handleSetSchema(w http.ResponseWriter, r *http.Request) {
	var in setSchemaInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	ds, err := s.setSchema(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, err, "dataset")
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// handleGetEvents handles GET /v1/datasets/{id}/events.
func (s *DatasetServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	evts, err := s.getEvents(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "dataset")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": evts})
}
