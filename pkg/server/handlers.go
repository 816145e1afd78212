package server

import (
	"encoding/json"
	"errors"
	"net/http"

	apierrors "github.com/HelixDevelopment/cognigraph/pkg/errors"
	"github.com/HelixDevelopment/cognigraph/pkg/orchestrator"
	"github.com/HelixDevelopment/cognigraph/pkg/types"
)

// maxRequestBody caps request bodies at 4 MiB
const maxRequestBody = 4 << 20

type addKnowledgeRequest struct {
	Knowledge types.Knowledge   `json:"knowledge"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type addKnowledgeResponse struct {
	NodeIDs []string `json:"node_ids"`
}

type queryRequest struct {
	Query   string            `json:"query"`
	Filters map[string]string `json:"filters,omitempty"`
	Limit   int               `json:"limit,omitempty"`
}

type queryResponse struct {
	Results []types.SearchResult `json:"results"`
}

type insightsRequest struct {
	AnalysisType string                 `json:"analysis_type"`
	Parameters   map[string]interface{} `json:"parameters,omitempty"`
}

func (s *Server) handleAddKnowledge(w http.ResponseWriter, r *http.Request) {
	var req addKnowledgeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	ids, err := s.orch.AddKnowledge(r.Context(), req.Knowledge, req.Metadata)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, addKnowledgeResponse{NodeIDs: ids})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Query == "" {
		s.writeJSON(w, http.StatusBadRequest, apierrors.APIError{
			Code:    http.StatusBadRequest,
			Message: "query is required",
		})
		return
	}

	results, err := s.orch.QueryKnowledge(r.Context(), req.Query, req.Filters, req.Limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if results == nil {
		results = []types.SearchResult{}
	}

	s.writeJSON(w, http.StatusOK, queryResponse{Results: results})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	var req insightsRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	envelope, err := s.orch.GetInsights(r.Context(), req.AnalysisType, req.Parameters)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orch.GetStatus(r.Context()))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := s.orch.GetStatus(r.Context())

	code := http.StatusOK
	if !status.Initialized || !status.Health.Healthy {
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, status.Health)
}

// decodeBody parses the JSON request body, writing a 400 on failure
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, apierrors.APIError{
			Code:    http.StatusBadRequest,
			Message: "invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}

// writeError maps pipeline errors to HTTP status codes
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if errors.Is(err, orchestrator.ErrNotInitialized) {
		code = http.StatusConflict
	}

	s.writeJSON(w, code, apierrors.APIError{
		Code:    code,
		Message: err.Error(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}
