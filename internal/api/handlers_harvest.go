package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pmctools/pmcharvest/internal/pipeline"
)

type harvestRequest struct {
	PMCIDs []string `json:"pmcids"`
}

// handleHarvest queues one job per requested PMCID.
func (s *Server) handleHarvest(w http.ResponseWriter, r *http.Request) {
	var req harvestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.PMCIDs) == 0 {
		jsonError(w, "pmcids is required", http.StatusBadRequest)
		return
	}

	jobs := make([]map[string]any, 0, len(req.PMCIDs))
	for _, pmcid := range req.PMCIDs {
		pmcid = strings.TrimSpace(pmcid)
		if pmcid == "" {
			continue
		}
		job := pipeline.NewJob(pmcid)
		entry := map[string]any{
			"job_id":   job.ID,
			"pmcid":    job.PMCID,
			"status":   job.Status,
			"poll_url": fmt.Sprintf("/api/harvest/%s/status", job.ID),
		}
		if err := s.orchestrator.Submit(job); err != nil {
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		jobs = append(jobs, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": jobs})
}

func (s *Server) handleHarvestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}
