package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/benfordscope/benfordscope/pkg/storage"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if stats == nil {
		stats = []storage.YearStats{}
	}
	writeJSON(w, stats)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.DB.ListRuns(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []storage.Run{}
	}
	writeJSON(w, runs)
}

func (s *Server) handleFindings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := storage.FindingFilter{
		RunID: q.Get("run"),
		Kind:  q.Get("kind"),
	}
	var err error
	if v := q.Get("year"); v != "" {
		if opts.Year, err = strconv.Atoi(v); err != nil {
			http.Error(w, "bad year", http.StatusBadRequest)
			return
		}
	}
	if v := q.Get("min_score"); v != "" {
		if opts.MinScore, err = strconv.ParseFloat(v, 64); err != nil {
			http.Error(w, "bad min_score", http.StatusBadRequest)
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		if opts.Limit, err = strconv.Atoi(v); err != nil {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
	}

	findings, err := s.DB.ListFindings(r.Context(), opts)
	if errors.Is(err, storage.ErrNoRuns) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if findings == nil {
		findings = []storage.FindingRow{}
	}
	writeJSON(w, findings)
}
