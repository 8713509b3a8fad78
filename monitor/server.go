// Package monitor serves a read-only JSON view of the live queue while a run is going.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"watcher/tasks"
)

// Source is anything that can hand out a copy of the current queue.
type Source interface {
	Snapshot() []tasks.VideoTask
}

// Status counts queue entries by state.
type Status struct {
	RunID   string `json:"run_id,omitempty"`
	Total   int    `json:"total"`
	Watched int    `json:"watched"`
	Pending int    `json:"pending"`
}

type Server struct {
	src   Source
	runID string
}

func NewServer(src Source, runID string) *Server {
	return &Server{src: src, runID: runID}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")

	r.HandleFunc("/api/tasks", func(w http.ResponseWriter, r *http.Request) {
		q := s.src.Snapshot()
		if q == nil {
			q = []tasks.VideoTask{}
		}
		writeJSON(w, q)
	}).Methods("GET")

	r.HandleFunc("/api/tasks/{index}", func(w http.ResponseWriter, r *http.Request) {
		i, err := strconv.Atoi(mux.Vars(r)["index"])
		if err != nil {
			http.Error(w, "bad index", http.StatusBadRequest)
			return
		}
		q := s.src.Snapshot()
		if i < 0 || i >= len(q) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, q[i])
	}).Methods("GET")

	r.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.status())
	}).Methods("GET")

	return r
}

func (s *Server) status() Status {
	st := Status{RunID: s.runID}
	for _, t := range s.src.Snapshot() {
		st.Total++
		if t.IsWatched {
			st.Watched++
		} else {
			st.Pending++
		}
	}
	return st
}

// ListenAndServe runs the status server until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Printf("📡 Status server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
