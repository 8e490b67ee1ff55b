// Package web provides a simple web UI for focal.
package web

import (
	"embed"
	"html/template"
	"net/http"

	"focal/internal/model"
	"focal/internal/store"
)

// Server provides the web UI handlers and state.
type Server struct {
	store *store.Store
}

// NewServer creates a new web server.
func NewServer(st *store.Store) (*Server, error) {
	return &Server{store: st}, nil
}

//go:embed templates/*.html
var templatesFS embed.FS

// Routes returns the router for the web UI.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("POST /tasks/{id}/done", s.handleMarkDone)
	mux.HandleFunc("POST /tasks/{id}/dismiss", s.handleDismiss)
	mux.HandleFunc("POST /reflections/{id}/toggle", s.handleToggleReflection)
	return mux
}

type indexData struct {
	Tasks       []model.Task
	Reflections []model.Reflection
	Plan        *store.PlanRecord
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := indexData{}
	data.Tasks, err = s.store.ListTasks(r.Context(), model.StatusPending)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data.Reflections, err = s.store.ListReflections(r.Context(), false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if plan, err := s.store.LatestPlan(r.Context()); err == nil {
		data.Plan = &plan
	}

	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleMarkDone(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.MarkStatus(r.Context(), id, model.StatusDone); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.MarkStatus(r.Context(), id, model.StatusDismissed); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleToggleReflection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.ToggleReflection(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
