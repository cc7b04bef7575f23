package api

import (
	"encoding/json"
	"io"
	stdlog "log"
	"net/http"
	"os"

	"github.com/dangerclosesec/topo"
	"github.com/dangerclosesec/topo/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-multierror"
)

var (
	log = stdlog.New(os.Stdout, "\033[35;4;239m[ api    ]\033[0m ", stdlog.Lmicroseconds|stdlog.Lmsgprefix|stdlog.Ldate|stdlog.Lmicroseconds)
)

// maxDocumentSize bounds submitted documents on the validate endpoint.
const maxDocumentSize = 1 << 20

// Handler serves the read-only document API. Nothing here mutates the
// store; rewrites only ever arrive through its file watcher.
func Handler(s *topo.Store) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware)

	r.Get("/healthz", health(s))

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/spec", spec(s))
		r.Get("/spec/pods", pods(s))
		r.Get("/spec/pods/{pod}", pod(s))
		r.Get("/endpoints", endpoints(s))
		r.Post("/validate", validate())
		r.Get("/watch", watch(s))
	})

	return r
}

// loggingMiddleware adds custom request logging
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("API Request: %s %s", r.Method, r.URL.Path)
		metrics.APIRequests.WithLabelValues(r.Method, r.URL.Path).Inc()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func health(s *topo.Store) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.GetHealth())
	}
}

func spec(s *topo.Store) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.Spec())
	}
}

func pods(s *topo.Store) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.Spec().Pods)
	}
}

func pod(s *topo.Store) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "pod")
		p, ok := s.Spec().Pods[name]
		if !ok {
			http.Error(w, "pod type not found", http.StatusNotFound)
			return
		}
		writeJSON(w, p)
	}
}

func endpoints(s *topo.Store) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		eps, err := s.Spec().Endpoints()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, eps)
	}
}

// validationResult is the response body of the validate endpoint.
type validationResult struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

// validate parses and validates a candidate document from the request
// body without touching the served one.
func validate() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentSize))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		result := validationResult{Valid: true}

		candidate, err := topo.Parse(body)
		if err == nil {
			err = candidate.Validate()
		}
		if err != nil {
			result.Valid = false
			result.Problems = problemList(err)
			metrics.Validations.WithLabelValues("invalid").Inc()
		} else {
			metrics.Validations.WithLabelValues("valid").Inc()
		}

		writeJSON(w, result)
	}
}

// problemList flattens an aggregated validation error into one message
// per problem.
func problemList(err error) []string {
	if merr, ok := err.(*multierror.Error); ok {
		problems := make([]string, 0, len(merr.Errors))
		for _, e := range merr.Errors {
			problems = append(problems, e.Error())
		}
		return problems
	}
	return []string{err.Error()}
}
