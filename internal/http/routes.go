package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	m "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"autograder/internal/grader"
	"autograder/internal/rubric"
	"autograder/internal/schemas"
)

// TaskRunGrading is the queue task type consumed by the worker.
const TaskRunGrading = "run_grading"

// Grading is the service behind the API.
type Grading interface {
	Grade(ctx context.Context, ref string) (*grader.Result, error)
	ExitCode(allPassed bool) int
}

// Enqueuer is the part of *asynq.Client the API uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Server struct {
	Grading Grading
	Queue   Enqueuer
	// DefaultRubric is the only file path callers may name; every other
	// rubric must come from object storage or the database.
	DefaultRubric string
	// Ping checks backend health; nil means there is nothing to check.
	Ping func(ctx context.Context) error
}

// Handler returns the API routes. Every route except /healthz requires
// token as a bearer token.
func (s *Server) Handler(token string) http.Handler {
	r := chi.NewRouter()
	r.Use(m.RequestID, m.RealIP, m.Logger, m.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(RequireAPIToken(token))
		r.Post("/gradings", s.grade)
		r.Post("/gradings/async", s.enqueue)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if s.Ping != nil {
			if err := s.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "db error"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

// NewServer returns an http.Server for s listening on addr.
func NewServer(addr, token string, s *Server) *http.Server {
	return &http.Server{Addr: addr, Handler: s.Handler(token)}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) decodeRequest(r *http.Request) (schemas.GradeRequest, error) {
	var req schemas.GradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		return req, err
	}
	switch ref := req.Rubric; {
	case ref == "", ref == s.DefaultRubric:
	case strings.HasPrefix(ref, rubric.S3Prefix), strings.HasPrefix(ref, rubric.DBPrefix):
	default:
		return req, fmt.Errorf("rubric %q is not %s..., %s... or the default rubric", ref, rubric.S3Prefix, rubric.DBPrefix)
	}
	return req, nil
}

func (s *Server) grade(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, schemas.ErrorResponse{Error: err.Error()})
		return
	}
	res, err := s.Grading.Grade(r.Context(), req.Rubric)
	if err != nil {
		code := http.StatusInternalServerError
		var le *rubric.LoadError
		if errors.As(err, &le) {
			code = http.StatusUnprocessableEntity
		}
		writeJSON(w, code, schemas.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, schemas.GradeResponse{
		Scores:    res.Report,
		AllPassed: res.AllPassed,
		ExitCode:  s.Grading.ExitCode(res.AllPassed),
		Summary:   grader.Summarize(res),
	})
}

func (s *Server) enqueue(w http.ResponseWriter, r *http.Request) {
	if s.Queue == nil {
		writeJSON(w, http.StatusServiceUnavailable, schemas.ErrorResponse{Error: "queue is not configured"})
		return
	}
	req, err := s.decodeRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, schemas.ErrorResponse{Error: err.Error()})
		return
	}
	id := uuid.NewString()
	payload, _ := json.Marshal(schemas.GradeTask{ID: id, Rubric: req.Rubric})
	task := asynq.NewTask(TaskRunGrading, payload)
	info, err := s.Queue.EnqueueContext(r.Context(), task, asynq.MaxRetry(0), asynq.TaskID(id))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, schemas.ErrorResponse{Error: err.Error()})
		return
	}
	log.Printf("enqueued grading %s for %q", info.ID, req.Rubric)
	writeJSON(w, http.StatusAccepted, schemas.EnqueuedResponse{TaskID: info.ID})
}
