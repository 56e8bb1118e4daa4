package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/hibiken/asynq"

	httpSrv "autograder/internal/http"
	"autograder/internal/schemas"
)

type Server struct {
	Grading httpSrv.Grading
	// Stdout receives one report line per grading; nil means os.Stdout.
	Stdout io.Writer

	mu sync.Mutex
}

func (s *Server) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(httpSrv.TaskRunGrading, s.handleGrading)
	return mux
}

func (s *Server) handleGrading(ctx context.Context, t *asynq.Task) error {
	var p schemas.GradeTask
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	log.Printf("worker: starting grading %s", p.ID)

	res, err := s.Grading.Grade(ctx, p.Rubric)
	if err != nil {
		log.Printf("worker: grading %s: %v", p.ID, err)
		return fmt.Errorf("grading %s: %v: %w", p.ID, err, asynq.SkipRetry)
	}

	s.mu.Lock()
	out := s.Stdout
	if out == nil {
		out = os.Stdout
	}
	err = res.Report.Write(out)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("write report %s: %w", p.ID, err)
	}

	if code := s.Grading.ExitCode(res.AllPassed); code != 0 {
		return fmt.Errorf("grading %s exited %d: %w", p.ID, code, asynq.SkipRetry)
	}
	log.Printf("worker: finished grading %s", p.ID)
	return nil
}

// Run consumes gradings from the Redis queue at addr, one at a time.
func Run(addr string, g httpSrv.Grading) error {
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: addr}, asynq.Config{Concurrency: 1})
	w := &Server{Grading: g}
	return srv.Run(w.mux())
}
