package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hibiken/asynq"

	"autograder/internal/app"
	"autograder/internal/config"
	"autograder/internal/grader"
	"autograder/internal/rubric"
	"autograder/internal/schemas"
)

const token = "test-token"

// exitCodes is a grader.Runner answering from a table keyed by filter argument.
type exitCodes map[string]int

func (c exitCodes) Run(ctx context.Context, path string, args []string) (int, error) {
	return c[args[0]], nil
}

type fakeQueue struct {
	tasks []*asynq.Task
}

func (q *fakeQueue) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	q.tasks = append(q.tasks, task)
	var p schemas.GradeTask
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return nil, err
	}
	return &asynq.TaskInfo{ID: p.ID, Type: task.Type()}, nil
}

func newTestServer(t *testing.T, codes exitCodes) (*httptest.Server, *fakeQueue, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rubric.csv")
	if err := os.WriteFile(path, []byte("exec,test,subtest,score\nt1,Suite,CaseA,10\nt1,Suite,CaseB,5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Rubric = path
	a := &app.App{
		Config:  cfg,
		Grader:  grader.New(codes, app.Options(cfg)),
		Rubrics: &rubric.Resolver{},
	}
	q := &fakeQueue{}
	srv := httptest.NewServer((&Server{Grading: a, Queue: q, DefaultRubric: path}).Handler(token))
	t.Cleanup(srv.Close)
	return srv, q, path
}

func post(t *testing.T, url, body string, auth bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestGrade(t *testing.T) {
	srv, _, _ := newTestServer(t, exitCodes{"--gtest_filter=Suite.CaseB": 1})
	res := post(t, srv.URL+"/gradings", "", true)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d; want 200", res.StatusCode)
	}
	var got schemas.GradeResponse
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	want := schemas.GradeResponse{
		Scores:    grader.Report{"CaseA": "10", "CaseB": "0"},
		AllPassed: false,
		ExitCode:  grader.ExitFailure,
		Summary:   grader.Summary{Earned: 10, Possible: 15, Passed: 1, Failed: 1},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("response mismatch (-got +want):\n%s", diff)
	}
}

func TestGradeRubricErrors(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	for body, want := range map[string]int{
		`{"rubric":"db:p1"}`:           http.StatusUnprocessableEntity,
		`{"rubric":"s3://b/r.csv"}`:    http.StatusUnprocessableEntity,
		`{"rubric":"/etc/rubric.csv"}`: http.StatusBadRequest,
		`{"rubric":"../rubric.csv"}`:   http.StatusBadRequest,
		`{"rubric":`:                   http.StatusBadRequest,
	} {
		if res := post(t, srv.URL+"/gradings", body, true); res.StatusCode != want {
			t.Errorf("POST %s: status = %d; want %d", body, res.StatusCode, want)
		}
	}
}

func TestEnqueueRejectsFilePaths(t *testing.T) {
	srv, q, _ := newTestServer(t, nil)
	if res := post(t, srv.URL+"/gradings/async", `{"rubric":"/etc/rubric.csv"}`, true); res.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", res.StatusCode)
	}
	if len(q.tasks) != 0 {
		t.Errorf("%d tasks enqueued for a rejected rubric", len(q.tasks))
	}
}

func TestUnauthorized(t *testing.T) {
	srv, q, _ := newTestServer(t, nil)
	for _, path := range []string{"/gradings", "/gradings/async"} {
		if res := post(t, srv.URL+path, "", false); res.StatusCode != http.StatusUnauthorized {
			t.Errorf("POST %s without token: status = %d; want 401", path, res.StatusCode)
		}
	}
	if len(q.tasks) != 0 {
		t.Errorf("%d tasks enqueued without a token", len(q.tasks))
	}
}

func TestEnqueue(t *testing.T) {
	srv, q, path := newTestServer(t, nil)
	res := post(t, srv.URL+"/gradings/async", `{"rubric":"`+path+`"}`, true)
	if res.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d; want 202", res.StatusCode)
	}
	var got schemas.EnqueuedResponse
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(q.tasks) != 1 {
		t.Fatalf("%d tasks enqueued; want 1", len(q.tasks))
	}
	if typ := q.tasks[0].Type(); typ != TaskRunGrading {
		t.Errorf("task type = %q; want %q", typ, TaskRunGrading)
	}
	var p schemas.GradeTask
	if err := json.Unmarshal(q.tasks[0].Payload(), &p); err != nil {
		t.Fatal(err)
	}
	if p.ID != got.TaskID || p.Rubric != path {
		t.Errorf("payload = %+v; want id %s and rubric %s", p, got.TaskID, path)
	}
}

func TestHealthz(t *testing.T) {
	for _, tc := range []struct {
		ping func(context.Context) error
		want int
	}{
		{nil, http.StatusOK},
		{func(context.Context) error { return nil }, http.StatusOK},
		{func(context.Context) error { return errors.New("down") }, http.StatusInternalServerError},
	} {
		srv := httptest.NewServer((&Server{Ping: tc.ping}).Handler(token))
		res, err := http.Get(srv.URL + "/healthz")
		if err != nil {
			t.Fatal(err)
		}
		res.Body.Close()
		srv.Close()
		if res.StatusCode != tc.want {
			t.Errorf("healthz status = %d; want %d", res.StatusCode, tc.want)
		}
	}
}
