package schemas

import (
	"autograder/internal/grader"
)

// GradeRequest names the rubric to grade: a file path, "s3://bucket/key"
// or "db:<name>". Empty means the configured default.
type GradeRequest struct {
	Rubric string `json:"rubric,omitempty"`
}

// GradeResponse carries the report of a synchronous grading. Scores has
// the same shape as the "scores" object printed by the CLI.
type GradeResponse struct {
	Scores    grader.Report  `json:"scores"`
	AllPassed bool           `json:"all_passed"`
	ExitCode  int            `json:"exit_code"`
	Summary   grader.Summary `json:"summary"`
}

// GradeTask is the queue payload of an asynchronous grading.
type GradeTask struct {
	ID     string `json:"id"`
	Rubric string `json:"rubric"`
}

type EnqueuedResponse struct {
	TaskID string `json:"task_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
