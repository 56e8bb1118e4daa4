package db

import (
	"autograder/internal/rubric"
)

type RubricEntry struct {
	Rubric   string `db:"rubric"`
	Position int    `db:"position"`
	Exec     string `db:"exec"`
	Test     string `db:"test"`
	Subtest  string `db:"subtest"`
	Score    string `db:"score"`
}

func NewRubricEntry(name string, pos int, e rubric.Entry) RubricEntry {
	return RubricEntry{
		Rubric:   name,
		Position: pos,
		Exec:     e.Exec,
		Test:     e.Test,
		Subtest:  e.Subtest,
		Score:    e.Score.String(),
	}
}

// Entry converts the row back, rejecting a score that is not a number.
func (r RubricEntry) Entry() (rubric.Entry, error) {
	score, err := rubric.ParseScore(r.Score)
	if err != nil {
		return rubric.Entry{}, err
	}
	return rubric.Entry{Exec: r.Exec, Test: r.Test, Subtest: r.Subtest, Score: score}, nil
}
