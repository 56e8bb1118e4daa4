// Package rubric loads grading rubrics: ordered rows mapping a test
// executable and gtest case to the points it is worth.
package rubric

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Required column names of a rubric CSV header.
const (
	ColExec    = "exec"
	ColTest    = "test"
	ColSubtest = "subtest"
	ColScore   = "score"
)

var required = []string{ColExec, ColTest, ColSubtest, ColScore}

// Entry is one rubric row.
type Entry struct {
	Exec    string      `json:"exec"`
	Test    string      `json:"test"`
	Subtest string      `json:"subtest"`
	Score   json.Number `json:"score"`
}

// Selector returns the gtest filter value for the entry, e.g. "Suite.CaseA".
func (e Entry) Selector() string {
	return e.Test + "." + e.Subtest
}

// LoadError reports a rubric that could not be read or is malformed.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load rubric %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads the rubric CSV at path.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()
	return Parse(path, f)
}

// Parse reads rubric rows from r. Columns are matched by header name, so
// their order does not matter and unknown columns are ignored. Rows may
// carry extra cells past the header; a row too short to hold a required
// column is an error. source only labels errors.
func Parse(source string, r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &LoadError{Source: source, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	var missing []string
	width := 0
	for _, name := range required {
		i, ok := idx[name]
		if !ok {
			missing = append(missing, name)
		}
		width = max(width, i+1)
	}
	if len(missing) > 0 {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))}
	}

	var entries []Entry
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Source: source, Err: err}
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < width {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("line %d: %d fields, need %d", line, len(rec), width)}
		}
		e := Entry{
			Exec:    rec[idx[ColExec]],
			Test:    rec[idx[ColTest]],
			Subtest: rec[idx[ColSubtest]],
		}
		score, err := ParseScore(rec[idx[ColScore]])
		if err != nil {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("line %d: %w", line, err)}
		}
		e.Score = score
		entries = append(entries, e)
	}
	return entries, nil
}

// ParseScore validates that s is numeric text and returns it unchanged
// (apart from surrounding space) so the report carries the rubric's value
// exactly as written.
func ParseScore(s string) (json.Number, error) {
	s = strings.TrimSpace(s)
	// ParseFloat alone admits NaN, Inf and hex floats, none of which are JSON.
	if _, err := strconv.ParseFloat(s, 64); err != nil || !json.Valid([]byte(s)) {
		return "", fmt.Errorf("score %q is not a number", s)
	}
	return json.Number(s), nil
}
