package grader

import (
	"encoding/json"
	"io"
)

// Zero is the score of a failed subtest.
const Zero = json.Number("0")

// Report maps subtest names to awarded points.
type Report map[string]json.Number

type document struct {
	Scores Report `json:"scores"`
}

// Marshal encodes r as the single-line {"scores": {...}} document.
// Keys are sorted, so equal reports encode to equal bytes.
func (r Report) Marshal() ([]byte, error) {
	if r == nil {
		r = Report{}
	}
	return json.Marshal(document{Scores: r})
}

// Write prints r to w followed by a newline.
func (r Report) Write(w io.Writer) error {
	b, err := r.Marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
