package grader

// Summary totals a run for humans. It never changes the report itself.
type Summary struct {
	Earned   float64 `json:"earned"`
	Possible float64 `json:"possible"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
}

// Summarize totals the outcomes of res. Like the report, only the last
// outcome for a repeated subtest name counts.
func Summarize(res *Result) Summary {
	last := make(map[string]Outcome, len(res.Outcomes))
	for _, o := range res.Outcomes {
		last[o.Entry.Subtest] = o
	}
	var s Summary
	for _, o := range last {
		// Scores were validated as numbers on load.
		pts, _ := o.Entry.Score.Float64()
		s.Possible += pts
		if o.Passed {
			s.Earned += pts
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}
