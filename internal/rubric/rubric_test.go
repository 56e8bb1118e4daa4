package rubric

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		name string
		csv  string
		want []Entry
	}{
		{
			name: "declaration order",
			csv:  "exec,test,subtest,score\nt1,Suite,CaseA,10\nt2,Other,CaseB,2.5\n",
			want: []Entry{
				{Exec: "t1", Test: "Suite", Subtest: "CaseA", Score: "10"},
				{Exec: "t2", Test: "Other", Subtest: "CaseB", Score: "2.5"},
			},
		},
		{
			name: "columns matched by name",
			csv:  "score,subtest,note,exec,test\n5, Dup,ignored,t1,S\n",
			want: []Entry{{Exec: "t1", Test: "S", Subtest: "Dup", Score: "5"}},
		},
		{
			name: "extra trailing cells",
			csv:  "exec,test,subtest,score\nt1,Suite,CaseA,10,\nt1,Suite,CaseB,5,bonus\n",
			want: []Entry{
				{Exec: "t1", Test: "Suite", Subtest: "CaseA", Score: "10"},
				{Exec: "t1", Test: "Suite", Subtest: "CaseB", Score: "5"},
			},
		},
		{
			name: "short row past required columns",
			csv:  "exec,test,subtest,score,note\nt1,Suite,CaseA,10\n",
			want: []Entry{{Exec: "t1", Test: "Suite", Subtest: "CaseA", Score: "10"}},
		},
		{
			name: "header only",
			csv:  "exec,test,subtest,score\n",
			want: nil,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse("test.csv", strings.NewReader(tc.csv))
			if err != nil {
				t.Fatal("Parse failed: ", err)
			}
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("Parse returned unexpected entries (-got +want):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		csv  string
	}{
		{"empty", ""},
		{"missing score column", "exec,test,subtest\nt1,Suite,CaseA\n"},
		{"short row", "exec,test,subtest,score\nt1,Suite,CaseA\n"},
		{"non-numeric score", "exec,test,subtest,score\nt1,Suite,CaseA,ten\n"},
		{"NaN score", "exec,test,subtest,score\nt1,Suite,CaseA,NaN\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("test.csv", strings.NewReader(tc.csv))
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("Parse returned %v; want *LoadError", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Load returned %v; want *LoadError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load error %v does not wrap os.ErrNotExist", err)
	}
}

func TestSelector(t *testing.T) {
	e := Entry{Test: "Suite", Subtest: "CaseA"}
	if got, want := e.Selector(), "Suite.CaseA"; got != want {
		t.Errorf("Selector() = %q; want %q", got, want)
	}
}

type fakeObjects map[string]string

func (f fakeObjects) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	s, ok := f[ref]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(strings.NewReader(s)), nil
}

type fakeStore map[string][]Entry

func (f fakeStore) RubricEntries(ctx context.Context, name string) ([]Entry, error) {
	return f[name], nil
}

func TestResolver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rubric.csv")
	if err := os.WriteFile(path, []byte("exec,test,subtest,score\nt1,S,File,1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	r := &Resolver{
		Objects: fakeObjects{"s3://b/r.csv": "exec,test,subtest,score\nt1,S,Obj,2\n"},
		Store:   fakeStore{"p1": {{Exec: "t1", Test: "S", Subtest: "Row", Score: "3"}}},
	}
	for ref, want := range map[string]string{
		path:           "File",
		"s3://b/r.csv": "Obj",
		"db:p1":        "Row",
	} {
		got, err := r.Load(context.Background(), ref)
		if err != nil {
			t.Errorf("Load(%q) failed: %v", ref, err)
			continue
		}
		if len(got) != 1 || got[0].Subtest != want {
			t.Errorf("Load(%q) = %+v; want one entry for %s", ref, got, want)
		}
	}

	for _, ref := range []string{"s3://b/missing.csv", "db:unknown"} {
		var le *LoadError
		if _, err := r.Load(context.Background(), ref); !errors.As(err, &le) {
			t.Errorf("Load(%q) returned %v; want *LoadError", ref, err)
		}
	}

	var empty Resolver
	if _, err := empty.Load(context.Background(), "s3://b/r.csv"); err == nil {
		t.Error("Load succeeded without object storage")
	}
}
