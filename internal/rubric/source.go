package rubric

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prefixes of rubric references that are not local file paths.
const (
	S3Prefix = "s3://"
	DBPrefix = "db:"
)

// ObjectOpener fetches objects from a bucket by "s3://bucket/key" reference.
type ObjectOpener interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// EntryStore loads a named rubric stored in a database.
type EntryStore interface {
	RubricEntries(ctx context.Context, name string) ([]Entry, error)
}

// Resolver loads rubrics from a file path, an object store or a database,
// depending on the reference. Nil backends make their references fail.
type Resolver struct {
	Objects ObjectOpener
	Store   EntryStore
}

// Load resolves ref and returns its entries. Every failure is a *LoadError.
func (r *Resolver) Load(ctx context.Context, ref string) ([]Entry, error) {
	switch {
	case strings.HasPrefix(ref, S3Prefix):
		if r == nil || r.Objects == nil {
			return nil, &LoadError{Source: ref, Err: errors.New("object storage is not configured")}
		}
		rc, err := r.Objects.Open(ctx, ref)
		if err != nil {
			return nil, &LoadError{Source: ref, Err: err}
		}
		defer rc.Close()
		return Parse(ref, rc)
	case strings.HasPrefix(ref, DBPrefix):
		if r == nil || r.Store == nil {
			return nil, &LoadError{Source: ref, Err: errors.New("database is not configured")}
		}
		name := strings.TrimPrefix(ref, DBPrefix)
		entries, err := r.Store.RubricEntries(ctx, name)
		if err != nil {
			var le *LoadError
			if errors.As(err, &le) {
				return nil, err
			}
			return nil, &LoadError{Source: ref, Err: err}
		}
		if len(entries) == 0 {
			return nil, &LoadError{Source: ref, Err: fmt.Errorf("no rubric named %q", name)}
		}
		return entries, nil
	default:
		return Load(ref)
	}
}
