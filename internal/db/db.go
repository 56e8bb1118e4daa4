// Package db stores named rubrics in Postgres.
package db

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"autograder/internal/rubric"
)

// Open connects to the Postgres database at dsn.
func Open(dsn string) (*sqlx.DB, error) {
	return sqlx.Connect("pgx", dsn)
}

func WithTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Store reads and writes rubric_entries.
type Store struct {
	DB *sqlx.DB
}

// RubricEntries returns the rows of the named rubric in declaration order.
func (s *Store) RubricEntries(ctx context.Context, name string) ([]rubric.Entry, error) {
	var rows []RubricEntry
	err := s.DB.SelectContext(ctx, &rows,
		`select rubric, position, exec, test, subtest, score from rubric_entries where rubric=$1 order by position`, name)
	if err != nil {
		return nil, err
	}
	entries := make([]rubric.Entry, 0, len(rows))
	for _, r := range rows {
		e, err := r.Entry()
		if err != nil {
			return nil, &rubric.LoadError{Source: rubric.DBPrefix + name, Err: err}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ReplaceRubric stores entries under name, dropping any previous rows.
func (s *Store) ReplaceRubric(ctx context.Context, name string, entries []rubric.Entry) error {
	return WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `delete from rubric_entries where rubric=$1`, name); err != nil {
			return fmt.Errorf("clear rubric %s: %w", name, err)
		}
		for i, e := range entries {
			if _, err := tx.NamedExecContext(ctx,
				`insert into rubric_entries(rubric, position, exec, test, subtest, score) values(:rubric, :position, :exec, :test, :subtest, :score)`,
				NewRubricEntry(name, i, e)); err != nil {
				return fmt.Errorf("insert %s row %d: %w", name, i, err)
			}
		}
		return nil
	})
}
