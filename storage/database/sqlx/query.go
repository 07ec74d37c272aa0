package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
)

// where accumulates AND-ed conditions with "?" placeholders.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// build expands IN (?) slices and rebinds the query for exec's driver.
func (w *where) build(exec core.DBExecutor, query string) (string, []interface{}, error) {
	q, args, err := sqlx.In(query, w.args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "building query")
	}
	return exec.Rebind(q), args, nil
}

// orderBy renders an ORDER BY clause, keeping only fields allowed for the table.
func orderBy(ordering []core.DBOrdering, allowed []string, fallback string) string {
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if core.StringInSlice(ord.Field, allowed) {
			parts = append(parts, ord.String())
		}
	}
	if len(parts) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func deleteByID(ctx context.Context, exec core.DBExecutor, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var w where
	w.add("id IN (?)", ids)
	q, args, err := w.build(exec, "DELETE FROM "+table+w.String())
	if err != nil {
		return err
	}
	if _, err = exec.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrapf(err, "deleting from %s", table)
	}
	return nil
}

func withTx(ctx context.Context, db core.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func nullDate(d *core.Date) null.Time {
	if d == nil {
		return null.Time{}
	}
	return null.TimeFrom(core.NewDate(d.Date()).Time)
}

func dateFromNull(t null.Time) *core.Date {
	if !t.Valid {
		return nil
	}
	d := core.NewDate(t.Time.Date())
	return &d
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}
