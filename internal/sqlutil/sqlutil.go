// Package sqlutil holds small helpers shared by the archive store and the
// query compiler.
package sqlutil

import (
	"database/sql"
	"strings"
)

// InClauseArgs builds the placeholder list and args for an IN clause over
// the given values (UIDs, session IDs and the like).
//
// An empty list yields "NULL" and no args, so `IN (NULL)` matches nothing.
func InClauseArgs(items []string) (placeholders string, args []any) {
	if len(items) == 0 {
		return "NULL", nil
	}
	ph := make([]string, len(items))
	args = make([]any, len(items))
	for i, item := range items {
		ph[i] = "?"
		args[i] = item
	}
	return strings.Join(ph, ", "), args
}

// ScanRows drains a result set into a slice using the provided per-row
// scanner, closing the rows when done.
func ScanRows[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
