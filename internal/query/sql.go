package query

import (
	"strings"

	"github.com/pacsforge/qido/internal/sqlutil"
)

// SQL lowering for the predicate tree. Predicates and orderings are built
// over "alias.property" paths; this file maps them onto the sqlite schema
// and renders parameterized SQL.

// FROM clauses per level. List executions always join the full ancestor
// chain; the study count execution may drop the patient join when no
// patient-level criteria exist.
const (
	fromPatient   = "patient patient"
	fromStudyOnly = "study study"
	fromStudy     = "study study" +
		" JOIN patient patient ON patient.pk = study.patient_fk"
	fromSeries = "series series" +
		" JOIN study study ON study.pk = series.study_fk" +
		" JOIN patient patient ON patient.pk = study.patient_fk"
	fromInstance = "instance instance" +
		" JOIN series series ON series.pk = instance.series_fk" +
		" JOIN study study ON study.pk = series.study_fk" +
		" JOIN patient patient ON patient.pk = study.patient_fk"
)

// column maps an "alias.property" path to its SQL column, applying any
// alias rebinding (used by correlated subqueries).
func column(path string, aliases map[string]string) string {
	i := strings.IndexByte(path, '.')
	if i < 0 {
		return camelToSnake(path)
	}
	alias, prop := path[:i], path[i+1:]
	if rebound, ok := aliases[alias]; ok {
		alias = rebound
	}
	return alias + "." + camelToSnake(prop)
}

func camelToSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, c := range s {
		if c >= 'A' && c <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(c + ('a' - 'A'))
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// compileWhere renders a conjunction of predicates. Empty input yields an
// empty clause.
func compileWhere(preds []Predicate) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}
	var sb strings.Builder
	var args []any
	for i, p := range preds {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		args = compilePredicate(p, &sb, args, nil)
	}
	return sb.String(), args
}

func compilePredicate(p Predicate, sb *strings.Builder, args []any, aliases map[string]string) []any {
	switch p := p.(type) {
	case Compare:
		col := column(p.Path, aliases)
		if s, ok := p.Value.(string); ok && p.IgnoreCase {
			sb.WriteString("UPPER(" + col + ") " + p.Op.String() + " UPPER(?)")
			return append(args, s)
		}
		sb.WriteString(col + " " + p.Op.String() + " ?")
		return append(args, p.Value)
	case Between:
		sb.WriteString(column(p.Path, aliases) + " BETWEEN ? AND ?")
		return append(args, p.Low, p.High)
	case Like:
		col := column(p.Path, aliases)
		if p.IgnoreCase {
			sb.WriteString("UPPER(" + col + ") LIKE UPPER(?) ESCAPE '" + string(likeEscape) + "'")
		} else {
			sb.WriteString(col + " LIKE ? ESCAPE '" + string(likeEscape) + "'")
		}
		return append(args, p.Pattern)
	case In:
		placeholders, inArgs := sqlutil.InClauseArgs(p.Values)
		sb.WriteString(column(p.Path, aliases) + " IN (" + placeholders + ")")
		return append(args, inArgs...)
	case And:
		return compileJunction(p.Preds, " AND ", sb, args, aliases)
	case Or:
		return compileJunction(p.Preds, " OR ", sb, args, aliases)
	case Not:
		sb.WriteString("NOT (")
		args = compilePredicate(p.Pred, sb, args, aliases)
		sb.WriteString(")")
		return args
	case SeriesExists:
		// The inner series alias shadows any outer one, as the predicate
		// may be issued from a query whose root is the series table.
		inner := map[string]string{"series": "sq_series"}
		sb.WriteString("EXISTS (SELECT 1 FROM series sq_series WHERE sq_series.study_fk = ")
		sb.WriteString(column("study.pk", aliases))
		for _, sub := range p.Preds {
			sb.WriteString(" AND ")
			args = compilePredicate(sub, sb, args, inner)
		}
		sb.WriteString(")")
		return args
	}
	// Unknown nodes compile to a vacuous condition rather than panicking.
	sb.WriteString("1 = 1")
	return args
}

func compileJunction(preds []Predicate, sep string, sb *strings.Builder, args []any, aliases map[string]string) []any {
	sb.WriteString("(")
	for i, p := range preds {
		if i > 0 {
			sb.WriteString(sep)
		}
		args = compilePredicate(p, sb, args, aliases)
	}
	sb.WriteString(")")
	return args
}

// buildCountSQL renders the row-count execution. Offset and limit never
// apply here.
func buildCountSQL(from string, preds []Predicate) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*) FROM ")
	sb.WriteString(from)
	where, args := compileWhere(preds)
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	return sb.String(), args
}

// buildListSQL renders the paged list execution over the level's
// projection paths.
func buildListSQL(paths []string, from string, preds []Predicate, orders []OrderBy, offset, limit int) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	for i, path := range paths {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(column(path, nil))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(from)

	where, args := compileWhere(preds)
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	if len(orders) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, o := range orders {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(column(o.Path, nil))
			if o.Desc {
				sb.WriteString(" DESC")
			}
		}
	}

	switch {
	case limit > 0:
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
		if offset > 0 {
			sb.WriteString(" OFFSET ?")
			args = append(args, offset)
		}
	case offset > 0:
		// sqlite requires a LIMIT clause to carry an OFFSET; -1 means
		// unbounded.
		sb.WriteString(" LIMIT -1 OFFSET ?")
		args = append(args, offset)
	}

	return sb.String(), args
}
