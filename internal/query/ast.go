// Package query implements the QIDO matching engine: it translates DICOM
// matching keys into a predicate tree scoped over the patient/study/series/
// instance hierarchy, executes count or paged list queries, and rebuilds a
// merged attribute set per matching row.
package query

// Predicate is a node of the backend-agnostic predicate tree. Builders in
// this package produce predicates over "alias.property" paths; a separate
// compiler lowers the tree to SQL.
type Predicate interface {
	predicateNode()
}

// CompareOp is a scalar comparison operator.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (op CompareOp) String() string {
	switch op {
	case OpNe:
		return "<>"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "="
	}
}

// Compare is a leaf comparison of a property against a literal.
type Compare struct {
	Path       string
	Op         CompareOp
	Value      any
	IgnoreCase bool
}

func (Compare) predicateNode() {}

// Between constrains a property to an inclusive range.
type Between struct {
	Path      string
	Low, High string
}

func (Between) predicateNode() {}

// Like matches a property against a translated wildcard pattern. The
// pattern uses '%'/'_' with '!' as the escape character.
type Like struct {
	Path       string
	Pattern    string
	IgnoreCase bool
}

func (Like) predicateNode() {}

// In constrains a property to a value set.
type In struct {
	Path   string
	Values []string
}

func (In) predicateNode() {}

// And combines predicates conjunctively.
type And struct {
	Preds []Predicate
}

func (And) predicateNode() {}

// Or combines predicates disjunctively.
type Or struct {
	Preds []Predicate
}

func (Or) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Pred Predicate
}

func (Not) predicateNode() {}

// SeriesExists is a correlated existence test over the series of the study
// alias: series-scoped filters issued at study level propagate through it.
// Inner predicate paths use the "series." alias and are rebound to the
// subquery's own alias when compiled.
type SeriesExists struct {
	Preds []Predicate
}

func (SeriesExists) predicateNode() {}

// OrderBy is one concrete sort term over a property path.
type OrderBy struct {
	Path string
	Desc bool
}
