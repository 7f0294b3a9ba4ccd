package query

import (
	"fmt"

	"github.com/pacsforge/qido/internal/dcm"
)

// Level is the query-retrieve level a search is anchored at.
type Level int

const (
	LevelPatient Level = iota
	LevelStudy
	LevelSeries
	LevelImage
)

func (l Level) String() string {
	switch l {
	case LevelPatient:
		return "PATIENT"
	case LevelStudy:
		return "STUDY"
	case LevelSeries:
		return "SERIES"
	case LevelImage:
		return "IMAGE"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel resolves the wire form of a query-retrieve level. An
// unrecognized value is a configuration error, surfaced before any store
// access.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "PATIENT":
		return LevelPatient, nil
	case "STUDY":
		return LevelStudy, nil
	case "SERIES":
		return LevelSeries, nil
	case "IMAGE":
		return LevelImage, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedLevel, s)
}

// PatientID is a patient identifier qualified by its issuer.
type PatientID struct {
	ID     string
	Issuer string
}

// OrderByTag is a caller-requested sort key: a DICOM tag plus direction.
type OrderByTag struct {
	Tag  dcm.Tag
	Desc bool
}

// Identifiers is the extrinsic identifier block stamped onto every match:
// the archive coordinates of the matched object.
type Identifiers struct {
	Project string
	Subject string
	Session string
}

// Context carries one request's query parameters. A Context (and the Query
// built from it) is created fresh per request and is not safe for
// concurrent use.
type Context struct {
	Level        Level
	MatchingKeys *dcm.Attributes
	// ReturnKeys, when non-nil, narrows each match down to exactly these
	// tags (absent ones supplemented empty). Nil passes matches through.
	ReturnKeys  *dcm.Attributes
	OrderByTags []OrderByTag
	PatientIDs  []PatientID
	Identifiers Identifiers
	Offset      int
	// Limit applies to list execution only; 0 means unbounded.
	Limit int

	// CombinedDatetimeMatching builds a single combined predicate when both
	// a date range and a time range are supplied, instead of two
	// independent ones.
	CombinedDatetimeMatching bool
	// OnlyWithStudies hides patients without studies from patient-level
	// queries.
	OnlyWithStudies bool
}

// NewContext returns a Context with the default matching toggles.
func NewContext(level Level) *Context {
	return &Context{
		Level:                    level,
		MatchingKeys:             dcm.New(),
		CombinedDatetimeMatching: true,
		OnlyWithStudies:          true,
	}
}
