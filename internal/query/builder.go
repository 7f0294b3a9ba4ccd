package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/pacsforge/qido/internal/dcm"
)

// Matching-key translation. All builders are pure: they fold predicates
// into a slice and never touch the store. Malformed values (bad numerics,
// degenerate wildcard patterns, unparseable ranges) contribute no
// predicate; they are never an error.

const (
	// likeEscape escapes literal '%', '_' and itself in translated
	// wildcard patterns.
	likeEscape = '!'

	startOfDayTM = "000000.000"
	endOfDayTM   = "235959.999"
)

// isUniversalString reports whether a single value matches everything:
// absent, empty or the literal asterisk.
func isUniversalString(v string) bool {
	return v == "" || v == "*"
}

// isUniversalStrings applies the universal test to a multi-valued key; per
// the standard only the first value decides.
func isUniversalStrings(values []string) bool {
	return len(values) == 0 || isUniversalString(values[0])
}

func isUniversalPatientIDs(pids []PatientID) bool {
	for _, pid := range pids {
		if !isUniversalString(pid.ID) {
			return false
		}
	}
	return true
}

func containsWildcard(s string) bool {
	return strings.ContainsAny(s, "*?")
}

// toLikePattern translates DICOM wildcards to a LIKE pattern: '*' to '%',
// '?' to '_', escaping literal pattern characters. Consecutive '*'
// collapse to a single '%'.
func toLikePattern(s string) string {
	var like strings.Builder
	like.Grow(len(s))
	var prev rune
	for _, c := range s {
		switch c {
		case '*':
			if c != prev {
				like.WriteByte('%')
			}
		case '?':
			like.WriteByte('_')
		case '_', '%', likeEscape:
			like.WriteByte(likeEscape)
			like.WriteRune(c)
		default:
			like.WriteRune(c)
		}
		prev = c
	}
	return like.String()
}

// likeOrEq builds the predicate for one matching value: a LIKE when the
// value carries wildcards, an equality otherwise. Universal values and
// patterns that degenerate to a bare '%' yield nothing.
func likeOrEq(path, value string, ignoreCase bool) (Predicate, bool) {
	if isUniversalString(value) {
		return nil, false
	}
	if containsWildcard(value) {
		pattern := toLikePattern(value)
		if pattern == "%" {
			return nil, false
		}
		return Like{Path: path, Pattern: pattern, IgnoreCase: ignoreCase}, true
	}
	return Compare{Path: path, Op: OpEq, Value: value, IgnoreCase: ignoreCase}, true
}

// anyOf matches an attribute against one or more values: a single value
// becomes one predicate, several become their OR. If any value is
// universal the whole attribute matches everything and nothing is added.
func anyOf(preds []Predicate, path string, values []string, ignoreCase bool) []Predicate {
	if isUniversalStrings(values) {
		return preds
	}
	if len(values) == 1 {
		if p, ok := likeOrEq(path, values[0], ignoreCase); ok {
			return append(preds, p)
		}
		return preds
	}
	alts := make([]Predicate, 0, len(values))
	for _, value := range values {
		p, ok := likeOrEq(path, value, ignoreCase)
		if !ok {
			return preds
		}
		alts = append(alts, p)
	}
	return append(preds, Or{Preds: alts})
}

// uidsPredicate adds an exact match for an identifier value.
func uidsPredicate(preds []Predicate, path, value string) []Predicate {
	if isUniversalString(value) {
		return preds
	}
	return append(preds, Compare{Path: path, Op: OpEq, Value: value})
}

// numberPredicate adds an exact numeric match; non-numeric values are
// silently ignored.
func numberPredicate(preds []Predicate, path, value string) []Predicate {
	if isUniversalString(value) {
		return preds
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return preds
	}
	return append(preds, Compare{Path: path, Op: OpEq, Value: n})
}

type dateFormat int

const (
	formatDA dateFormat = iota
	formatTM
)

func (f dateFormat) format(t time.Time) string {
	if f == formatTM {
		return dcm.FormatTM(t)
	}
	return dcm.FormatDA(t)
}

func formatBound(t *time.Time, f dateFormat) string {
	if t == nil {
		return ""
	}
	return f.format(*t)
}

// dateRangePredicate builds the simple (non-combined) range condition for
// a single date or time property. A flipped time range is taken to cross
// midnight and becomes the union of the two day fringes.
func dateRangePredicate(path string, r dcm.DateRange, f dateFormat) Predicate {
	start := formatBound(r.Start, f)
	end := formatBound(r.End, f)
	switch {
	case start == "":
		return Compare{Path: path, Op: OpLe, Value: end}
	case end == "":
		return Compare{Path: path, Op: OpGe, Value: start}
	case start == end:
		return Compare{Path: path, Op: OpEq, Value: start}
	case f == formatTM && r.StartExceedsEnd():
		return Or{Preds: []Predicate{
			Between{Path: path, Low: start, High: endOfDayTM},
			Between{Path: path, Low: startOfDayTM, High: end},
		}}
	default:
		return Between{Path: path, Low: start, High: end}
	}
}

// appendDateRange adds the range condition plus the guard distinguishing
// an absent value from a stored literal asterisk.
func appendDateRange(preds []Predicate, path string, r dcm.DateRange, f dateFormat) []Predicate {
	if r.IsUniversal() {
		return preds
	}
	return append(preds,
		dateRangePredicate(path, r, f),
		Compare{Path: path, Op: OpNe, Value: "*"})
}

// combinedRange builds the combined date-time condition over separate date
// and time columns from one datetime range.
func combinedRange(datePath, timePath string, r dcm.DateRange) Predicate {
	if r.Start == nil {
		return combinedRangeEnd(datePath, timePath,
			dcm.FormatDA(*r.End), dcm.FormatTM(*r.End))
	}
	if r.End == nil {
		return combinedRangeStart(datePath, timePath,
			dcm.FormatDA(*r.Start), dcm.FormatTM(*r.Start))
	}
	return combinedRangeInterval(datePath, timePath, *r.Start, *r.End)
}

// combinedRangeStart matches rows on or after the bound: strictly later
// days, or the start day itself with a time at or past the start time. A
// stored literal asterisk time passes the equality branch.
func combinedRangeStart(datePath, timePath, startDate, startTime string) Predicate {
	return Or{Preds: []Predicate{
		Compare{Path: datePath, Op: OpGt, Value: startDate},
		And{Preds: []Predicate{
			Compare{Path: datePath, Op: OpEq, Value: startDate},
			Or{Preds: []Predicate{
				Compare{Path: timePath, Op: OpGe, Value: startTime},
				Compare{Path: timePath, Op: OpEq, Value: "*"},
			}},
		}},
	}}
}

func combinedRangeEnd(datePath, timePath, endDate, endTime string) Predicate {
	return Or{Preds: []Predicate{
		Compare{Path: datePath, Op: OpLt, Value: endDate},
		And{Preds: []Predicate{
			Compare{Path: datePath, Op: OpEq, Value: endDate},
			Or{Preds: []Predicate{
				Compare{Path: timePath, Op: OpLe, Value: endTime},
				Compare{Path: timePath, Op: OpEq, Value: "*"},
			}},
		}},
	}}
}

func combinedRangeInterval(datePath, timePath string, start, end time.Time) Predicate {
	startDate, startTime := dcm.FormatDA(start), dcm.FormatTM(start)
	endDate, endTime := dcm.FormatDA(end), dcm.FormatTM(end)
	if startDate == endDate {
		return And{Preds: []Predicate{
			Compare{Path: datePath, Op: OpEq, Value: startDate},
			Compare{Path: timePath, Op: OpGe, Value: startTime},
			Compare{Path: timePath, Op: OpLe, Value: endTime},
		}}
	}
	return And{Preds: []Predicate{
		combinedRangeStart(datePath, timePath, startDate, startTime),
		combinedRangeEnd(datePath, timePath, endDate, endTime),
	}}
}

// appendDateTime matches a date tag and a time tag. When both ranges are
// bounded and combined matching is on, one combined predicate spans the
// two columns; otherwise each range applies independently to its own
// column.
func appendDateTime(preds []Predicate, datePath, timePath string,
	dateTag, timeTag dcm.Tag, ctx *Context) []Predicate {
	keys := ctx.MatchingKeys
	dateRange := keys.DateRange(dateTag, dcm.VRDA)
	timeRange := keys.DateRange(timeTag, dcm.VRTM)
	if ctx.CombinedDatetimeMatching &&
		!dateRange.IsUniversal() && !timeRange.IsUniversal() {
		preds = append(preds, combinedRange(datePath, timePath,
			keys.DateTimeRange(dateTag, timeTag)))
		return append(preds, Compare{Path: datePath, Op: OpNe, Value: "*"})
	}
	preds = appendDateRange(preds, datePath, dateRange, formatDA)
	preds = appendDateRange(preds, timePath, timeRange, formatTM)
	return preds
}

func toUpper(values []string) []string {
	if values == nil {
		return nil
	}
	upper := make([]string, len(values))
	for i, v := range values {
		upper[i] = strings.ToUpper(v)
	}
	return upper
}

// HasPatientLevelCriteria reports whether the request restricts the
// patient alias at all; without it the study count query can skip the
// patient join.
func HasPatientLevelCriteria(ctx *Context) bool {
	if !isUniversalPatientIDs(ctx.PatientIDs) {
		return true
	}
	keys := ctx.MatchingKeys
	return !isUniversalString(keys.GetString(dcm.PatientName)) ||
		!isUniversalString(keys.GetString(dcm.PatientSex)) ||
		!isUniversalString(keys.GetString(dcm.PatientBirthDate))
}

func patientLevelPredicates(preds []Predicate, ctx *Context, level Level) []Predicate {
	keys := ctx.MatchingKeys
	if level == LevelPatient && ctx.OnlyWithStudies {
		preds = append(preds, Compare{Path: "patient.numberOfStudies", Op: OpGt, Value: 0})
	}
	ids := make([]string, len(ctx.PatientIDs))
	for i, pid := range ctx.PatientIDs {
		ids[i] = pid.ID
	}
	preds = anyOf(preds, "patient.patientId", ids, true)
	preds = anyOf(preds, "patient.patientName", keys.Strings(dcm.PatientName), true)
	preds = anyOf(preds, "patient.patientSex", toUpper(keys.Strings(dcm.PatientSex)), false)
	preds = appendDateRange(preds, "patient.patientBirthDate",
		keys.DateRange(dcm.PatientBirthDate, dcm.VRDA), formatDA)
	return preds
}

func studyLevelPredicates(preds []Predicate, ctx *Context, level Level) []Predicate {
	keys := ctx.MatchingKeys
	preds = uidsPredicate(preds, "study.sessionId", keys.GetString(dcm.PrivateSessionID))
	preds = anyOf(preds, "study.studyInstanceUid", keys.Strings(dcm.StudyInstanceUID), false)
	preds = anyOf(preds, "study.studyId", keys.Strings(dcm.StudyID), false)
	preds = appendDateTime(preds, "study.studyDate", "study.studyTime",
		dcm.StudyDate, dcm.StudyTime, ctx)
	preds = anyOf(preds, "study.studyDescription", keys.Strings(dcm.StudyDescription), true)
	preds = anyOf(preds, "study.accessionNumber",
		[]string{keys.GetStringDefault(dcm.AccessionNumber, "*")}, false)
	return seriesAttributesInStudy(preds, ctx, level)
}

// seriesAttributesInStudy propagates series-scoped filters to the study
// alias as a correlated existence test: a study matches when at least one
// of its series does.
func seriesAttributesInStudy(studyPreds []Predicate, ctx *Context, level Level) []Predicate {
	keys := ctx.MatchingKeys
	var preds []Predicate
	preds = anyOf(preds, "series.modality", toUpper(keys.Strings(dcm.ModalitiesInStudy)), false)
	if cuids := keys.Strings(dcm.SOPClassesInStudy); !isUniversalStrings(cuids) {
		preds = append(preds, In{Path: "series.sopClassUid", Values: cuids})
	}
	if level == LevelStudy {
		preds = anyOf(preds, "series.institutionName", keys.Strings(dcm.InstitutionName), true)
		preds = anyOf(preds, "series.institutionalDepartmentName",
			keys.Strings(dcm.InstitutionalDepartmentName), true)
		preds = anyOf(preds, "series.stationName", keys.Strings(dcm.StationName), true)
		preds = anyOf(preds, "series.seriesDescription", keys.Strings(dcm.SeriesDescription), true)
		preds = anyOf(preds, "series.bodyPartExamined", toUpper(keys.Strings(dcm.BodyPartExamined)), false)
		preds = anyOf(preds, "series.laterality", toUpper(keys.Strings(dcm.Laterality)), false)
	}
	if len(preds) == 0 {
		return studyPreds
	}
	return append(studyPreds, SeriesExists{Preds: preds})
}

func seriesLevelPredicates(preds []Predicate, ctx *Context) []Predicate {
	keys := ctx.MatchingKeys
	preds = anyOf(preds, "series.seriesInstanceUid", keys.Strings(dcm.SeriesInstanceUID), false)
	preds = numberPredicate(preds, "series.seriesNumber",
		keys.GetStringDefault(dcm.SeriesNumber, "*"))
	preds = anyOf(preds, "series.modality", toUpper(keys.Strings(dcm.Modality)), false)
	preds = anyOf(preds, "series.bodyPartExamined", toUpper(keys.Strings(dcm.BodyPartExamined)), false)
	preds = anyOf(preds, "series.laterality", toUpper(keys.Strings(dcm.Laterality)), false)
	preds = appendDateTime(preds,
		"series.performedProcedureStepStartDate",
		"series.performedProcedureStepStartTime",
		dcm.PerformedProcedureStepStartDate, dcm.PerformedProcedureStepStartTime, ctx)
	preds = anyOf(preds, "series.seriesDescription", keys.Strings(dcm.SeriesDescription), true)
	preds = anyOf(preds, "series.stationName", keys.Strings(dcm.StationName), true)
	preds = anyOf(preds, "series.institutionalDepartmentName",
		keys.Strings(dcm.InstitutionalDepartmentName), true)
	preds = anyOf(preds, "series.institutionName", keys.Strings(dcm.InstitutionName), true)
	return preds
}

func instanceLevelPredicates(preds []Predicate, ctx *Context) []Predicate {
	keys := ctx.MatchingKeys
	preds = anyOf(preds, "instance.sopInstanceUid", keys.Strings(dcm.SOPInstanceUID), false)
	preds = anyOf(preds, "instance.sopClassUid", keys.Strings(dcm.SOPClassUID), false)
	preds = numberPredicate(preds, "instance.instanceNumber",
		keys.GetStringDefault(dcm.InstanceNumber, "*"))
	preds = appendDateTime(preds, "instance.contentDate", "instance.contentTime",
		dcm.ContentDate, dcm.ContentTime, ctx)
	return preds
}

// PatientPredicates assembles the predicate tree for a patient-level query.
func PatientPredicates(ctx *Context) []Predicate {
	return patientLevelPredicates(nil, ctx, LevelPatient)
}

// StudyPredicates assembles the predicate tree for a study-level query.
// queryPatient controls whether patient-level criteria are applied; the
// count execution drops them when none are present.
func StudyPredicates(ctx *Context, queryPatient bool) []Predicate {
	var preds []Predicate
	if queryPatient {
		preds = patientLevelPredicates(preds, ctx, LevelStudy)
	}
	return studyLevelPredicates(preds, ctx, LevelStudy)
}

// SeriesPredicates assembles the predicate tree for a series-level query.
func SeriesPredicates(ctx *Context) []Predicate {
	preds := patientLevelPredicates(nil, ctx, LevelSeries)
	preds = studyLevelPredicates(preds, ctx, LevelSeries)
	return seriesLevelPredicates(preds, ctx)
}

// InstancePredicates assembles the predicate tree for an instance-level
// query.
func InstancePredicates(ctx *Context) []Predicate {
	preds := patientLevelPredicates(nil, ctx, LevelImage)
	preds = studyLevelPredicates(preds, ctx, LevelImage)
	preds = seriesLevelPredicates(preds, ctx)
	return instanceLevelPredicates(preds, ctx)
}
