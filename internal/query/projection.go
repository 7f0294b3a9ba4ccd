package query

// Per-level projection path lists: exactly what each level's list query
// fetches, in order. Position is meaning; the row is zipped back against
// the active path list.

var patientProjection = []string{
	"patient.pk",
	"patient.subjectId",
	"patient.numberOfStudies",
	"patient.encodedAttributes",
}

var studyProjection = []string{
	"study.pk",
	"study.sessionId",
	"study.numberOfStudyRelatedInstances",
	"study.numberOfStudyRelatedSeries",
	"study.modalitiesInStudy",
	"study.sopClassesInStudy",
	"study.encodedAttributes",
}

var seriesProjection = []string{
	"series.pk",
	"series.scanId",
	"series.numberOfSeriesRelatedInstances",
	"series.availableTransferSyntaxUid",
	"series.sopClassesInSeries",
	"series.encodedAttributes",
}

var instanceProjection = []string{
	"instance.pk",
	"instance.encodedAttributes",
	"series.pk",
}

func concatPaths(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// mapRowToPaths zips a flat result row back into a path -> value lookup.
// Rows shorter than the path list pad with nil, so queries whose join
// structure omits trailing optional columns still map cleanly.
func mapRowToPaths(row []any, paths []string) map[string]any {
	if row == nil {
		return nil
	}
	m := make(map[string]any, len(paths))
	for i, path := range paths {
		if i < len(row) {
			m[path] = row[i]
		} else {
			m[path] = nil
		}
	}
	return m
}

// Typed accessors over the path -> value lookup. sqlite hands back int64,
// string or []byte depending on column affinity; these normalize.

func pathInt(m map[string]any, path string) (int, bool) {
	switch v := m[path].(type) {
	case int64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func pathInt64(m map[string]any, path string) (int64, bool) {
	switch v := m[path].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

func pathString(m map[string]any, path string) string {
	switch v := m[path].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

func pathBytes(m map[string]any, path string) []byte {
	switch v := m[path].(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	}
	return nil
}
