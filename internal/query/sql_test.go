package query

import (
	"strings"
	"testing"
)

func TestCamelToSnake(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"patientName", "patient_name"},
		{"numberOfStudyRelatedInstances", "number_of_study_related_instances"},
		{"pk", "pk"},
		{"sopClassUid", "sop_class_uid"},
	}
	for _, tt := range tests {
		if got := camelToSnake(tt.in); got != tt.want {
			t.Errorf("camelToSnake(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCompileCompare(t *testing.T) {
	where, args := compileWhere([]Predicate{
		Compare{Path: "patient.patientName", Op: OpEq, Value: "DOE^JOHN", IgnoreCase: true},
	})
	if where != "UPPER(patient.patient_name) = UPPER(?)" {
		t.Errorf("where = %q", where)
	}
	if len(args) != 1 || args[0] != "DOE^JOHN" {
		t.Errorf("args = %v", args)
	}

	// Numeric comparisons never fold case.
	where, args = compileWhere([]Predicate{
		Compare{Path: "patient.numberOfStudies", Op: OpGt, Value: 0, IgnoreCase: true},
	})
	if where != "patient.number_of_studies > ?" {
		t.Errorf("where = %q", where)
	}
	if args[0] != 0 {
		t.Errorf("args = %v", args)
	}
}

func TestCompileLikeEscape(t *testing.T) {
	where, args := compileWhere([]Predicate{
		Like{Path: "study.studyDescription", Pattern: "CHEST%", IgnoreCase: true},
	})
	if !strings.Contains(where, "LIKE UPPER(?) ESCAPE '!'") {
		t.Errorf("where = %q", where)
	}
	if args[0] != "CHEST%" {
		t.Errorf("args = %v", args)
	}
}

func TestCompileInEmpty(t *testing.T) {
	// An empty IN list matches nothing rather than erroring.
	where, args := compileWhere([]Predicate{In{Path: "series.sopClassUid"}})
	if where != "series.sop_class_uid IN (NULL)" {
		t.Errorf("where = %q", where)
	}
	if len(args) != 0 {
		t.Errorf("args = %v", args)
	}
}

func TestCompileJunctions(t *testing.T) {
	where, args := compileWhere([]Predicate{
		Or{Preds: []Predicate{
			Compare{Path: "series.modality", Op: OpEq, Value: "MR"},
			Compare{Path: "series.modality", Op: OpEq, Value: "CT"},
		}},
		Not{Pred: Compare{Path: "study.studyDate", Op: OpEq, Value: "*"}},
	})
	want := "(series.modality = ? OR series.modality = ?) AND NOT (study.study_date = ?)"
	if where != want {
		t.Errorf("where = %q\nwant    %q", where, want)
	}
	if len(args) != 3 {
		t.Errorf("args = %v", args)
	}
}

func TestCompileSeriesExists(t *testing.T) {
	where, args := compileWhere([]Predicate{
		SeriesExists{Preds: []Predicate{
			Compare{Path: "series.modality", Op: OpEq, Value: "MR"},
		}},
	})
	want := "EXISTS (SELECT 1 FROM series sq_series WHERE sq_series.study_fk = study.pk" +
		" AND sq_series.modality = ?)"
	if where != want {
		t.Errorf("where = %q\nwant    %q", where, want)
	}
	if len(args) != 1 || args[0] != "MR" {
		t.Errorf("args = %v", args)
	}
}

func TestBuildCountSQL(t *testing.T) {
	stmt, args := buildCountSQL(fromStudyOnly, []Predicate{
		Compare{Path: "study.studyDate", Op: OpGe, Value: "20240101"},
	})
	want := "SELECT COUNT(*) FROM study study WHERE study.study_date >= ?"
	if stmt != want {
		t.Errorf("stmt = %q\nwant   %q", stmt, want)
	}
	if len(args) != 1 {
		t.Errorf("args = %v", args)
	}

	stmt, _ = buildCountSQL(fromStudyOnly, nil)
	if strings.Contains(stmt, "WHERE") {
		t.Errorf("unrestricted count has WHERE: %q", stmt)
	}
}

func TestBuildListSQLPaging(t *testing.T) {
	stmt, args := buildListSQL(patientProjection, fromPatient, nil, nil, 0, 0)
	if strings.Contains(stmt, "LIMIT") || strings.Contains(stmt, "OFFSET") {
		t.Errorf("unpaged query has paging: %q", stmt)
	}
	if len(args) != 0 {
		t.Errorf("args = %v", args)
	}

	stmt, args = buildListSQL(patientProjection, fromPatient, nil, nil, 10, 25)
	if !strings.HasSuffix(stmt, "LIMIT ? OFFSET ?") {
		t.Errorf("stmt = %q", stmt)
	}
	if len(args) != 2 || args[0] != 25 || args[1] != 10 {
		t.Errorf("args = %v", args)
	}

	// sqlite needs a LIMIT clause to carry a bare OFFSET.
	stmt, args = buildListSQL(patientProjection, fromPatient, nil, nil, 10, 0)
	if !strings.HasSuffix(stmt, "LIMIT -1 OFFSET ?") {
		t.Errorf("stmt = %q", stmt)
	}
	if len(args) != 1 || args[0] != 10 {
		t.Errorf("args = %v", args)
	}
}

func TestBuildListSQLOrder(t *testing.T) {
	stmt, _ := buildListSQL(studyListProjection, fromStudy, nil, []OrderBy{
		{Path: "study.studyDate", Desc: true},
		{Path: "patient.patientName"},
	}, 0, 0)
	if !strings.Contains(stmt, "ORDER BY study.study_date DESC, patient.patient_name") {
		t.Errorf("stmt = %q", stmt)
	}
}

func TestColumnAliasRebinding(t *testing.T) {
	if got := column("series.modality", map[string]string{"series": "sq_series"}); got != "sq_series.modality" {
		t.Errorf("column = %q", got)
	}
	if got := column("series.modality", nil); got != "series.modality" {
		t.Errorf("column = %q", got)
	}
}
