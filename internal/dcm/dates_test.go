package dcm

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d, hh, mm, ss, ms int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, ms*int(time.Millisecond), time.UTC)
}

func TestParseDateRangeSinglePoint(t *testing.T) {
	r := ParseDateRange("20240315", VRDA)
	if r.Start == nil || r.End == nil {
		t.Fatalf("expected both bounds, got %+v", r)
	}
	if !r.Start.Equal(date(2024, time.March, 15, 0, 0, 0, 0)) {
		t.Errorf("start = %v", r.Start)
	}
	if !r.End.Equal(date(2024, time.March, 15, 23, 59, 59, 999)) {
		t.Errorf("end = %v", r.End)
	}
}

func TestParseDateRangeOpenEnded(t *testing.T) {
	r := ParseDateRange("20240101-", VRDA)
	if r.Start == nil || r.End != nil {
		t.Fatalf("expected start-only range, got %+v", r)
	}

	r = ParseDateRange("-20240630", VRDA)
	if r.Start != nil || r.End == nil {
		t.Fatalf("expected end-only range, got %+v", r)
	}
	if !r.End.Equal(date(2024, time.June, 30, 23, 59, 59, 999)) {
		t.Errorf("end = %v", r.End)
	}
}

func TestParseDateRangeUniversal(t *testing.T) {
	for _, s := range []string{"", "-"} {
		if r := ParseDateRange(s, VRDA); !r.IsUniversal() {
			t.Errorf("ParseDateRange(%q) = %+v, want universal", s, r)
		}
	}
}

func TestParseDateRangeMalformed(t *testing.T) {
	// Malformed values match everything rather than erroring.
	for _, s := range []string{"20ab0101", "2024131", "99999999"} {
		if r := ParseDateRange(s, VRDA); !r.IsUniversal() {
			t.Errorf("ParseDateRange(%q) = %+v, want universal", s, r)
		}
	}
}

func TestParseDateRangeReducedPrecision(t *testing.T) {
	r := ParseDateRange("2024", VRDA)
	if r.Start == nil || !r.Start.Equal(date(2024, time.January, 1, 0, 0, 0, 0)) {
		t.Errorf("start = %v", r.Start)
	}
	if r.End == nil || !r.End.Equal(date(2024, time.December, 31, 23, 59, 59, 999)) {
		t.Errorf("end = %v", r.End)
	}

	r = ParseDateRange("202402", VRDA)
	if r.End == nil || !r.End.Equal(date(2024, time.February, 29, 23, 59, 59, 999)) {
		t.Errorf("leap month end = %v", r.End)
	}
}

func TestParseTimeRange(t *testing.T) {
	r := ParseDateRange("0800-1630", VRTM)
	if r.Start == nil || r.End == nil {
		t.Fatalf("expected both bounds, got %+v", r)
	}
	if h, m := r.Start.Hour(), r.Start.Minute(); h != 8 || m != 0 {
		t.Errorf("start = %v", r.Start)
	}
	if h, m, s := r.End.Hour(), r.End.Minute(), r.End.Second(); h != 16 || m != 30 || s != 59 {
		t.Errorf("end = %v", r.End)
	}
}

func TestTimeRangeCrossesMidnight(t *testing.T) {
	r := ParseDateRange("2300-0100", VRTM)
	if !r.StartExceedsEnd() {
		t.Fatalf("expected flipped bounds, got %+v", r)
	}
}

func TestParseTimeFraction(t *testing.T) {
	r := ParseDateRange("120000.5", VRTM)
	if r.Start == nil || r.Start.Nanosecond() != 500*int(time.Millisecond) {
		t.Errorf("start = %v", r.Start)
	}
}

func TestCombineDateTime(t *testing.T) {
	r := CombineDateTime("20240101-20240630", "0800-1700")
	if r.Start == nil || !r.Start.Equal(date(2024, time.January, 1, 8, 0, 0, 0)) {
		t.Errorf("start = %v", r.Start)
	}
	if r.End == nil || !r.End.Equal(date(2024, time.June, 30, 17, 0, 59, 999)) {
		t.Errorf("end = %v", r.End)
	}
}

func TestCombineDateTimeMissingTimeBound(t *testing.T) {
	// A missing time bound widens to the whole day.
	r := CombineDateTime("20240101-20240630", "0800-")
	if r.Start == nil || r.Start.Hour() != 8 {
		t.Errorf("start = %v", r.Start)
	}
	if r.End == nil || !r.End.Equal(date(2024, time.June, 30, 23, 59, 59, 999)) {
		t.Errorf("end = %v", r.End)
	}
}

func TestCombineDateTimeNoDateBound(t *testing.T) {
	// Time bounds exist only where the date bound does.
	r := CombineDateTime("-20240630", "0800-1700")
	if r.Start != nil {
		t.Errorf("start = %v, want nil", r.Start)
	}
	if r.End == nil {
		t.Fatal("expected end bound")
	}
}

func TestFormatRoundTrip(t *testing.T) {
	v := date(2024, time.March, 15, 13, 45, 59, 123)
	if got := FormatDA(v); got != "20240315" {
		t.Errorf("FormatDA = %q", got)
	}
	if got := FormatTM(v); got != "134559.123" {
		t.Errorf("FormatTM = %q", got)
	}
	if got := FormatDT(v); got != "20240315134559.123" {
		t.Errorf("FormatDT = %q", got)
	}
}

func TestSplitRange(t *testing.T) {
	tests := []struct {
		in         string
		start, end string
	}{
		{"20240101-20240630", "20240101", "20240630"},
		{"20240101-", "20240101", ""},
		{"-20240630", "", "20240630"},
		{"20240101", "20240101", "20240101"},
	}
	for _, tt := range tests {
		start, end := SplitRange(tt.in)
		if start != tt.start || end != tt.end {
			t.Errorf("SplitRange(%q) = %q, %q", tt.in, start, end)
		}
	}
}
