package dcm

import (
	"strings"
	"time"
)

// DateRange is a possibly half-open range of instants. A nil bound means
// the range is open on that side; both bounds nil is the universal range.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// IsUniversal reports whether the range matches everything.
func (r DateRange) IsUniversal() bool {
	return r.Start == nil && r.End == nil
}

// StartExceedsEnd reports whether both bounds are set and flipped. Only
// meaningful for time-of-day ranges, where it signals a range crossing
// midnight.
func (r DateRange) StartExceedsEnd() bool {
	return r.Start != nil && r.End != nil && r.Start.After(*r.End)
}

// FormatDA renders a DICOM DA value (YYYYMMDD).
func FormatDA(t time.Time) string { return t.Format("20060102") }

// FormatTM renders a DICOM TM value with millisecond precision.
func FormatTM(t time.Time) string { return t.Format("150405.000") }

// FormatDT renders a DICOM DT value with millisecond precision.
func FormatDT(t time.Time) string { return t.Format("20060102150405.000") }

// SplitRange splits a DICOM range string on '-'. A value without '-' is a
// single-point range; a missing side is returned empty.
func SplitRange(s string) (start, end string) {
	delim := strings.IndexByte(s, '-')
	if delim == -1 {
		return s, s
	}
	return s[:delim], s[delim+1:]
}

// ParseDateRange parses a DICOM range value per the given VR (DA, TM or
// DT). Empty and malformed values yield the universal range; matching
// treats them as universal rather than erroring.
func ParseDateRange(s string, vr VR) DateRange {
	if s == "" {
		return DateRange{}
	}
	startStr, endStr := SplitRange(s)
	var r DateRange
	if startStr != "" {
		if t, ok := parseDicomTime(startStr, vr, false); ok {
			r.Start = &t
		}
	}
	if endStr != "" {
		if t, ok := parseDicomTime(endStr, vr, true); ok {
			r.End = &t
		}
	}
	return r
}

// CombineDateTime builds a full datetime range from a DA range value and a
// TM range value. Each bound exists only if the date bound does; a missing
// time bound widens to the start or end of that day.
func CombineDateTime(dateVal, timeVal string) DateRange {
	dateStart, dateEnd := SplitRange(dateVal)
	timeStart, timeEnd := SplitRange(timeVal)

	var r DateRange
	if t, ok := combineBound(dateStart, timeStart, false); ok {
		r.Start = &t
	}
	if t, ok := combineBound(dateEnd, timeEnd, true); ok {
		r.End = &t
	}
	return r
}

func combineBound(dateStr, timeStr string, ceil bool) (time.Time, bool) {
	if dateStr == "" {
		return time.Time{}, false
	}
	day, ok := parseDicomTime(dateStr, VRDA, ceil)
	if !ok {
		return time.Time{}, false
	}
	if timeStr == "" {
		return day, true
	}
	tod, ok := parseDicomTime(timeStr, VRTM, ceil)
	if !ok {
		return day, true
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		tod.Hour(), tod.Minute(), tod.Second(), tod.Nanosecond(), time.UTC), true
}

// parseDicomTime parses a DA, TM or DT value at any of its legal
// precisions. Missing trailing components floor to the period start or,
// with ceil set, to the period end (the semantics of a range's upper
// bound).
func parseDicomTime(s string, vr VR, ceil bool) (time.Time, bool) {
	s = strings.TrimSpace(s)
	switch vr {
	case VRDA:
		return parseDigits(s, "", ceil)
	case VRTM:
		return parseDigits("00010101", s, ceil)
	case VRDT:
		if len(s) <= 8 {
			return parseDigits(s, "", ceil)
		}
		return parseDigits(s[:8], s[8:], ceil)
	}
	return time.Time{}, false
}

func parseDigits(date, clock string, ceil bool) (time.Time, bool) {
	year, ok := atoiExact(date, 0, 4)
	if !ok {
		return time.Time{}, false
	}

	month := 1
	day := 1
	if ceil {
		month = 12
	}
	if len(date) >= 6 {
		if month, ok = atoiExact(date, 4, 2); !ok || month < 1 || month > 12 {
			return time.Time{}, false
		}
	}
	if len(date) >= 8 {
		if day, ok = atoiExact(date, 6, 2); !ok || day < 1 || day > 31 {
			return time.Time{}, false
		}
	} else if ceil {
		// Last day of the month: first of the next month minus one day.
		day = time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	}
	if len(date) != 4 && len(date) != 6 && len(date) != 8 {
		return time.Time{}, false
	}

	hour, minute, sec, nsec := 0, 0, 0, 0
	if ceil {
		hour, minute, sec, nsec = 23, 59, 59, int(999 * time.Millisecond)
	}
	if clock != "" {
		frac := ""
		if i := strings.IndexByte(clock, '.'); i >= 0 {
			frac = clock[i+1:]
			clock = clock[:i]
		}
		switch len(clock) {
		case 6:
			if sec, ok = atoiExact(clock, 4, 2); !ok || sec > 59 {
				return time.Time{}, false
			}
			fallthrough
		case 4:
			if minute, ok = atoiExact(clock, 2, 2); !ok || minute > 59 {
				return time.Time{}, false
			}
			fallthrough
		case 2:
			if hour, ok = atoiExact(clock, 0, 2); !ok || hour > 23 {
				return time.Time{}, false
			}
		default:
			return time.Time{}, false
		}
		if len(clock) < 6 {
			if ceil {
				sec, nsec = 59, int(999*time.Millisecond)
				if len(clock) < 4 {
					minute = 59
				}
			} else {
				sec, nsec = 0, 0
				if len(clock) < 4 {
					minute = 0
				}
			}
		} else if frac != "" {
			ms, ok := atoiExact(frac+"000", 0, 3)
			if !ok {
				return time.Time{}, false
			}
			nsec = ms * int(time.Millisecond)
		} else if ceil {
			nsec = int(999 * time.Millisecond)
		} else {
			nsec = 0
		}
	}

	return time.Date(year, time.Month(month), day, hour, minute, sec, nsec, time.UTC), true
}

// atoiExact parses exactly n digits of s starting at off.
func atoiExact(s string, off, n int) (int, bool) {
	if len(s) < off+n {
		return 0, false
	}
	v := 0
	for i := off; i < off+n; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int(c-'0')
	}
	return v, true
}
