// Package dateutil parses user-friendly date format strings and renders
// publish timestamps in English or Korean.
package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors.
var (
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrUnsupportedLang   = errors.New("unsupported date language")
)

// MaxDateFormatLength limits format string length to prevent abuse.
const MaxDateFormatLength = 50

// DefaultDateFormat is used when "auto" is specified without a format.
const DefaultDateFormat = "YYYY-MM-DD"

// dateTokens maps user-friendly tokens to Go time format components.
// Ordered by length descending for greedy matching. Matching is
// case-sensitive: MM is the month, mm the minute.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"dddd", "Monday"},
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"ddd", "Mon"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"HH", "15"},
	{"mm", "04"},
	{"ss", "05"},
	{"M", "1"},
	{"D", "2"},
}

// DatePresets provides named shortcuts for common date formats.
var DatePresets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
	"datetime": "YYYY-MM-DD HH:mm",
}

// segment is either a token or literal text.
type segment struct {
	token   string
	literal string
}

// scan splits format into tokens and literals.
// Use brackets to escape literal text: [Date] preserves "Date" literally.
func scan(format string) ([]segment, error) {
	if format == "" {
		return nil, fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(format) > MaxDateFormatLength {
		return nil, fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}

	var segs []segment
	i := 0
	for i < len(format) {
		if format[i] == '[' {
			end := strings.Index(format[i+1:], "]")
			if end == -1 {
				return nil, fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			segs = append(segs, segment{literal: format[i+1 : i+1+end]})
			i += end + 2
			continue
		}

		matched := false
		for _, t := range dateTokens {
			if strings.HasPrefix(format[i:], t.token) {
				segs = append(segs, segment{token: t.token})
				i += len(t.token)
				matched = true
				break
			}
		}
		if !matched {
			segs = append(segs, segment{literal: format[i : i+1]})
			i++
		}
	}
	return segs, nil
}

// ParseDateFormat converts a user-friendly format string to Go's time format.
// Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D, dddd, ddd, HH, mm, ss.
// Any non-token characters outside brackets are preserved as literals.
// Returns ErrInvalidDateFormat if the format is empty, too long, or has unclosed brackets.
func ParseDateFormat(format string) (string, error) {
	segs, err := scan(format)
	if err != nil {
		return "", err
	}

	var result strings.Builder
	result.Grow(len(format) + 10)
	for _, s := range segs {
		if s.token == "" {
			result.WriteString(s.literal)
			continue
		}
		for _, t := range dateTokens {
			if t.token == s.token {
				result.WriteString(t.goFmt)
				break
			}
		}
	}
	return result.String(), nil
}

// ResolveDate handles "auto" and "auto:FORMAT" syntax for date values.
// - "auto" → current date in YYYY-MM-DD format
// - "auto:FORMAT" → current date in custom format (e.g., "auto:DD/MM/YYYY")
// - "auto:preset" → current date using named preset
// - any other value → returned unchanged (passthrough)
//
// The time parameter allows injecting a fixed time for testing.
func ResolveDate(value string, t time.Time) (string, error) {
	lower := strings.ToLower(value)

	if !strings.HasPrefix(lower, "auto") {
		return value, nil
	}
	if lower == "auto" {
		return Format(t, DefaultDateFormat, "en")
	}
	if !strings.HasPrefix(lower, "auto:") {
		return "", fmt.Errorf("%w: invalid auto syntax %q, use \"auto\" or \"auto:FORMAT\"", ErrInvalidDateFormat, value)
	}

	formatPart := value[5:]
	if formatPart == "" {
		return "", fmt.Errorf("%w: format cannot be empty after \"auto:\"", ErrInvalidDateFormat)
	}
	if preset, ok := DatePresets[strings.ToLower(formatPart)]; ok {
		formatPart = preset
	}
	return Format(t, formatPart, "en")
}

var (
	koWeekdays      = [...]string{"일요일", "월요일", "화요일", "수요일", "목요일", "금요일", "토요일"}
	koWeekdaysShort = [...]string{"일", "월", "화", "수", "목", "금", "토"}
)

// Format renders t with a user-friendly format in lang ("en" or "ko";
// empty means "en"). Korean month names are "1월".."12월".
func Format(t time.Time, format, lang string) (string, error) {
	switch lang {
	case "", "en", "ko":
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLang, lang)
	}
	segs, err := scan(format)
	if err != nil {
		return "", err
	}

	ko := lang == "ko"
	var b strings.Builder
	for _, s := range segs {
		switch s.token {
		case "":
			b.WriteString(s.literal)
		case "YYYY":
			fmt.Fprintf(&b, "%04d", t.Year())
		case "YY":
			fmt.Fprintf(&b, "%02d", t.Year()%100)
		case "MMMM":
			if ko {
				b.WriteString(strconv.Itoa(int(t.Month())) + "월")
			} else {
				b.WriteString(t.Month().String())
			}
		case "MMM":
			if ko {
				b.WriteString(strconv.Itoa(int(t.Month())) + "월")
			} else {
				b.WriteString(t.Month().String()[:3])
			}
		case "MM":
			fmt.Fprintf(&b, "%02d", int(t.Month()))
		case "M":
			b.WriteString(strconv.Itoa(int(t.Month())))
		case "DD":
			fmt.Fprintf(&b, "%02d", t.Day())
		case "D":
			b.WriteString(strconv.Itoa(t.Day()))
		case "dddd":
			if ko {
				b.WriteString(koWeekdays[t.Weekday()])
			} else {
				b.WriteString(t.Weekday().String())
			}
		case "ddd":
			if ko {
				b.WriteString(koWeekdaysShort[t.Weekday()])
			} else {
				b.WriteString(t.Weekday().String()[:3])
			}
		case "HH":
			fmt.Fprintf(&b, "%02d", t.Hour())
		case "mm":
			fmt.Fprintf(&b, "%02d", t.Minute())
		case "ss":
			fmt.Fprintf(&b, "%02d", t.Second())
		}
	}
	return b.String(), nil
}

// FormatTimestamp re-renders an RFC 3339 timestamp, as returned by the
// Blogger API, in loc. An empty format returns the timestamp unchanged.
func FormatTimestamp(ts, format, lang string, loc *time.Location) (string, error) {
	if format == "" || ts == "" {
		return ts, nil
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return "", fmt.Errorf("parsing timestamp %q: %w", ts, err)
	}
	if loc != nil {
		t = t.In(loc)
	}
	return Format(t, format, lang)
}
