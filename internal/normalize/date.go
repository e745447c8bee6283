package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/nishad/ctrake/internal/xmltree"
)

// DateLayout is the canonical day precision form.
const DateLayout = "2006-01-02"

// layouts are tried before falling back to the free-form parser. Month
// precision layouts resolve to the first day of the month.
var layouts = []string{
	DateLayout,
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan. 2, 2006",
	"2 January 2006",
	"January 02, 2006",
	"January 2006",
	"Jan 2006",
	"2006-01",
	"01/02/2006",
	"20060102",
	time.RFC3339,
}

var (
	yearToken  = regexp.MustCompile(`(^|\D)(\d{4})(\D|$)`)
	digitRun   = regexp.MustCompile(`\d+`)
	monthToken = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b`)
)

// Date accepts a scalar or a mapping with a reserved value key and returns
// the date in YYYY-MM-DD form. Unparsable or missing values yield nil.
func Date(n xmltree.Node) *string {
	t, ok := ParseDate(Str(n))
	if !ok {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

// ParseDate parses a registry date string at day precision in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return truncate(t), true
		}
	}

	// Bare digit runs are read as unix timestamps by the free-form parser.
	if strings.Trim(s, "0123456789") == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil || !spelledOut(s, t) {
		return time.Time{}, false
	}
	return truncate(t), true
}

// spelledOut reports whether s itself carries the year of t and either a
// month name or at least three numeric components.
func spelledOut(s string, t time.Time) bool {
	if t.Year() < 1000 {
		return false
	}
	year := strconv.Itoa(t.Year())
	found := false
	for _, m := range yearToken.FindAllStringSubmatch(s, -1) {
		if m[2] == year {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	return monthToken.MatchString(s) || len(digitRun.FindAllString(s, -1)) >= 3
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
