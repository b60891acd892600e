package workouts

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DateLayout is the stored workout date form: day first, then month, then year.
const DateLayout = "02/01/2006"

var dateRegex = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

// ParseDate reads a DD/MM/YYYY date. Day and month may have one or two digits.
// The components are read explicitly, so 01/03/2024 is always the 1st of March.
func ParseDate(s string) (time.Time, error) {
	m := dateRegex.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("date %q is not in DD/MM/YYYY form", s)
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31/02 into March, reject those
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, fmt.Errorf("date %q is not a calendar date", s)
	}

	return t, nil
}

// NormalizeDate returns the zero padded DD/MM/YYYY form of a valid date.
func NormalizeDate(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}
