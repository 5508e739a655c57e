package neofeed

import (
	"errors"
	"regexp"
	"time"

	"github.com/geocoder89/staroracle/internal/domain/neo"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidDate = errors.New("invalid date format, use YYYY-MM-DD")
	dateRe         = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// DateRangeFrom validates the query dates. Empty values default to today.
func DateRangeFrom(start, end string, now time.Time) (neo.DateRange, error) {
	today := now.UTC().Format(DateLayout)

	if start == "" {
		start = today
	}
	if end == "" {
		end = today
	}

	if !validDate(start) || !validDate(end) {
		return neo.DateRange{}, ErrInvalidDate
	}

	return neo.DateRange{Start: start, End: end}, nil
}

func validDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
