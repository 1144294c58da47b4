// Package dates resolves the processing dates a run covers from a single
// date or a date-range token.
package dates

import (
	"fmt"
	"strings"
	"time"
)

const (
	// Layout is the YYYYMMDD form used in file and sheet names.
	Layout = "20060102"
	// RangeDelimiter separates the two ends of a date range token.
	RangeDelimiter = "~"

	dateLength = 8
)

// ValidationError reports a date token that could not be resolved.
type ValidationError struct {
	Literal string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid date %q: %s", e.Literal, e.Reason)
}

// Resolver turns date tokens into processing dates. Now is consulted for the
// yesterday default and the future-date check.
type Resolver struct {
	Now func() time.Time
}

// NewResolver returns a Resolver backed by the wall clock.
func NewResolver() *Resolver {
	return &Resolver{Now: time.Now}
}

// Resolve returns the dates covered by token. An empty token yields
// yesterday; "YYYYMMDD" yields that date; "YYYYMMDD~YYYYMMDD" yields the
// inclusive range, with the ends swapped if given in reverse.
func (r *Resolver) Resolve(token string) ([]string, error) {
	now := r.now()

	if token == "" {
		return []string{now.AddDate(0, 0, -1).Format(Layout)}, nil
	}

	if strings.Contains(token, RangeDelimiter) {
		parts := strings.Split(token, RangeDelimiter)
		if len(parts) != 2 {
			return nil, &ValidationError{
				Literal: token,
				Reason:  "a date range must be YYYYMMDD" + RangeDelimiter + "YYYYMMDD",
			}
		}
		start, err := parse(parts[0], now)
		if err != nil {
			return nil, err
		}
		end, err := parse(parts[1], now)
		if err != nil {
			return nil, err
		}
		return expand(start, end), nil
	}

	d, err := parse(token, now)
	if err != nil {
		return nil, err
	}
	return []string{d.Format(Layout)}, nil
}

func (r *Resolver) now() time.Time {
	if r == nil || r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func parse(literal string, now time.Time) (time.Time, error) {
	if len(literal) != dateLength || !isDigits(literal) {
		return time.Time{}, &ValidationError{
			Literal: literal,
			Reason:  "date must be 8 digits in YYYYMMDD format (use YYYYMMDD" + RangeDelimiter + "YYYYMMDD for a range)",
		}
	}

	d, err := time.ParseInLocation(Layout, literal, now.Location())
	if err != nil {
		return time.Time{}, &ValidationError{Literal: literal, Reason: "not a calendar date"}
	}
	if d.After(now) {
		return time.Time{}, &ValidationError{Literal: literal, Reason: "future date specified"}
	}
	return d, nil
}

// expand walks day by day so month and year rollovers need no special casing.
func expand(start, end time.Time) []string {
	if start.After(end) {
		start, end = end, start
	}

	var out []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(Layout))
	}
	return out
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
