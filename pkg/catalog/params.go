package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// DateLayout is the only date format that reaches query text.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidParameter is matched by every parameter validation failure.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrUnknownQuery is returned for ids that are not in the catalog.
	ErrUnknownQuery = errors.New("unknown query")
)

// ParamError describes which parameter was rejected.
type ParamError struct {
	Field  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}

func (e *ParamError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// Bucket is the time granularity used by time-series queries.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// Buckets lists the accepted granularities in display order.
var Buckets = []Bucket{BucketMonth, BucketWeek, BucketDay}

// Valid reports whether b is one of the declared granularities.
func (b Bucket) Valid() bool {
	switch b {
	case BucketDay, BucketWeek, BucketMonth:
		return true
	}
	return false
}

// ParseBucket parses a case-insensitive bucket name.
func ParseBucket(s string) (Bucket, error) {
	b := Bucket(strings.ToLower(strings.TrimSpace(s)))
	if !b.Valid() {
		return "", &ParamError{Field: "bucket", Reason: fmt.Sprintf("%q is not one of day, week, month", s)}
	}
	return b, nil
}

// truncFunc is the ClickHouse function that floors a timestamp to the bucket start.
func (b Bucket) truncFunc() string {
	switch b {
	case BucketDay:
		return "toStartOfDay"
	case BucketWeek:
		// Monday-based weeks
		return "toMonday"
	default:
		return "toStartOfMonth"
	}
}

// Params is the user-selected parameter tuple. Treat it as a value; Normalize returns a copy.
type Params struct {
	Start   time.Time
	End     time.Time
	Bucket  Bucket
	Filters []string
}

// ParseDate parses YYYY-MM-DD into a UTC midnight.
func ParseDate(field, s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, &ParamError{Field: field, Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
	}
	return d, nil
}

// Date returns a UTC midnight for the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// addressPattern is the allow-list rule for free-text filters: EVM contract addresses only.
var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Validate checks the fields the given usage set depends on.
func (p Params) Validate(uses Uses) error {
	if p.Start.IsZero() {
		return &ParamError{Field: "start", Reason: "missing"}
	}
	if p.End.IsZero() {
		return &ParamError{Field: "end", Reason: "missing"}
	}
	if truncateDay(p.Start).After(truncateDay(p.End)) {
		return &ParamError{
			Field:  "start",
			Reason: fmt.Sprintf("start %s is after end %s", p.Start.Format(DateLayout), p.End.Format(DateLayout)),
		}
	}
	if uses.Has(UsesBucket) && !p.Bucket.Valid() {
		return &ParamError{Field: "bucket", Reason: fmt.Sprintf("%q is not one of day, week, month", p.Bucket)}
	}
	if uses.Has(UsesFilters) {
		if len(p.Filters) == 0 {
			return &ParamError{Field: "filter", Reason: "at least one contract address is required"}
		}
		for _, f := range p.Filters {
			if !ValidAddress(f) {
				return &ParamError{Field: "filter", Reason: fmt.Sprintf("%q is not a 0x-prefixed 20-byte hex address", f)}
			}
		}
	}
	return nil
}

// Normalize canonicalizes p for a usage set: dates truncated to UTC days, unused fields cleared,
// filters trimmed, lowercased, deduplicated and sorted. Equal inputs in any filter order normalize equal.
func (p Params) Normalize(uses Uses) Params {
	out := Params{
		Start: truncateDay(p.Start),
		End:   truncateDay(p.End),
	}
	if uses.Has(UsesBucket) {
		out.Bucket = p.Bucket
	}
	if uses.Has(UsesFilters) && len(p.Filters) > 0 {
		seen := make(map[string]struct{}, len(p.Filters))
		filters := make([]string, 0, len(p.Filters))
		for _, f := range p.Filters {
			f = strings.ToLower(strings.TrimSpace(f))
			if _, dup := seen[f]; dup || f == "" {
				continue
			}
			seen[f] = struct{}{}
			filters = append(filters, f)
		}
		sort.Strings(filters)
		out.Filters = filters
	}
	return out
}

// Fingerprint is the canonical text form of normalized params, used for cache keys and logs.
func (p Params) Fingerprint() string {
	var b strings.Builder
	b.WriteString(p.Start.Format(DateLayout))
	b.WriteByte('|')
	b.WriteString(p.End.Format(DateLayout))
	b.WriteByte('|')
	b.WriteString(string(p.Bucket))
	b.WriteByte('|')
	b.WriteString(strings.Join(p.Filters, ","))
	return b.String()
}
