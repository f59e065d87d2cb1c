package artifact

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	masterminds "github.com/Masterminds/semver/v3"
)

// ErrMalformedEntry marks a reference that carries a major prefix but lacks
// the date or rc token its channel needs.
var ErrMalformedEntry = errors.New("malformed listing entry")

var (
	majorRe = regexp.MustCompile(`^v(\d+)`)
	dateRe  = regexp.MustCompile(`\d{8}`)
	rcRe    = regexp.MustCompile(`rc\.(\d+)`)
)

// Result is the outcome of parsing one reference: either a Record or a
// rejection reason. Exactly one of the two is meaningful, reported by OK.
type Result struct {
	Record Record
	Err    error
}

// OK reports whether the reference parsed into a record.
func (r Result) OK() bool { return r.Err == nil }

// Parsed wraps a successfully parsed record.
func Parsed(rec Record) Result { return Result{Record: rec} }

// Rejected wraps a parse failure. The error always matches ErrMalformedEntry.
func Rejected(ref, reason string) Result {
	return Result{
		Record: Record{Reference: ref},
		Err:    fmt.Errorf("%w: %q: %s", ErrMalformedEntry, ref, reason),
	}
}

// MajorOf extracts the major number from a leading "v<digits>" token.
// References without it (e.g. "../", "index.json") are not version entries.
func MajorOf(ref string) (int, bool) {
	m := majorRe.FindStringSubmatch(ref)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Parse converts a version reference into a record using the given rule.
// Callers filter non-version references with MajorOf first; Parse rejects
// them too so it is safe to call on anything.
func Parse(ref string, rule Rule) Result {
	major, ok := MajorOf(ref)
	if !ok {
		return Rejected(ref, "no v<major> prefix")
	}

	switch rule {
	case RuleDate:
		key, err := parseDateKey(ref)
		if err != nil {
			return Rejected(ref, err.Error())
		}
		return Parsed(Record{Reference: ref, Major: major, Key: key})
	case RuleRC:
		key, err := parseRCKey(ref)
		if err != nil {
			return Rejected(ref, err.Error())
		}
		return Parsed(Record{Reference: ref, Major: major, Key: key})
	default:
		return Rejected(ref, fmt.Sprintf("unknown ordering %s", rule))
	}
}

// parseDateKey reads the first run of 8 digits as YYYYMMDD.
func parseDateKey(ref string) (DateKey, error) {
	raw := dateRe.FindString(ref)
	if raw == "" {
		return DateKey{}, errors.New("no 8-digit date")
	}
	d, err := time.Parse("20060102", raw)
	if err != nil {
		return DateKey{}, fmt.Errorf("invalid date %s", raw)
	}
	return DateKey{Date: d}, nil
}

// parseRCKey requires an "rc.<N>" token and a semver-parsable reference.
func parseRCKey(ref string) (RCKey, error) {
	m := rcRe.FindStringSubmatch(ref)
	if m == nil {
		return RCKey{}, errors.New("no rc.<N> ordinal")
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return RCKey{}, fmt.Errorf("invalid rc ordinal %s", m[1])
	}
	v, err := masterminds.StrictNewVersion(strings.TrimPrefix(trimSlash(ref), "v"))
	if err != nil {
		return RCKey{}, fmt.Errorf("invalid version: %v", err)
	}
	return RCKey{Version: v, RC: n}, nil
}

func trimSlash(s string) string {
	return strings.TrimSuffix(s, "/")
}
