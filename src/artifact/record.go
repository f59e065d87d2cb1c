// Package artifact turns directory-listing entries from the Node.js download
// mirrors into comparable version records and picks the newest one per major
// line.
package artifact

import (
	"fmt"
	"time"

	masterminds "github.com/Masterminds/semver/v3"
)

// Rule selects how records of a channel are ordered.
type Rule int

const (
	RuleDate Rule = iota // nightly and v8-canary: embedded YYYYMMDD
	RuleRC               // release candidates: semver precedence
)

// String returns the config spelling of the rule.
func (r Rule) String() string {
	switch r {
	case RuleDate:
		return "date"
	case RuleRC:
		return "rc"
	default:
		return fmt.Sprintf("rule(%d)", int(r))
	}
}

// OrderKey is the comparable part of a record. The concrete type is fixed per
// channel: DateKey for RuleDate, RCKey for RuleRC.
type OrderKey interface {
	rule() Rule
}

// DateKey orders records by the calendar date embedded in the reference.
type DateKey struct {
	Date time.Time
}

func (DateKey) rule() Rule { return RuleDate }

// RCKey orders records by full semver precedence. RC is the parsed ordinal
// from "rc.<N>", kept for display; Version already carries it.
type RCKey struct {
	Version *masterminds.Version
	RC      int
}

func (RCKey) rule() Rule { return RuleRC }

// Record is one parsed listing entry.
type Record struct {
	Reference string // raw href, e.g. "v21.0.0-nightly20230801abc123/"
	Major     int
	Key       OrderKey
	Index     int // position in the listing, used to break ties
}

// Version returns the reference without its trailing path separator.
func (r Record) Version() string {
	return trimSlash(r.Reference)
}

// CompareDate is a three-way comparison of two dates at day granularity.
func CompareDate(a, b DateKey) int {
	switch {
	case a.Date.Before(b.Date):
		return -1
	case a.Date.After(b.Date):
		return 1
	default:
		return 0
	}
}

// CompareRC is a three-way comparison by semver precedence, including
// prerelease identifiers (numeric identifiers compare numerically).
func CompareRC(a, b RCKey) int {
	return a.Version.Compare(b.Version)
}

// Compare dispatches to the comparator for the keys' variant.
// Mixing variants is a programming error.
func Compare(a, b OrderKey) int {
	switch ak := a.(type) {
	case DateKey:
		bk, ok := b.(DateKey)
		if !ok {
			panic(fmt.Sprintf("artifact: cannot compare %T with %T", a, b))
		}
		return CompareDate(ak, bk)
	case RCKey:
		bk, ok := b.(RCKey)
		if !ok {
			panic(fmt.Sprintf("artifact: cannot compare %T with %T", a, b))
		}
		return CompareRC(ak, bk)
	default:
		panic(fmt.Sprintf("artifact: unknown order key %T", a))
	}
}
