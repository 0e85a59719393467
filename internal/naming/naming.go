// Package naming derives and parses the timestamped, machine-tagged file names
// a job carries through the spool lifecycle.
//
// A stage name has the shape <YYYYMMDD_HHMMSS>_<machine>_<base>. The work stage
// wraps the original job basename; the out stage wraps the work-stage name, so
// an out-stage name records both the claim and completion times.
package naming

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// TimeLayout is the timestamp prefix format. It sorts lexicographically in
// chronological order.
const TimeLayout = "20060102_150405"

// ErrNotStageName reports a file name that was not produced by StageName.
var ErrNotStageName = errors.New("not a stage name")

// Name is the parsed form of a stage name.
type Name struct {
	Stamp   time.Time
	Machine string
	Base    string
}

// StageName returns <YYYYMMDD_HHMMSS>_<machine>_<base>. The timestamp is
// rendered in t's own location.
func StageName(t time.Time, machine, base string) string {
	return t.Format(TimeLayout) + "_" + machine + "_" + base
}

// String renders n back into its stage name.
func (n Name) String() string {
	return StageName(n.Stamp, n.Machine, n.Base)
}

// Inner parses the wrapped base as a stage name. For an out-stage name it
// yields the work-stage name.
func (n Name) Inner() (Name, bool) {
	inner, err := Parse(n.Base)
	if err != nil {
		return Name{}, false
	}
	return inner, true
}

// Unwrap returns the base after peeling depth-1 further stage names off
// n.Base. Depth 1 is n.Base itself; an out-stage name needs depth 2 to reach
// the original job basename. Unwrapping stops early when a level does not
// parse.
func (n Name) Unwrap(depth int) string {
	current := n
	for ; depth > 1; depth-- {
		inner, ok := current.Inner()
		if !ok {
			break
		}
		current = inner
	}
	return current.Base
}

// Parse splits a stage name into its timestamp, machine id and base. The
// timestamp is interpreted in the local time zone, matching StageName callers
// that use time.Now.
func Parse(name string) (Name, error) {
	return ParseInLocation(name, time.Local)
}

// ParseInLocation is Parse with an explicit time zone for the timestamp.
func ParseInLocation(name string, loc *time.Location) (Name, error) {
	const stampLen = len(TimeLayout)
	if len(name) < stampLen+4 || name[stampLen] != '_' {
		return Name{}, fmt.Errorf("%w: %q", ErrNotStageName, name)
	}
	stamp, err := time.ParseInLocation(TimeLayout, name[:stampLen], loc)
	if err != nil {
		return Name{}, fmt.Errorf("%w: %q: %v", ErrNotStageName, name, err)
	}
	rest := name[stampLen+1:]
	sep := strings.IndexByte(rest, '_')
	if sep <= 0 || sep == len(rest)-1 {
		return Name{}, fmt.Errorf("%w: %q: missing machine or base", ErrNotStageName, name)
	}
	return Name{Stamp: stamp, Machine: rest[:sep], Base: rest[sep+1:]}, nil
}

// SanitizeMachine makes a machine identifier safe to embed in a stage name.
// Underscores, path separators and whitespace become '-' so Parse can find
// the machine/base boundary. An empty result becomes "unknown".
func SanitizeMachine(machine string) string {
	machine = strings.TrimSpace(machine)
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r == '_' || r == '/' || r == '\\' || unicode.IsSpace(r):
			return '-'
		case !unicode.IsPrint(r):
			return -1
		default:
			return r
		}
	}, machine)
	if mapped == "" {
		return "unknown"
	}
	return mapped
}
