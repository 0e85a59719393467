package spool

import (
	"fmt"
	"os"
	"path/filepath"
)

// Location names a lifecycle directory.
type Location string

const (
	Incoming Location = "incoming"
	Work     Location = "work"
	Out      Location = "out"
	Results  Location = "results"
)

// Locations lists every lifecycle directory in traversal order.
var Locations = []Location{Incoming, Work, Out, Results}

// Layout resolves lifecycle directories beneath a single spool root.
type Layout struct {
	Root string
}

// NewLayout returns the layout rooted at root. A relative root is made
// absolute so job paths stay valid when the working directory changes.
func NewLayout(root string) Layout {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return Layout{Root: filepath.Clean(root)}
}

// Dir returns the absolute path of the given lifecycle directory.
func (l Layout) Dir(loc Location) string {
	return filepath.Join(l.Root, string(loc))
}

func (l Layout) IncomingDir() string { return l.Dir(Incoming) }
func (l Layout) WorkDir() string     { return l.Dir(Work) }
func (l Layout) OutDir() string      { return l.Dir(Out) }
func (l Layout) ResultsDir() string  { return l.Dir(Results) }

// Ensure creates any missing lifecycle directories.
func (l Layout) Ensure() error {
	for _, loc := range Locations {
		dir := l.Dir(loc)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return wrap(ErrLayout, "ensure", dir, err)
		}
	}
	return nil
}

// Check verifies that every lifecycle directory exists and is a directory.
// It does not create anything.
func (l Layout) Check() error {
	for _, loc := range Locations {
		dir := l.Dir(loc)
		info, err := os.Stat(dir)
		if err != nil {
			return wrap(ErrLayout, "check", fmt.Sprintf("%s directory %s", loc, dir), err)
		}
		if !info.IsDir() {
			return wrap(ErrLayout, "check", fmt.Sprintf("%s path %s is not a directory", loc, dir), nil)
		}
	}
	return nil
}
