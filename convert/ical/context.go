package ical

import (
	"strings"
	"time"

	"github.com/mailcore/jevent/internal/obslog"
	"github.com/mailcore/jevent/tzdata"
)

// Direction is which way a conversionContext is moving data.
type Direction int

const (
	DirectionRead Direction = iota
	DirectionWrite
)

// zones bundles the four cached zone handles a temporal conversion needs:
// old/new start and old/new end.
type zones struct {
	startOld *time.Location
	startNew *time.Location
	endOld   *time.Location
	endNew   *time.Location
}

// conversionContext is the per-call state every conversion file threads
// through. One context is exclusive to one top-level ToDocument/ToComponent
// call; it is never reused or shared across goroutines.
type conversionContext struct {
	direction Direction
	mutation  bool // create vs update, set when an existing component is supplied
	exception bool // processing an override against a master

	wanted map[string]bool // desired-property filter; nil = all

	zones zones

	master interface{} // *ics.VEvent when exception is true, stored untyped

	uid string

	path  []string
	stack []string // accumulated invalid-property JSON Pointers

	tz  tzdata.Lookup
	log *obslog.Logger
}

func newConversionContext(dir Direction, tz tzdata.Lookup, log *obslog.Logger) *conversionContext {
	if tz == nil {
		tz = tzdata.System{}
	}
	if log == nil {
		log = obslog.Nop()
	}
	return &conversionContext{direction: dir, tz: tz, log: log}
}

// pushPath descends into a nested field; the caller is responsible for
// popping on every exit path.
func (c *conversionContext) pushPath(segment string) {
	c.path = append(c.path, segment)
}

// popPath ascends back out of the current field. Every pushPath call must
// be paired with exactly one popPath, typically via defer immediately after
// the push.
func (c *conversionContext) popPath() {
	if len(c.path) == 0 {
		return
	}
	c.path = c.path[:len(c.path)-1]
}

// withPath pushes segment, runs fn, and pops unconditionally (including on
// panic).
func (c *conversionContext) withPath(segment string, fn func()) {
	c.pushPath(segment)
	defer c.popPath()
	fn()
}

// currentPointer renders the path stack as a JSON Pointer (RFC 6901).
func (c *conversionContext) currentPointer() string {
	if len(c.path) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range c.path {
		b.WriteByte('/')
		seg = strings.ReplaceAll(seg, "~", "~0")
		seg = strings.ReplaceAll(seg, "/", "~1")
		b.WriteString(seg)
	}
	return b.String()
}

// invalid snapshots the current path as an invalid-property entry.
func (c *conversionContext) invalid() {
	ptr := c.currentPointer()
	for _, existing := range c.stack {
		if existing == ptr {
			return
		}
	}
	c.stack = append(c.stack, ptr)
}

// invalidAt records an invalid-property entry at an explicit extra segment
// without mutating the path stack, a convenience for leaf-level checks that
// don't want to push/pop for a single call.
func (c *conversionContext) invalidAt(segment string) {
	c.pushPath(segment)
	c.invalid()
	c.popPath()
}

func (c *conversionContext) wants(field string) bool {
	if c.wanted == nil {
		return true
	}
	return c.wanted[field]
}
