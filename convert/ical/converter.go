// Package ical implements the semantic translator between iCalendar
// components (via github.com/arran4/golang-ical) and jevent.Event
// documents.
package ical

import (
	"encoding/json"
	"fmt"
	"strings"

	ics "github.com/arran4/golang-ical"
	"github.com/mailcore/jevent"
	"github.com/mailcore/jevent/convert"
	"github.com/mailcore/jevent/internal/obslog"
	"github.com/mailcore/jevent/tzdata"
)

const recurrenceIDToken = "RECURRENCE-ID"

// Converter is the convert.Converter implementation for iCalendar, built on
// a golang-ical-backed design and generalized to the full
// event/recurrence/participant/location/alert/link model described across
// convert/ical's files.
type Converter struct {
	ProdID string
	TZ     tzdata.Lookup
	Log    *obslog.Logger
}

var _ convert.Converter = (*Converter)(nil)

// New creates a Converter with sensible defaults; callers with a
// configured internal/config.Config should set ProdID explicitly.
func New() *Converter {
	return &Converter{
		ProdID: "-//mailcore//jevent//EN",
		TZ:     tzdata.System{},
		Log:    obslog.Nop(),
	}
}

func (c *Converter) lookup() tzdata.Lookup {
	if c.TZ == nil {
		return tzdata.System{}
	}
	return c.TZ
}

func (c *Converter) logger() *obslog.Logger {
	if c.Log == nil {
		return obslog.Nop()
	}
	return c.Log
}

// Parse converts iCalendar data to a single event; a convenience wrapper
// around ParseAll for callers expecting exactly one event.
func (c *Converter) Parse(data []byte) (*jevent.Event, error) {
	events, err := c.ParseAll(data)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("ical: no events found")
	}
	if len(events) > 1 {
		return nil, fmt.Errorf("ical: multiple events found, use ParseAll instead")
	}
	return events[0], nil
}

// Format converts a single event to iCalendar.
func (c *Converter) Format(event *jevent.Event) ([]byte, error) {
	return c.FormatAll([]*jevent.Event{event})
}

// ParseAll groups a calendar's VEVENTs by UID, treats the component lacking
// a RECURRENCE-ID as each group's master, and folds the rest into the
// master's recurrenceOverrides.
func (c *Converter) ParseAll(data []byte) ([]*jevent.Event, error) {
	cal, err := ics.ParseCalendar(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("ical: parsing calendar: %w", err)
	}

	groups := map[string][]*ics.VEvent{}
	order := []string{}
	for _, vevent := range cal.Events() {
		uid := vevent.Id()
		if _, seen := groups[uid]; !seen {
			order = append(order, uid)
		}
		groups[uid] = append(groups[uid], vevent)
	}

	var events []*jevent.Event
	for _, uid := range order {
		members := groups[uid]
		master, siblings := splitMaster(members)
		if master == nil {
			continue
		}
		ev, sink := c.ToDocument(master, siblings, nil)
		if sink != nil {
			return nil, sink
		}
		events = append(events, ev)
	}
	return events, nil
}

func splitMaster(members []*ics.VEvent) (*ics.VEvent, []*ics.VEvent) {
	var master *ics.VEvent
	var siblings []*ics.VEvent
	for _, m := range members {
		if findProperty(m, recurrenceIDToken) == nil {
			if master == nil {
				master = m
				continue
			}
		}
		siblings = append(siblings, m)
	}
	if master == nil && len(members) > 0 {
		master = members[0]
		siblings = members[1:]
	}
	return master, siblings
}

// FormatAll is the inverse of ParseAll: each event becomes a master VEVENT
// plus one sibling exception VEVENT per non-trivial override.
func (c *Converter) FormatAll(events []*jevent.Event) ([]byte, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("ical: no events to convert")
	}

	cal := ics.NewCalendar()
	cal.SetProductId(c.ProdID)
	cal.SetVersion("2.0")

	for _, event := range events {
		master, siblings, sink := c.ToComponent(event, nil, nil)
		if sink != nil {
			return nil, sink
		}
		cal.AddVEvent(master)
		for _, s := range siblings {
			cal.AddVEvent(s)
		}
	}

	return []byte(cal.Serialize()), nil
}

// Detect returns true if data looks like iCalendar (teacher's heuristic,
// unchanged).
func (c *Converter) Detect(data []byte) bool {
	s := strings.TrimSpace(string(data))
	if strings.HasPrefix(s, "BEGIN:VCALENDAR") {
		return true
	}
	found := 0
	for _, pattern := range []string{"BEGIN:VEVENT", "DTSTART:", "DTEND:", "SUMMARY:", "UID:"} {
		if strings.Contains(s, pattern) {
			found++
		}
	}
	return found >= 3
}

// ToDocument is the public read operation.
// wantedProps, if non-nil, restricts which top-level jevent.Event fields
// are populated; "@type" and "uid" are always kept.
func (c *Converter) ToDocument(master *ics.VEvent, siblings []*ics.VEvent, wantedProps map[string]bool) (*jevent.Event, *ErrorSink) {
	ctx := newConversionContext(DirectionRead, c.lookup(), c.logger())
	ctx.wanted = wantedProps

	ev := &jevent.Event{}
	if sink := readEventCore(ctx, master, ev); sink != nil {
		return nil, sink
	}
	if sink := readOverrides(ctx, master, siblings, ev); sink != nil {
		return nil, sink
	}
	if len(ctx.stack) > 0 {
		for _, ptr := range ctx.stack {
			ctx.log.Warnf("ical: invalid property %s", ptr)
		}
		return nil, propertyError(ctx.stack)
	}
	if wantedProps != nil {
		m, err := eventToMap(ev)
		if err != nil {
			return nil, fatal(CodeCallbackError, "filtering properties: %v", err)
		}
		for k := range m {
			if k != "@type" && k != "uid" && !ctx.wants(k) {
				delete(m, k)
			}
		}
		if ev, err = mapToEvent(m); err != nil {
			return nil, fatal(CodeCallbackError, "filtering properties: %v", err)
		}
	}
	return ev, nil
}

// ToComponent is the public write operation.
// When existing is non-nil, conversion operates in update mode: mutation
// flag set, and the document's fields are overlaid onto the existing
// component's properties.
func (c *Converter) ToComponent(ev *jevent.Event, existing *ics.VEvent, existingSiblings []*ics.VEvent) (*ics.VEvent, []*ics.VEvent, *ErrorSink) {
	if ev.UID == "" {
		return nil, nil, fatal(CodeMissingUID, "event has no uid")
	}

	ctx := newConversionContext(DirectionWrite, c.lookup(), c.logger())
	vevent := existing
	if vevent == nil {
		vevent = ics.NewEvent(ev.UID)
	} else {
		ctx.mutation = true
	}

	if sink := writeEventCore(ctx, ev, vevent, c.ProdID); sink != nil {
		return nil, nil, sink
	}

	siblingsByKey := map[string]*ics.VEvent{}
	for _, s := range existingSiblings {
		if rid := findProperty(s, recurrenceIDToken); rid != nil {
			if wc, ok := parseWallClock(rid.Value, rid.ICalParameters); ok {
				siblingsByKey[jevent.NewLocalDateTime(wc.t).String()] = s
			}
		}
	}

	siblings, sink := writeOverrides(ctx, ev, vevent, siblingsByKey, c.ProdID)
	if sink != nil {
		return nil, nil, sink
	}

	if len(ctx.stack) > 0 {
		for _, ptr := range ctx.stack {
			ctx.log.Warnf("ical: invalid property %s", ptr)
		}
		return nil, nil, propertyError(ctx.stack)
	}
	return vevent, siblings, nil
}

// readEventCore runs every read-side layer except overrides, used both for
// the master event and (recursively) for each override's sibling
// component.
func readEventCore(ctx *conversionContext, vevent *ics.VEvent, ev *jevent.Event) *ErrorSink {
	if sink := readScalarShell(ctx, vevent, ev); sink != nil {
		return sink
	}
	if sink := readTemporal(ctx, vevent, ev); sink != nil {
		return sink
	}
	readRecurrenceRule(ctx, vevent, ev)
	readParticipants(ctx, vevent, ev)
	readLocations(ctx, vevent, ev)
	readAlerts(ctx, vevent, ev)
	readLinks(ctx, vevent, ev)
	readRelatedTo(ctx, vevent, ev)
	return nil
}

// writeEventCore runs every write-side layer except overrides.
func writeEventCore(ctx *conversionContext, ev *jevent.Event, vevent *ics.VEvent, prodID string) *ErrorSink {
	writeScalarShell(ctx, ev, vevent, prodID)
	writeTemporal(ctx, ev, vevent)
	if sink := writeRecurrenceRule(ctx, ev, vevent); sink != nil {
		return sink
	}
	writeParticipants(ctx, ev, vevent)
	writeLocations(ctx, ev, vevent)
	writeAlerts(ctx, ev, vevent)
	writeLinks(ctx, ev, vevent)
	writeRelatedTo(ctx, ev, vevent)
	return nil
}

// eventToMap and mapToEvent round-trip an Event through its JSON shape,
// the representation DiffPatch/ApplyPatch operate on.
func eventToMap(ev *jevent.Event) (map[string]interface{}, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func mapToEvent(m map[string]interface{}) (*jevent.Event, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var ev jevent.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
