// Package jevent implements the JEVENT object model: a JSON-based
// representation of a single calendar event, including its recurrence
// overrides, participants, locations, links and alerts.
//
// jevent owns only the document side of the translation; the semantic
// mapping to and from the ICAL line-oriented format lives in
// convert/ical, built on top of it.
package jevent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is a JEVENT document.
type Event struct {
	Type string `json:"@type"` // always "Event"
	UID  string `json:"uid"`

	Title                  *string         `json:"title,omitempty"`
	Description            *string         `json:"description,omitempty"`
	HTMLDescription        *string         `json:"htmlDescription,omitempty"`
	Color                  *string         `json:"color,omitempty"`
	Keywords               map[string]bool `json:"keywords,omitempty"`
	Locale                 *string         `json:"locale,omitempty"`
	Classification         *string         `json:"classification,omitempty"`
	Transparency           *string         `json:"transparency,omitempty"`
	Status                 *string         `json:"status,omitempty"`
	Priority               *int            `json:"priority,omitempty"`
	Sequence               *int            `json:"sequence,omitempty"`
	Created                *time.Time      `json:"created,omitempty"`
	Updated                *time.Time      `json:"updated,omitempty"`
	ProdID                 *string         `json:"prodId,omitempty"`

	// Temporal block.
	Start    *LocalDateTime `json:"start,omitempty"`
	TimeZone *string        `json:"timeZone,omitempty"`
	Duration *string        `json:"duration,omitempty"`
	IsAllDay *bool          `json:"isAllDay,omitempty"`

	// Recurrence block.
	RecurrenceRule      *RecurrenceRule       `json:"recurrenceRule,omitempty"`
	RecurrenceOverrides map[string]Override   `json:"recurrenceOverrides,omitempty"`

	// Participation layer.
	ReplyTo       map[string]string       `json:"replyTo,omitempty"`
	Participants  map[string]*Participant `json:"participants,omitempty"`

	// Auxiliary layer.
	Locations map[string]*Location `json:"locations,omitempty"`
	Links     map[string]*Link     `json:"links,omitempty"`
	Alerts    map[string]*Alert    `json:"alerts,omitempty"`
	RelatedTo map[string]*Relation `json:"relatedTo,omitempty"`
}

// NewEvent creates a new Event with a generated UID (via google/uuid) and the
// given title. This is a convenience constructor for callers that don't
// already have an identifier of their own; the translator itself never
// generates one on the caller's behalf.
func NewEvent(title string) *Event {
	now := time.Now().UTC()
	ldt := LocalDateTime(now)
	return &Event{
		Type:     "Event",
		UID:      uuid.NewString(),
		Title:    &title,
		Start:    &ldt,
		Created:  &now,
		Updated:  &now,
		Sequence: intPtr(0),
		Status:   stringPtr(StatusConfirmed),
	}
}

// JSON marshals the Event.
func (e *Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// PrettyJSON marshals the Event with indentation.
func (e *Event) PrettyJSON() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// Clone returns a deep copy of the Event via a JSON round trip: the
// translator allocates and returns new documents per call, and treats
// inputs as read-only.
func (e *Event) Clone() *Event {
	data, err := json.Marshal(e)
	if err != nil {
		return &Event{}
	}
	var clone Event
	if err := json.Unmarshal(data, &clone); err != nil {
		return &Event{}
	}
	return &clone
}

// AllDay reports whether this is an all-day event.
func (e *Event) AllDay() bool {
	return e.IsAllDay != nil && *e.IsAllDay
}

// DurationValue parses the Duration field into a time.Duration.
func (e *Event) DurationValue() (time.Duration, error) {
	if e.Duration == nil {
		return 0, nil
	}
	return ParseISO8601Duration(*e.Duration)
}

// EndTime returns the local end time, Start + Duration.
func (e *Event) EndTime() (time.Time, error) {
	if e.Start == nil {
		return time.Time{}, fmt.Errorf("jevent: event %s has no start", e.UID)
	}
	d, err := e.DurationValue()
	if err != nil {
		return time.Time{}, err
	}
	return e.Start.Time().Add(d), nil
}

// IsRecurring reports whether the event carries a recurrence rule.
func (e *Event) IsRecurring() bool {
	return e.RecurrenceRule != nil
}

// Touch bumps Updated to now and increments Sequence, mirroring how a
// calendar server stamps a modified master event before re-serializing it.
func (e *Event) Touch() {
	now := time.Now().UTC()
	e.Updated = &now
	if e.Sequence != nil {
		*e.Sequence++
	} else {
		e.Sequence = intPtr(1)
	}
}

func stringPtr(s string) *string { return &s }
func intPtr(i int) *int          { return &i }
func boolPtr(b bool) *bool       { return &b }
