package ical

import (
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/mailcore/jevent"
)

// TestWeeklyRuleWithException exercises a recurring event carrying one
// sibling VEVENT exception: a single occurrence moved and retitled.
func TestWeeklyRuleWithException(t *testing.T) {
	icalData := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//Test//EN
BEGIN:VEVENT
UID:weekly-with-exception@example.com
SUMMARY:Weekly Sync
DTSTART:20250303T090000Z
DURATION:PT30M
RRULE:FREQ=WEEKLY;BYDAY=MO
END:VEVENT
BEGIN:VEVENT
UID:weekly-with-exception@example.com
RECURRENCE-ID:20250310T090000Z
SUMMARY:Weekly Sync (moved)
DTSTART:20250310T110000Z
DURATION:PT30M
END:VEVENT
END:VCALENDAR`

	converter := New()
	events, err := converter.ParseAll([]byte(icalData))
	if err != nil {
		t.Fatalf("parsing weekly event with exception: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event (master absorbs its exception), got %d", len(events))
	}

	event := events[0]
	if !event.IsRecurring() {
		t.Fatal("expected the master to carry a recurrence rule")
	}
	if len(event.RecurrenceOverrides) != 1 {
		t.Fatalf("expected 1 override, got %d", len(event.RecurrenceOverrides))
	}

	key := jevent.NewLocalDateTime(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)).String()
	override, ok := event.RecurrenceOverrides[key]
	if !ok {
		t.Fatalf("expected an override keyed at %s, got keys %v", key, keysOf(event.RecurrenceOverrides))
	}
	if override.Excluded() {
		t.Fatal("moved occurrence should not be marked excluded")
	}
	if title, ok := override["title"].(string); !ok || title != "Weekly Sync (moved)" {
		t.Errorf("expected override title 'Weekly Sync (moved)', got %v", override["title"])
	}
	if _, ok := override["start"]; !ok {
		t.Error("expected override to carry the moved start time")
	}
	if _, ok := override["recurrenceRule"]; ok {
		t.Errorf("forbidden key recurrenceRule leaked into override: %v", override)
	}
	if len(override) != 2 {
		t.Errorf("expected a minimal 2-key override (title, start), got %v", override)
	}

	// Round trip: the sibling VEVENT must reappear on write.
	master, siblings, sink := converter.ToComponent(event, nil, nil)
	if sink != nil {
		t.Fatalf("ToComponent failed: %v", sink)
	}
	if master == nil {
		t.Fatal("expected a master VEVENT")
	}
	if len(siblings) != 1 {
		t.Fatalf("expected 1 sibling exception VEVENT, got %d", len(siblings))
	}
}

// TestRecurrenceUntilZoneConversion checks that RRULE's UNTIL, always
// UTC on the wire, is converted to the start zone's local wall clock on
// read and converted back to UTC on write.
func TestRecurrenceUntilZoneConversion(t *testing.T) {
	icalData := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//Test//EN
BEGIN:VEVENT
UID:until-zone-test@example.com
SUMMARY:Daily Standup
DTSTART;TZID=America/New_York:20250106T090000
DURATION:PT15M
RRULE:FREQ=DAILY;UNTIL=20250120T140000Z
END:VEVENT
END:VCALENDAR`

	converter := New()
	event, err := converter.Parse([]byte(icalData))
	if err != nil {
		t.Fatalf("parsing recurrence with UNTIL: %v", err)
	}
	if event.RecurrenceRule == nil || event.RecurrenceRule.Until == nil {
		t.Fatal("expected a recurrence rule with until set")
	}

	wantLocal := jevent.NewLocalDateTime(time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)).String()
	if got := event.RecurrenceRule.Until.String(); got != wantLocal {
		t.Errorf("expected until converted to start-zone wall clock %s (09:00 EST), got %s", wantLocal, got)
	}

	cal, err := converter.Format(event)
	if err != nil {
		t.Fatalf("formatting event with until: %v", err)
	}
	reparsed, err := converter.Parse(cal)
	if err != nil {
		t.Fatalf("reparsing event with until: %v", err)
	}
	if reparsed.RecurrenceRule == nil || reparsed.RecurrenceRule.Until == nil {
		t.Fatal("expected until to survive round trip")
	}
	if got := reparsed.RecurrenceRule.Until.String(); got != wantLocal {
		t.Errorf("until changed across round trip: expected %s, got %s", wantLocal, got)
	}
}

// TestWriteCrossZoneDTEnd checks that a DTEND in a different zone than
// DTSTART is computed by converting the start+duration instant into the
// end zone, not by relabeling the start zone's wall-clock fields.
func TestWriteCrossZoneDTEnd(t *testing.T) {
	startTZ := "America/New_York"
	endTZ := "Europe/Berlin"

	event := &jevent.Event{
		Type:     "Event",
		UID:      "cross-zone-dtend@example.com",
		Title:    strPtr("Cross Zone Meeting"),
		Start:    jevent.NewLocalDateTime(time.Date(2020, 6, 1, 9, 0, 0, 0, time.UTC)),
		TimeZone: strPtr(startTZ),
		Duration: strPtr("PT1H"),
		Locations: map[string]*jevent.Location{
			"end-zone": {
				Rel:      strPtr(jevent.LocationRelEnd),
				TimeZone: strPtr(endTZ),
			},
		},
	}

	converter := New()
	master, _, sink := converter.ToComponent(event, nil, nil)
	if sink != nil {
		t.Fatalf("ToComponent failed: %v", sink)
	}

	dtend := master.GetProperty(ics.ComponentPropertyDtEnd)
	if dtend == nil {
		t.Fatal("expected a DTEND property")
	}
	if dtend.Value != "20200601T160000" {
		t.Errorf("expected DTEND wall clock 20200601T160000 (NY 09:00 + 1h converted to Berlin), got %s", dtend.Value)
	}

	// Round trip: reparsing must not yield a negative span.
	cal, err := converter.Format(event)
	if err != nil {
		t.Fatalf("formatting cross-zone event: %v", err)
	}
	reparsed, err := converter.Parse(cal)
	if err != nil {
		t.Fatalf("reparsing cross-zone event: %v", err)
	}
	d, err := reparsed.DurationValue()
	if err != nil {
		t.Fatalf("computing reparsed duration: %v", err)
	}
	if d != time.Hour {
		t.Errorf("expected round-tripped duration of 1h, got %v", d)
	}
}

// TestForbiddenOverrideKeysAreStripped checks that the forbidden uid and
// relatedTo keys never leak into a written override patch.
func TestForbiddenOverrideKeysAreStripped(t *testing.T) {
	start := time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)
	occurrence := jevent.NewLocalDateTime(time.Date(2025, 4, 14, 9, 0, 0, 0, time.UTC))

	event := &jevent.Event{
		Type:  "Event",
		UID:   "forbidden-key-test@example.com",
		Title: strPtr("Standup"),
		Start: jevent.NewLocalDateTime(start),
		RecurrenceRule: &jevent.RecurrenceRule{
			Frequency: jevent.FreqWeekly,
		},
		RecurrenceOverrides: map[string]jevent.Override{
			occurrence.String(): {
				"uid":       "should-not-appear",
				"relatedTo": map[string]interface{}{"x": true},
				"title":     "Standup (renamed)",
			},
		},
	}

	converter := New()
	master, siblings, sink := converter.ToComponent(event, nil, nil)
	if sink != nil {
		t.Fatalf("ToComponent failed: %v", sink)
	}
	if len(siblings) != 1 {
		t.Fatalf("expected 1 sibling, got %d", len(siblings))
	}

	sibling := siblings[0]
	if sibling.Id() != master.Id() {
		t.Errorf("sibling UID %q should match master UID %q", sibling.Id(), master.Id())
	}
	if findProperty(sibling, relatedToToken) != nil {
		t.Error("forbidden key relatedTo leaked into the sibling VEVENT")
	}
	if summary := sibling.GetProperty("SUMMARY"); summary == nil || summary.Value != "Standup (renamed)" {
		t.Errorf("expected renamed summary to survive, got %v", summary)
	}
}

// TestDelegationChain resolves a multi-hop ATTENDEE delegation into a single
// effective RSVP response.
func TestDelegationChain(t *testing.T) {
	icalData := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//Test//EN
BEGIN:VEVENT
UID:delegation-test@example.com
SUMMARY:Budget Review
DTSTART:20250301T140000Z
DTEND:20250301T150000Z
ORGANIZER:mailto:boss@example.com
ATTENDEE;PARTSTAT=DELEGATED;DELEGATED-TO="mailto:deputy@example.com":mailto:manager@example.com
ATTENDEE;PARTSTAT=DELEGATED;DELEGATED-TO="mailto:specialist@example.com";DELEGATED-FROM="mailto:manager@example.com":mailto:deputy@example.com
ATTENDEE;PARTSTAT=ACCEPTED;DELEGATED-FROM="mailto:deputy@example.com":mailto:specialist@example.com
END:VEVENT
END:VCALENDAR`

	converter := New()
	event, err := converter.Parse([]byte(icalData))
	if err != nil {
		t.Fatalf("parsing delegation chain: %v", err)
	}

	manager := event.Participants["manager@example.com"]
	if manager == nil {
		t.Fatal("expected manager@example.com in participants")
	}
	if manager.RSVPResponse == nil || *manager.RSVPResponse != jevent.RSVPAccepted {
		t.Errorf("expected manager's delegated chain to resolve to accepted, got %v", manager.RSVPResponse)
	}
	if !manager.DelegatedTo["deputy@example.com"] {
		t.Errorf("expected manager to record delegatedTo deputy, got %v", manager.DelegatedTo)
	}

	specialist := event.Participants["specialist@example.com"]
	if specialist == nil {
		t.Fatal("expected specialist@example.com in participants")
	}
	if specialist.RSVPResponse == nil || *specialist.RSVPResponse != jevent.RSVPAccepted {
		t.Errorf("expected specialist's own response accepted, got %v", specialist.RSVPResponse)
	}
}

// TestSnoozedEmailAlert round-trips an EMAIL alert carrying a snoozed
// reminder, pairing the sibling VALARM via RELATED-TO;RELTYPE=SNOOZE.
func TestSnoozedEmailAlert(t *testing.T) {
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	snoozeUntil := time.Date(2025, 5, 1, 8, 55, 0, 0, time.UTC)

	event := &jevent.Event{
		Type:  "Event",
		UID:   "snooze-test@example.com",
		Title: strPtr("Dentist"),
		Start: jevent.NewLocalDateTime(start),
		Alerts: map[string]*jevent.Alert{
			"reminder": {
				RelativeTo: jevent.AlertBeforeStart,
				Offset:     "PT15M",
				Snoozed:    &snoozeUntil,
				Action: jevent.EmailAction{
					Subject:  "Reminder: Dentist",
					TextBody: "Don't forget your appointment.",
					To:       []jevent.EmailAddress{{Email: "patient@example.com"}},
				},
			},
		},
	}

	converter := New()
	master, _, sink := converter.ToComponent(event, nil, nil)
	if sink != nil {
		t.Fatalf("ToComponent failed: %v", sink)
	}

	alarms := master.Alarms()
	if len(alarms) != 2 {
		t.Fatalf("expected 2 VALARMs (alert + snooze sibling), got %d", len(alarms))
	}

	cal, err := converter.Format(event)
	if err != nil {
		t.Fatalf("formatting snoozed alert: %v", err)
	}
	reparsed, err := converter.Parse(cal)
	if err != nil {
		t.Fatalf("reparsing snoozed alert: %v", err)
	}

	alert, ok := reparsed.Alerts["reminder"]
	if !ok {
		t.Fatalf("expected alert 'reminder' to survive round trip, got keys %v", keysOf(reparsed.Alerts))
	}
	if alert.Snoozed == nil {
		t.Fatal("expected snoozed timestamp to survive round trip")
	}
	if !alert.Snoozed.Equal(snoozeUntil) {
		t.Errorf("snoozed timestamp changed: expected %v, got %v", snoozeUntil, *alert.Snoozed)
	}
	email, ok := alert.Action.(jevent.EmailAction)
	if !ok {
		t.Fatalf("expected EMAIL action, got %T", alert.Action)
	}
	if email.Subject != "Reminder: Dentist" {
		t.Errorf("expected subject to survive, got %q", email.Subject)
	}
}

func keysOf[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
