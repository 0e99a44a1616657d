package ical

import (
	"testing"
	"time"

	"github.com/mailcore/jevent"
)

func TestBasicConversion(t *testing.T) {
	converter := New()

	icalData := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//Test//EN
BEGIN:VEVENT
UID:test-event@example.com
SUMMARY:Test Event
DTSTART:20250301T140000Z
DTEND:20250301T150000Z
DESCRIPTION:Test description
END:VEVENT
END:VCALENDAR`

	events, err := converter.ParseAll([]byte(icalData))
	if err != nil {
		t.Fatalf("Failed to parse iCalendar: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}

	event := events[0]

	if event.UID != "test-event@example.com" {
		t.Errorf("Expected UID 'test-event@example.com', got '%s'", event.UID)
	}

	if event.Title == nil || *event.Title != "Test Event" {
		t.Errorf("Expected title 'Test Event', got %v", event.Title)
	}

	if event.Description == nil || *event.Description != "Test description" {
		t.Errorf("Expected description 'Test description', got %v", event.Description)
	}
}

func TestRoundTrip(t *testing.T) {
	converter := New()

	startTime := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	desc := "Testing round trip conversion"
	event := &jevent.Event{
		Type:        "Event",
		UID:         "roundtrip@example.com",
		Title:       strPtr("Round Trip Test"),
		Description: &desc,
		Start:       jevent.NewLocalDateTime(startTime),
		Duration:    strPtr("PT1H"),
	}

	icalData, err := converter.Format(event)
	if err != nil {
		t.Fatalf("Failed to format event: %v", err)
	}

	parsedEvent, err := converter.Parse(icalData)
	if err != nil {
		t.Fatalf("Failed to parse formatted iCalendar: %v", err)
	}

	if parsedEvent.UID != event.UID {
		t.Errorf("UID changed: %s -> %s", event.UID, parsedEvent.UID)
	}

	if parsedEvent.Title == nil || *parsedEvent.Title != *event.Title {
		t.Errorf("Title changed")
	}

	if parsedEvent.Description == nil || *parsedEvent.Description != *event.Description {
		t.Errorf("Description changed")
	}
}
