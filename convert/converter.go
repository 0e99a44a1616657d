// Package convert defines the generic calendar-format converter interface
// that concrete translators (e.g. convert/ical) implement.
package convert

import "github.com/mailcore/jevent"

// Converter defines the interface for calendar format converters.
type Converter interface {
	// Single event (common case - simple names)
	Parse(data []byte) (*jevent.Event, error)
	Format(event *jevent.Event) ([]byte, error)

	// Multiple events (explicit with "All")
	ParseAll(data []byte) ([]*jevent.Event, error)
	FormatAll(events []*jevent.Event) ([]byte, error)

	// Detection
	Detect(data []byte) bool
}
