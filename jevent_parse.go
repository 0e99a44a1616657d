package jevent

import (
	"encoding/json"
	"fmt"
)

// ParseEvent parses a single JEVENT document.
func ParseEvent(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("jevent: failed to parse document: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("jevent: parsed document is invalid: %w", err)
	}
	return &event, nil
}

// ParseAllEvents parses a JSON array of JEVENT documents.
func ParseAllEvents(data []byte) ([]*Event, error) {
	var events []*Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("jevent: failed to parse document array: %w", err)
	}
	for i, event := range events {
		if err := event.Validate(); err != nil {
			return nil, fmt.Errorf("jevent: document at index %d is invalid: %w", i, err)
		}
	}
	return events, nil
}
