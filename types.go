package jevent

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Participant is an event participant.
type Participant struct {
	Name       *string `json:"name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Kind       *string `json:"kind,omitempty"`
	Roles      map[string]bool `json:"roles,omitempty"`
	Participation *string `json:"participation,omitempty"`

	RSVPResponse *string `json:"rsvpResponse,omitempty"`
	RSVPWanted   *bool   `json:"rsvpWanted,omitempty"`

	DelegatedTo   map[string]bool `json:"delegatedTo,omitempty"`
	DelegatedFrom map[string]bool `json:"delegatedFrom,omitempty"`
	MemberOf      map[string]bool `json:"memberOf,omitempty"`
	LinkIds       map[string]bool `json:"linkIds,omitempty"`

	ScheduleSequence *int       `json:"scheduleSequence,omitempty"`
	ScheduleUpdated  *time.Time `json:"scheduleUpdated,omitempty"`

	LocationId *string `json:"locationId,omitempty"`
}

// NewParticipant creates a participant with the default "attendee" role when
// no roles are given.
func NewParticipant(email string) *Participant {
	return &Participant{
		Email: &email,
		Roles: map[string]bool{RoleAttendee: true},
	}
}

// HasRole reports whether the participant carries the given role tag,
// case-insensitively.
func (p *Participant) HasRole(role string) bool {
	if p.Roles == nil {
		return false
	}
	for r := range p.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// Location is a physical, virtual, or pseudo location.
type Location struct {
	Name        *string         `json:"name,omitempty"`
	Uri         *string         `json:"uri,omitempty"`
	Rel         *string         `json:"rel,omitempty"`
	Features    map[string]bool `json:"features,omitempty"`
	Description *string         `json:"description,omitempty"`
	TimeZone    *string         `json:"timeZone,omitempty"`
	Coordinates *string         `json:"coordinates,omitempty"`
	LinkIds     map[string]bool `json:"linkIds,omitempty"`
}

// IsEndZonePseudoLocation reports whether this location exists solely to
// carry the event's end timezone.
func (l *Location) IsEndZonePseudoLocation() bool {
	return l.Rel != nil && *l.Rel == LocationRelEnd && l.TimeZone != nil
}

// Link is a URI with metadata.
type Link struct {
	Href        string  `json:"href"`
	ContentType *string `json:"contentType,omitempty"`
	Title       *string `json:"title,omitempty"`
	Size        *int    `json:"size,omitempty"`
	Rel         *string `json:"rel,omitempty"`
	Cid         *string `json:"cid,omitempty"`

	// Properties is an opaque object, wire-encoded as base64 JSON.
	Properties map[string]interface{} `json:"-"`
}

// MarshalJSON implements the base64-encoded "properties" wire form.
func (l Link) MarshalJSON() ([]byte, error) {
	type alias Link
	aux := struct {
		alias
		Properties *string `json:"properties,omitempty"`
	}{alias: alias(l)}

	if len(l.Properties) > 0 {
		raw, err := json.Marshal(l.Properties)
		if err != nil {
			return nil, fmt.Errorf("jevent: encoding link properties: %w", err)
		}
		enc := base64.URLEncoding.EncodeToString(raw)
		aux.Properties = &enc
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements the base64-encoded "properties" wire form.
func (l *Link) UnmarshalJSON(data []byte) error {
	type alias Link
	aux := struct {
		*alias
		Properties *string `json:"properties,omitempty"`
	}{alias: (*alias)(l)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Properties != nil && *aux.Properties != "" {
		raw, err := base64.URLEncoding.DecodeString(*aux.Properties)
		if err != nil {
			return fmt.Errorf("jevent: decoding link properties: %w", err)
		}
		var props map[string]interface{}
		if err := json.Unmarshal(raw, &props); err != nil {
			return fmt.Errorf("jevent: decoding link properties JSON: %w", err)
		}
		l.Properties = props
	}
	return nil
}

// Relation models a relatedTo entry.
type Relation struct {
	Relation map[string]bool `json:"relation,omitempty"`
}

// RecurrenceRule is the optional recurrence rule.
type RecurrenceRule struct {
	Frequency      string  `json:"frequency"`
	Interval       *int    `json:"interval,omitempty"`
	RScale         *string `json:"rscale,omitempty"`
	Skip           *string `json:"skip,omitempty"`
	FirstDayOfWeek *string `json:"firstDayOfWeek,omitempty"`

	ByDay           []NDay  `json:"byDay,omitempty"`
	ByMonth         []string `json:"byMonth,omitempty"`
	ByDate          []int   `json:"byDate,omitempty"`
	ByYearDay       []int   `json:"byYearDay,omitempty"`
	ByWeekNo        []int   `json:"byWeekNo,omitempty"`
	ByHour          []int   `json:"byHour,omitempty"`
	ByMinute        []int   `json:"byMinute,omitempty"`
	BySecond        []int   `json:"bySecond,omitempty"`
	BySetPosition   []int   `json:"bySetPosition,omitempty"`

	Count *int           `json:"count,omitempty"`
	Until *LocalDateTime `json:"until,omitempty"`
}

// NDay is a weekday tag with an optional signed nth-of-period.
type NDay struct {
	Day         string `json:"day"`
	NthOfPeriod *int   `json:"nthOfPeriod,omitempty"`
}

// Alert is a notification/reminder.
type Alert struct {
	RelativeTo string      `json:"relativeTo"`
	Offset     string      `json:"offset"`
	Action     AlertAction `json:"action"`

	Acknowledged *time.Time `json:"acknowledged,omitempty"`
	Snoozed      *time.Time `json:"snoozed,omitempty"`
}

// AlertAction is the sum type for Alert.Action.
// Exactly one of DisplayAction or EmailAction implements it per alert.
type AlertAction interface {
	alertActionKind() string
}

// DisplayAction is the "display" alert action variant.
type DisplayAction struct {
	MediaLinks map[string]*Link `json:"mediaLinks,omitempty"`
}

func (DisplayAction) alertActionKind() string { return ActionDisplay }

// EmailAddress is a {name, email} pair used by EmailAction.To.
type EmailAddress struct {
	Name  *string `json:"name,omitempty"`
	Email string  `json:"email"`
}

// EmailAction is the "email" alert action variant.
type EmailAction struct {
	To          []EmailAddress   `json:"to"`
	Subject     string           `json:"subject"`
	TextBody    string           `json:"textBody"`
	HTMLBody    *string          `json:"htmlBody,omitempty"`
	Attachments map[string]*Link `json:"attachments,omitempty"`
}

func (EmailAction) alertActionKind() string { return ActionEmail }

// MarshalJSON discriminates on the "@type" field.
func (a Alert) MarshalJSON() ([]byte, error) {
	type alias Alert
	var actionJSON json.RawMessage
	if a.Action != nil {
		raw, err := marshalAlertAction(a.Action)
		if err != nil {
			return nil, err
		}
		actionJSON = raw
	}
	aux := struct {
		alias
		Action json.RawMessage `json:"action,omitempty"`
	}{alias: alias(a), Action: actionJSON}
	return json.Marshal(aux)
}

func marshalAlertAction(action AlertAction) (json.RawMessage, error) {
	var payload interface{}
	var kind string
	switch v := action.(type) {
	case DisplayAction:
		kind = ActionDisplay
		payload = struct {
			Type string `json:"@type"`
			DisplayAction
		}{Type: ActionDisplay, DisplayAction: v}
	case EmailAction:
		kind = ActionEmail
		payload = struct {
			Type string `json:"@type"`
			EmailAction
		}{Type: ActionEmail, EmailAction: v}
	default:
		return nil, fmt.Errorf("jevent: unknown alert action kind for %T", action)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jevent: encoding %s alert action: %w", kind, err)
	}
	return raw, nil
}

// UnmarshalJSON discriminates on the "@type" field.
func (a *Alert) UnmarshalJSON(data []byte) error {
	type alias Alert
	aux := struct {
		*alias
		Action json.RawMessage `json:"action,omitempty"`
	}{alias: (*alias)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Action) == 0 {
		return nil
	}

	var disc struct {
		Type string `json:"@type"`
	}
	if err := json.Unmarshal(aux.Action, &disc); err != nil {
		return fmt.Errorf("jevent: decoding alert action discriminant: %w", err)
	}
	switch disc.Type {
	case ActionEmail:
		var email EmailAction
		if err := json.Unmarshal(aux.Action, &email); err != nil {
			return fmt.Errorf("jevent: decoding email alert action: %w", err)
		}
		a.Action = email
	default:
		var display DisplayAction
		if err := json.Unmarshal(aux.Action, &display); err != nil {
			return fmt.Errorf("jevent: decoding display alert action: %w", err)
		}
		a.Action = display
	}
	return nil
}

// Override is one entry of Event.RecurrenceOverrides: either
// {"excluded": true}, an empty patch (extra occurrence identical to
// master), or a JSON merge patch against the master event.
type Override map[string]interface{}

// Excluded reports whether this override marks the occurrence skipped.
func (o Override) Excluded() bool {
	v, ok := o["excluded"]
	return ok && v == true
}

// forbiddenOverrideKeys are silently dropped from any override patch.
var forbiddenOverrideKeys = map[string]bool{
	"uid":                 true,
	"relatedTo":           true,
	"prodId":              true,
	"isAllDay":            true,
	"recurrenceRule":      true,
	"recurrenceOverrides": true,
	"replyTo":             true,
	"participantId":       true,
}

// StripForbiddenKeys returns a copy of the override with forbidden keys
// removed.
func (o Override) StripForbiddenKeys() Override {
	out := Override{}
	for k, v := range o {
		if forbiddenOverrideKeys[k] {
			continue
		}
		out[k] = v
	}
	return out
}
