package jevent

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation constants.
const (
	MaxTitleLength       = 1024
	MaxDescriptionLength = 32768
	MaxUIDLength         = 255
)

var (
	durationPattern = regexp.MustCompile(`^-?P(?:\d+(?:\.\d+)?Y)?(?:\d+(?:\.\d+)?M)?(?:\d+(?:\.\d+)?W)?(?:\d+(?:\.\d+)?D)?(?:T(?:\d+(?:\.\d+)?H)?(?:\d+(?:\.\d+)?M)?(?:\d+(?:\.\d+)?S)?)?$`)
	colorPattern    = regexp.MustCompile(`^(?:#[0-9a-fA-F]{3,8}|rgb\(|rgba\(|hsl\(|hsla\(|[a-zA-Z]+)`)
	timezonePattern = regexp.MustCompile(`^[A-Za-z0-9/_+-]+$`)
)

// ValidationError is a single document-level validation failure. This is the
// jevent-package-local validation mechanism (independent of the
// convert/ical package's invalid-property JSON-Pointer map, which records
// failures from a specific ICAL conversion rather than from a standalone
// document).
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	fieldName := e.Field
	if e.Field == "uid" {
		fieldName = "UID"
	}
	if e.Message == "is required" {
		return fmt.Sprintf("%s %s", fieldName, e.Message)
	}
	if strings.HasPrefix(e.Message, "invalid") {
		return e.Message
	}
	return fmt.Sprintf("%s %s", fieldName, e.Message)
}

// ValidationErrors aggregates multiple ValidationError values.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return "no validation errors"
	case 1:
		return e[0].Error()
	}
	messages := make([]string, len(e))
	for i, err := range e {
		messages[i] = err.Error()
	}
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(messages, "; "))
}

// Validate checks an Event against its structural constraints. It is
// independent of any ICAL conversion; convert/ical has its own
// invalid-property reporting for conversion-specific constraints (all-day
// coupling, recurrence exclusivity, etc.).
func (e *Event) Validate() error {
	if e == nil {
		return ValidationError{Field: "event", Message: "event is nil"}
	}

	var errs ValidationErrors

	if e.Type != "Event" {
		errs = append(errs, ValidationError{Field: "@type", Value: e.Type, Message: "must be 'Event'"})
	}
	if e.UID == "" {
		errs = append(errs, ValidationError{Field: "uid", Message: "is required"})
	} else if len(e.UID) > MaxUIDLength {
		errs = append(errs, ValidationError{Field: "uid", Value: e.UID, Message: fmt.Sprintf("exceeds maximum length of %d characters", MaxUIDLength)})
	}
	if e.Start == nil {
		errs = append(errs, ValidationError{Field: "start", Message: "is required"})
	}
	if e.Title != nil && len(*e.Title) > MaxTitleLength {
		errs = append(errs, ValidationError{Field: "title", Value: *e.Title, Message: fmt.Sprintf("exceeds maximum length of %d characters", MaxTitleLength)})
	}
	if e.Description != nil && len(*e.Description) > MaxDescriptionLength {
		errs = append(errs, ValidationError{Field: "description", Value: *e.Description, Message: fmt.Sprintf("exceeds maximum length of %d characters", MaxDescriptionLength)})
	}
	if e.Duration != nil && !durationPattern.MatchString(*e.Duration) {
		errs = append(errs, ValidationError{Field: "duration", Value: *e.Duration, Message: "invalid ISO 8601 duration format"})
	}
	if e.TimeZone != nil && !timezonePattern.MatchString(*e.TimeZone) {
		errs = append(errs, ValidationError{Field: "timeZone", Value: *e.TimeZone, Message: "invalid IANA timezone identifier"})
	}
	if e.Color != nil && !colorPattern.MatchString(*e.Color) {
		errs = append(errs, ValidationError{Field: "color", Value: *e.Color, Message: "invalid CSS color value"})
	}
	if e.Status != nil && !oneOf(*e.Status, StatusConfirmed, StatusTentative, StatusCancelled) {
		errs = append(errs, ValidationError{Field: "status", Value: *e.Status, Message: "invalid status"})
	}
	if e.Transparency != nil && !oneOf(*e.Transparency, TransparencyFree, TransparencyBusy) {
		errs = append(errs, ValidationError{Field: "transparency", Value: *e.Transparency, Message: "invalid transparency"})
	}
	if e.Classification != nil && !oneOf(*e.Classification, ClassificationPublic, ClassificationPrivate, ClassificationSecret) {
		errs = append(errs, ValidationError{Field: "classification", Value: *e.Classification, Message: "invalid classification"})
	}
	if e.Priority != nil && (*e.Priority < 0 || *e.Priority > 9) {
		errs = append(errs, ValidationError{Field: "priority", Value: *e.Priority, Message: "must be between 0 and 9"})
	}
	if e.Sequence != nil && *e.Sequence < 0 {
		errs = append(errs, ValidationError{Field: "sequence", Value: *e.Sequence, Message: "must be non-negative"})
	}
	if e.IsAllDay != nil && *e.IsAllDay {
		if e.TimeZone != nil {
			errs = append(errs, ValidationError{Field: "timeZone", Message: "must be unset when isAllDay is true"})
		}
		for id, loc := range e.Locations {
			if loc.Rel != nil && *loc.Rel == LocationRelEnd {
				errs = append(errs, ValidationError{Field: "locations/" + id, Message: "end-zone pseudo-location cannot coexist with isAllDay"})
			}
		}
	}
	if e.RecurrenceRule != nil {
		if err := e.RecurrenceRule.validate(); err != nil {
			errs = append(errs, err...)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *RecurrenceRule) validate() ValidationErrors {
	var errs ValidationErrors
	if !oneOf(r.Frequency, FreqSecondly, FreqMinutely, FreqHourly, FreqDaily, FreqWeekly, FreqMonthly, FreqYearly) {
		errs = append(errs, ValidationError{Field: "recurrenceRule/frequency", Value: r.Frequency, Message: "invalid frequency"})
	}
	if r.Interval != nil && *r.Interval < 1 {
		errs = append(errs, ValidationError{Field: "recurrenceRule/interval", Value: *r.Interval, Message: "must be at least 1"})
	}
	if r.Count != nil && r.Until != nil {
		errs = append(errs, ValidationError{Field: "recurrenceRule/count", Message: "count and until are mutually exclusive"})
		errs = append(errs, ValidationError{Field: "recurrenceRule/until", Message: "count and until are mutually exclusive"})
	}
	if r.Skip != nil && r.RScale == nil {
		errs = append(errs, ValidationError{Field: "recurrenceRule/skip", Message: "requires rscale"})
	}
	for _, nday := range r.ByDay {
		if !isWeekdayTag(nday.Day) {
			errs = append(errs, ValidationError{Field: "recurrenceRule/byDay", Value: nday.Day, Message: "invalid weekday tag"})
		}
	}
	errs = append(errs, rangeErrs("recurrenceRule/byDate", r.ByDate, -31, 31, true)...)
	errs = append(errs, rangeErrs("recurrenceRule/byYearDay", r.ByYearDay, -366, 366, true)...)
	errs = append(errs, rangeErrs("recurrenceRule/byWeekNo", r.ByWeekNo, -53, 53, true)...)
	errs = append(errs, rangeErrs("recurrenceRule/byHour", r.ByHour, 0, 23, false)...)
	errs = append(errs, rangeErrs("recurrenceRule/byMinute", r.ByMinute, 0, 59, false)...)
	errs = append(errs, rangeErrs("recurrenceRule/bySecond", r.BySecond, 0, 59, false)...)
	return errs
}

func rangeErrs(field string, values []int, lo, hi int, forbidZero bool) ValidationErrors {
	var errs ValidationErrors
	for _, v := range values {
		if v < lo || v > hi || (forbidZero && v == 0) {
			errs = append(errs, ValidationError{Field: field, Value: v, Message: fmt.Sprintf("out of range [%d, %d]", lo, hi)})
		}
	}
	return errs
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
