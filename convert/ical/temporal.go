package ical

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/mailcore/jevent"
	"github.com/mailcore/jevent/internal/xparam"
)

const (
	icalDateLayout      = "20060102"
	icalDateTimeLayout  = "20060102T150405"
	endZoneLocationID    = "end-zone"
)

// wallClock is a parsed DTSTART/DTEND/RECURRENCE-ID/UNTIL value split into
// its floating wall-clock reading and zone metadata, before any UTC
// anchoring.
type wallClock struct {
	t        time.Time // wall-clock fields only; Location is always UTC internally, used as a plain calendar value
	allDay   bool
	tzid     string // "" = floating, "Etc/UTC" = UTC-suffixed value
}

func parseWallClock(value string, params map[string][]string) (wallClock, bool) {
	var wc wallClock
	if params != nil {
		if v, ok := params["VALUE"]; ok && len(v) > 0 && strings.EqualFold(v[0], "DATE") {
			wc.allDay = true
		}
		if tzid, ok := params[xparam.ParamTZID]; ok && len(tzid) > 0 {
			wc.tzid = tzid[0]
		}
	}
	if strings.HasSuffix(value, "Z") {
		value = value[:len(value)-1]
		wc.tzid = "Etc/UTC"
	}

	layouts := []string{icalDateTimeLayout, icalDateLayout}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			wc.t = t
			if layout == icalDateLayout {
				wc.allDay = true
			}
			return wc, true
		}
	}
	return wc, false
}

func parseICalTimestamp(value string) (time.Time, bool) {
	v := strings.TrimSuffix(value, "Z")
	t, err := time.ParseInLocation(icalDateTimeLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// zoneName resolves a wallClock's effective IANA identifier, "" meaning
// floating.
func (wc wallClock) zoneName() string {
	if wc.tzid == "Etc/UTC" {
		return "Etc/UTC"
	}
	return wc.tzid
}

// anchor converts the wall-clock reading to an absolute instant, using loc
// as the zone the wall-clock fields are read in. A floating value is
// anchored in UTC for the sole purpose of computing a duration; the
// floating-ness itself is preserved separately.
func (wc wallClock) anchor(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(wc.t.Year(), wc.t.Month(), wc.t.Day(), wc.t.Hour(), wc.t.Minute(), wc.t.Second(), wc.t.Nanosecond(), loc)
}

// readTemporal fills start/timeZone/duration/isAllDay and, if DTEND carries
// a different zone than DTSTART, the end-zone pseudo-location.
func readTemporal(ctx *conversionContext, vevent *ics.VEvent, ev *jevent.Event) *ErrorSink {
	dtstartProp := vevent.GetProperty(ics.ComponentPropertyDtStart)
	if dtstartProp == nil {
		return nil
	}
	start, ok := parseWallClock(dtstartProp.Value, dtstartProp.ICalParameters)
	if !ok {
		ctx.invalidAt("start")
		return nil
	}

	ldt := jevent.NewLocalDateTime(start.t)
	ev.Start = ldt
	allDay := start.allDay
	ev.IsAllDay = &allDay

	startZoneName := start.zoneName()
	if !allDay && startZoneName != "" && startZoneName != "Etc/UTC" {
		ev.TimeZone = strPtr(startZoneName)
	} else if !allDay && startZoneName == "Etc/UTC" {
		ev.TimeZone = strPtr("Etc/UTC")
	}

	startLoc, _ := ctx.tz.Zone(startZoneName)
	startInstant := start.anchor(startLoc)

	var durationValue time.Duration
	haveDuration := false

	if dtendProp := vevent.GetProperty(ics.ComponentPropertyDtEnd); dtendProp != nil {
		end, ok := parseWallClock(dtendProp.Value, dtendProp.ICalParameters)
		if ok {
			endZoneName := end.zoneName()
			endLoc, _ := ctx.tz.Zone(endZoneName)
			endInstant := end.anchor(endLoc)
			durationValue = endInstant.Sub(startInstant)
			haveDuration = true

			if endZoneName != startZoneName && endZoneName != "" {
				if ev.Locations == nil {
					ev.Locations = map[string]*jevent.Location{}
				}
				ev.Locations[endZoneLocationID] = &jevent.Location{
					Rel:      strPtr(jevent.LocationRelEnd),
					TimeZone: strPtr(endZoneName),
				}
			}
		}
	} else if durProp := vevent.GetProperty(ics.ComponentPropertyDuration); durProp != nil {
		if d, err := jevent.ParseISO8601Duration(durProp.Value); err == nil {
			durationValue = d
			haveDuration = true
		}
	}

	if haveDuration {
		ev.Duration = strPtr(jevent.FormatISO8601Duration(durationValue))
	} else {
		ev.Duration = strPtr(jevent.CanonicalZeroDuration)
	}

	return nil
}

// writeTemporal is the inverse of readTemporal.
func writeTemporal(ctx *conversionContext, ev *jevent.Event, vevent *ics.VEvent) {
	removeProperty(vevent, string(ics.ComponentPropertyDtStart))
	removeProperty(vevent, string(ics.ComponentPropertyDtEnd))
	removeProperty(vevent, string(ics.ComponentPropertyDuration))

	if ev.Start == nil {
		ctx.invalidAt("start")
		return
	}

	allDay := ev.AllDay()

	var startZoneName, endZoneName string
	if !allDay {
		if ev.TimeZone != nil {
			startZoneName = *ev.TimeZone
		}
		endZoneName = startZoneName
		var endLocationID string
		for id, loc := range ev.Locations {
			if loc.Rel != nil && *loc.Rel == jevent.LocationRelEnd && loc.TimeZone != nil {
				endZoneName = *loc.TimeZone
				endLocationID = id
				break
			}
		}

		startFloating := startZoneName == ""
		endFloating := endZoneName == ""
		if startFloating != endFloating {
			ctx.invalidAt("timeZone")
		}
		ctx.zones.startNew, _ = ctx.tz.Zone(startZoneName)
		ctx.zones.endNew, _ = ctx.tz.Zone(endZoneName)

		start := ev.Start.Time()
		startWall := timeInZone(start, ctx.zones.startNew)
		emitDateTimeProperty(vevent, ics.ComponentPropertyDtStart, startWall, startZoneName, false, "")

		d, err := ev.DurationValue()
		if err != nil {
			ctx.invalidAt("duration")
			return
		}
		if d < 0 {
			ctx.invalidAt("duration")
			d = 0
		}

		if endZoneName != startZoneName {
			endInstant := startWall.In(startLocOrUTC(ctx.zones.startNew)).Add(d)
			endWall := endInstant.In(startLocOrUTC(ctx.zones.endNew))
			emitDateTimeProperty(vevent, ics.ComponentPropertyDtEnd, endWall, endZoneName, false, endLocationID)
		} else {
			vevent.AddProperty(ics.ComponentPropertyDuration, jevent.FormatISO8601Duration(d))
		}
		return
	}

	// All-day path: DTSTART as a plain VALUE=DATE with no timezone; a
	// positive duration is written as DURATION, a zero one is omitted. A
	// timeZone or an end-zone location on an all-day event is invalid.
	if ev.TimeZone != nil {
		ctx.invalidAt("timeZone")
	}
	for id, loc := range ev.Locations {
		if loc.Rel != nil && *loc.Rel == jevent.LocationRelEnd {
			ctx.withPath("locations", func() { ctx.invalidAt(id) })
		}
	}
	start := ev.Start.Time()
	emitDateTimeProperty(vevent, ics.ComponentPropertyDtStart, start, "", true, "")
	d, err := ev.DurationValue()
	if err == nil && d > 0 {
		vevent.AddProperty(ics.ComponentPropertyDuration, jevent.FormatISO8601Duration(d))
	}
}

func startLocOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// timeInZone reinterprets t's wall-clock fields (year/month/day/hour/...)
// as belonging to loc, i.e. a zone change without a calendar shift. Used
// when moving a floating/UTC-anchored value into its declared zone.
func timeInZone(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func emitDateTimeProperty(vevent *ics.VEvent, prop ics.ComponentProperty, t time.Time, zoneName string, allDay bool, endLocationID string) {
	params := map[string][]string{}
	var value string
	switch {
	case allDay:
		params["VALUE"] = []string{"DATE"}
		value = t.Format(icalDateLayout)
	case zoneName == "":
		value = t.Format(icalDateTimeLayout)
	case zoneName == "Etc/UTC":
		value = t.UTC().Format(icalDateTimeLayout) + "Z"
	default:
		params[xparam.ParamTZID] = []string{zoneName}
		value = t.Format(icalDateTimeLayout)
	}
	if endLocationID != "" {
		params[xparam.ParamLocationID] = []string{endLocationID}
	}
	ianaProp := ics.IANAProperty{
		BaseProperty: ics.BaseProperty{
			IANAToken:      string(prop),
			Value:          value,
			ICalParameters: params,
		},
	}
	vevent.Properties = append(vevent.Properties, ianaProp)
}
