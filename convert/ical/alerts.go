package ical

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/mailcore/jevent"
	"github.com/mailcore/jevent/internal/xparam"
)

// alarmProperty scans a VALARM's property list the same way findProperty
// does for a VEVENT; golang-ical's VAlarm shares ComponentBase's flat
// Properties slice.
func alarmProperty(alarm *ics.VAlarm, token string) *ics.IANAProperty {
	for i := range alarm.Properties {
		if strings.EqualFold(alarm.Properties[i].IANAToken, token) {
			return &alarm.Properties[i]
		}
	}
	return nil
}

func alarmSetProperty(alarm *ics.VAlarm, token, value string, params map[string][]string) {
	ianaProp := ics.IANAProperty{BaseProperty: ics.BaseProperty{IANAToken: token, Value: value, ICalParameters: params}}
	alarm.Properties = append(alarm.Properties, ianaProp)
}

func alarmID(alarm *ics.VAlarm) string {
	if p := alarmProperty(alarm, "UID"); p != nil {
		return p.Value
	}
	return ""
}

// readAlerts splits the event's VALARM sub-components into regular and
// snooze sets and translates each regular alarm into an Alert, attaching
// the paired snooze timestamp where present.
func readAlerts(ctx *conversionContext, vevent *ics.VEvent, ev *jevent.Event) {
	alarms := vevent.Alarms()
	if len(alarms) == 0 {
		return
	}

	snoozeByParentUID := map[string]*ics.VAlarm{}
	var regular []*ics.VAlarm
	for _, alarm := range alarms {
		if rel := alarmProperty(alarm, relatedToToken); rel != nil {
			if reltype, ok := firstParam(rel.ICalParameters, "RELTYPE"); ok && strings.EqualFold(reltype, xparam.RelTypeSnooze) {
				snoozeByParentUID[rel.Value] = alarm
				continue
			}
		}
		regular = append(regular, alarm)
	}

	ev.Alerts = map[string]*jevent.Alert{}
	counter := newIDCounter()

	for _, alarm := range regular {
		alert, ok := readOneAlert(ctx, alarm, ev)
		if !ok {
			continue
		}
		if snooze, ok := snoozeByParentUID[alarmID(alarm)]; ok {
			if trigger := alarmProperty(snooze, string(ics.ComponentPropertyTrigger)); trigger != nil {
				if t, ok := parseICalTimestamp(trigger.Value); ok {
					alert.Snoozed = &t
				}
			}
		}
		id := alarmID(alarm)
		if id == "" {
			id = counter.synth("alert")
		}
		ev.Alerts[id] = alert
	}

	if len(ev.Alerts) == 0 {
		ev.Alerts = nil
	}
}

func readOneAlert(ctx *conversionContext, alarm *ics.VAlarm, ev *jevent.Event) (*jevent.Alert, bool) {
	trigger := alarmProperty(alarm, string(ics.ComponentPropertyTrigger))
	if trigger == nil {
		return nil, false
	}

	relativeTo, offset, ok := parseTrigger(trigger.Value, trigger.ICalParameters)
	if !ok {
		return nil, false
	}
	alert := &jevent.Alert{RelativeTo: relativeTo, Offset: offset}

	action := "DISPLAY"
	if p := alarmProperty(alarm, string(ics.ComponentPropertyAction)); p != nil {
		action = strings.ToUpper(p.Value)
	}

	switch action {
	case "EMAIL":
		email := jevent.EmailAction{}
		if p := alarmProperty(alarm, string(ics.ComponentPropertyDescription)); p != nil {
			email.TextBody = unescapeText(p.Value)
			if alt, ok := firstParam(p.ICalParameters, "ALTREP"); ok {
				if html, ok := decodeHTMLAltrep(alt); ok {
					email.HTMLBody = &html
				}
			}
		}
		if p := alarmProperty(alarm, string(ics.ComponentPropertySummary)); p != nil {
			email.Subject = unescapeText(p.Value)
		}
		for i := range alarm.Properties {
			p := &alarm.Properties[i]
			if strings.EqualFold(p.IANAToken, string(ics.ComponentPropertyAttendee)) {
				if addr, ok := canonicalEmail(p.Value); ok {
					ea := jevent.EmailAddress{Email: addr}
					if cn, ok := firstParam(p.ICalParameters, "CN"); ok {
						ea.Name = &cn
					}
					email.To = append(email.To, ea)
				}
			}
		}
		readAlertAttachments(alarm, &email.Attachments, linkPrefixAlertAttach)
		alert.Action = email
	default:
		display := jevent.DisplayAction{}
		readAlertAttachments(alarm, &display.MediaLinks, linkPrefixAlertMedia)
		alert.Action = display
	}

	if p := alarmProperty(alarm, "ACKNOWLEDGED"); p != nil {
		if t, ok := parseICalTimestamp(p.Value); ok {
			alert.Acknowledged = &t
		}
	}
	return alert, true
}

func readAlertAttachments(alarm *ics.VAlarm, into *map[string]*jevent.Link, prefix string) {
	counter := newIDCounter()
	for i := range alarm.Properties {
		p := &alarm.Properties[i]
		if !strings.EqualFold(p.IANAToken, attachToken) {
			continue
		}
		if enc, ok := firstParam(p.ICalParameters, "ENCODING"); ok && strings.EqualFold(enc, "BASE64") {
			continue
		}
		link := &jevent.Link{Href: p.Value}
		if ct, ok := firstParam(p.ICalParameters, "FMTTYPE"); ok {
			link.ContentType = &ct
		}
		id, ok := firstParam(p.ICalParameters, xparam.ParamLinkID)
		if !ok || id == "" {
			id = counter.synth(prefix)
		}
		if *into == nil {
			*into = map[string]*jevent.Link{}
		}
		(*into)[id] = link
	}
}

// parseTrigger reads a TRIGGER value (duration, signed) or an absolute
// date-time TRIGGER;VALUE=DATE-TIME, folding the sign into relativeTo.
func parseTrigger(value string, params map[string][]string) (relativeTo string, offset string, ok bool) {
	related := "START"
	if v, ok := firstParam(params, "RELATED"); ok {
		related = strings.ToUpper(v)
	}

	if valueType, ok := firstParam(params, "VALUE"); ok && strings.EqualFold(valueType, "DATE-TIME") {
		// Absolute trigger: treat as a zero offset relative to start, the
		// duration-based offset is only meaningful for relative triggers.
		return jevent.AlertBeforeStart, jevent.CanonicalZeroDuration, true
	}

	d, err := jevent.ParseISO8601Duration(value)
	if err != nil {
		return "", "", false
	}
	negative := d < 0
	if negative {
		d = -d
	}
	offset = jevent.FormatISO8601Duration(d)

	switch {
	case related == "END" && negative:
		relativeTo = jevent.AlertBeforeEnd
	case related == "END" && !negative:
		relativeTo = jevent.AlertAfterEnd
	case related == "START" && negative:
		relativeTo = jevent.AlertBeforeStart
	default:
		relativeTo = jevent.AlertAfterStart
	}
	return relativeTo, offset, true
}

func formatTrigger(relativeTo, offset string) (string, map[string][]string) {
	d, err := jevent.ParseISO8601Duration(offset)
	if err != nil {
		d = 0
	}
	params := map[string][]string{}
	switch relativeTo {
	case jevent.AlertBeforeStart:
		params["RELATED"] = []string{"START"}
		d = -d
	case jevent.AlertAfterStart:
		params["RELATED"] = []string{"START"}
	case jevent.AlertBeforeEnd:
		params["RELATED"] = []string{"END"}
		d = -d
	case jevent.AlertAfterEnd:
		params["RELATED"] = []string{"END"}
	}
	return formatSignedISODuration(d), params
}

func formatSignedISODuration(d time.Duration) string {
	if d >= 0 {
		return jevent.FormatISO8601Duration(d)
	}
	return "-" + jevent.FormatISO8601Duration(-d)
}

// writeAlerts is the inverse of readAlerts.
func writeAlerts(ctx *conversionContext, ev *jevent.Event, vevent *ics.VEvent) {
	removeAllAlarms(vevent)
	if len(ev.Alerts) == 0 {
		return
	}

	ids := make([]string, 0, len(ev.Alerts))
	for id := range ev.Alerts {
		ids = append(ids, id)
	}
	sortStrings(ids)

	for _, id := range ids {
		alert := ev.Alerts[id]
		alarm := vevent.AddVAlarm()
		alarmSetProperty(alarm, "UID", id, nil)

		triggerValue, triggerParams := formatTrigger(alert.RelativeTo, alert.Offset)
		alarmSetProperty(alarm, string(ics.ComponentPropertyTrigger), triggerValue, triggerParams)

		switch action := alert.Action.(type) {
		case jevent.EmailAction:
			alarmSetProperty(alarm, string(ics.ComponentPropertyAction), "EMAIL", nil)
			alarmSetProperty(alarm, string(ics.ComponentPropertySummary), escapeText(action.Subject), nil)
			descParams := map[string][]string{}
			if action.HTMLBody != nil {
				descParams["ALTREP"] = []string{encodeHTMLAltrep(*action.HTMLBody)}
			}
			alarmSetProperty(alarm, string(ics.ComponentPropertyDescription), escapeText(action.TextBody), descParams)
			for _, to := range action.To {
				params := map[string][]string{}
				if to.Name != nil {
					params["CN"] = []string{*to.Name}
				}
				alarmSetProperty(alarm, string(ics.ComponentPropertyAttendee), "mailto:"+to.Email, params)
			}
			writeAlertAttachments(alarm, action.Attachments)
		case jevent.DisplayAction:
			alarmSetProperty(alarm, string(ics.ComponentPropertyAction), "DISPLAY", nil)
			writeAlertAttachments(alarm, action.MediaLinks)
		default:
			ctx.invalidAt(fmt.Sprintf("alerts/%s/action", id))
		}

		if alert.Acknowledged != nil {
			alarmSetProperty(alarm, "ACKNOWLEDGED", alert.Acknowledged.UTC().Format(icalTimestampLayout), nil)
		}

		if alert.Snoozed != nil {
			snooze := vevent.AddVAlarm()
			snoozeID := id + "-snooze"
			alarmSetProperty(snooze, "UID", snoozeID, nil)
			alarmSetProperty(snooze, string(ics.ComponentPropertyAction), "DISPLAY", nil)
			alarmSetProperty(snooze, string(ics.ComponentPropertyTrigger),
				alert.Snoozed.UTC().Format(icalTimestampLayout), map[string][]string{"VALUE": {"DATE-TIME"}})
			alarmSetProperty(snooze, relatedToToken, id, map[string][]string{"RELTYPE": {xparam.RelTypeSnooze}})
		}
	}
}

func writeAlertAttachments(alarm *ics.VAlarm, links map[string]*jevent.Link) {
	ids := make([]string, 0, len(links))
	for id := range links {
		ids = append(ids, id)
	}
	sortStrings(ids)
	for _, id := range ids {
		link := links[id]
		params := map[string][]string{xparam.ParamLinkID: {id}}
		if link.ContentType != nil {
			params["FMTTYPE"] = []string{*link.ContentType}
		}
		alarmSetProperty(alarm, attachToken, link.Href, params)
	}
}

func removeAllAlarms(vevent *ics.VEvent) {
	var kept []ics.Component
	for _, c := range vevent.Components {
		if _, isAlarm := c.(*ics.VAlarm); !isAlarm {
			kept = append(kept, c)
		}
	}
	vevent.Components = kept
}
