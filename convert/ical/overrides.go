package ical

import (
	"sort"
	"strings"

	ics "github.com/arran4/golang-ical"

	"github.com/mailcore/jevent"
)

const (
	rdateToken = "RDATE"
	exdateToken = "EXDATE"
)

// readOverrides concatenates RDATE, EXDATE, and sibling-VEVENT
// contributions into ev.RecurrenceOverrides.
func readOverrides(ctx *conversionContext, master *ics.VEvent, siblings []*ics.VEvent, ev *jevent.Event) *ErrorSink {
	overrides := map[string]jevent.Override{}

	for i := range master.Properties {
		p := &master.Properties[i]
		switch {
		case strings.EqualFold(p.IANAToken, rdateToken):
			for _, value := range strings.Split(p.Value, ",") {
				key, override, ok := parseRDateValue(value, p.ICalParameters)
				if ok {
					overrides[key] = override
				}
			}
		case strings.EqualFold(p.IANAToken, exdateToken):
			for _, value := range strings.Split(p.Value, ",") {
				wc, ok := parseWallClock(strings.TrimSpace(value), p.ICalParameters)
				if ok {
					overrides[jevent.NewLocalDateTime(wc.t).String()] = jevent.Override{"excluded": true}
				}
			}
		}
	}

	if len(siblings) > 0 {
		baseMap, err := eventToMap(ev)
		if err != nil {
			return fatal(CodeCallbackError, "diffing overrides: %v", err)
		}

		for _, sibling := range siblings {
			ridProp := findProperty(sibling, recurrenceIDToken)
			if ridProp == nil {
				continue
			}
			wc, ok := parseWallClock(ridProp.Value, ridProp.ICalParameters)
			if !ok {
				continue
			}
			key := jevent.NewLocalDateTime(wc.t).String()

			nested := newConversionContext(DirectionRead, ctx.tz, ctx.log)
			nested.exception = true
			nested.master = master

			exEv := &jevent.Event{}
			if sink := readEventCore(nested, sibling, exEv); sink != nil {
				continue // a malformed exception degrades, it doesn't fail the whole document
			}

			exMap, err := eventToMap(exEv)
			if err != nil {
				continue
			}
			patch := jevent.DiffPatch(baseMap, exMap)
			delete(patch, "created")
			delete(patch, "updated")
			if startVal, ok := patch["start"]; ok {
				if s, ok := startVal.(string); ok && s == key {
					delete(patch, "start")
				}
			}
			overrides[key] = jevent.Override(patch).StripForbiddenKeys()
		}
	}

	if len(overrides) > 0 {
		ev.RecurrenceOverrides = overrides
	}
	return nil
}

// parseRDateValue parses one comma-split RDATE member, which is either a
// plain date(-time) or a PERIOD value ("<start>/<end-or-duration>").
func parseRDateValue(value string, params map[string][]string) (string, jevent.Override, bool) {
	value = strings.TrimSpace(value)
	if start, rest, isPeriod := strings.Cut(value, "/"); isPeriod {
		wc, ok := parseWallClock(start, params)
		if !ok {
			return "", nil, false
		}
		key := jevent.NewLocalDateTime(wc.t).String()
		override := jevent.Override{}
		if strings.HasPrefix(rest, "P") {
			override["duration"] = rest
		} else if endWC, ok := parseWallClock(rest, params); ok {
			d := endWC.t.Sub(wc.t)
			override["duration"] = jevent.FormatISO8601Duration(d)
		}
		return key, override, true
	}
	wc, ok := parseWallClock(value, params)
	if !ok {
		return "", nil, false
	}
	return jevent.NewLocalDateTime(wc.t).String(), jevent.Override{}, true
}

// writeOverrides is the inverse of readOverrides. It returns the sibling
// exception VEVENTs to be serialized alongside the master.
func writeOverrides(ctx *conversionContext, ev *jevent.Event, master *ics.VEvent, existingByKey map[string]*ics.VEvent, prodID string) ([]*ics.VEvent, *ErrorSink) {
	removeProperty(master, rdateToken)
	removeProperty(master, exdateToken)

	if len(ev.RecurrenceOverrides) == 0 {
		return nil, nil
	}

	masterMap, err := eventToMap(ev)
	if err != nil {
		return nil, fatal(CodeCallbackError, "materializing master for overrides: %v", err)
	}
	delete(masterMap, "recurrenceOverrides")

	keys := make([]string, 0, len(ev.RecurrenceOverrides))
	for k := range ev.RecurrenceOverrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tzidParams := map[string][]string{}
	if ev.TimeZone != nil {
		tzidParams["TZID"] = []string{*ev.TimeZone}
	}

	var siblings []*ics.VEvent
	for _, key := range keys {
		override := ev.RecurrenceOverrides[key]
		recID, err := jevent.ParseLocalDateTime(key)
		if err != nil {
			ctx.invalidAt("recurrenceOverrides/" + key)
			continue
		}

		if override.Excluded() {
			master.Properties = append(master.Properties, ics.IANAProperty{
				BaseProperty: ics.BaseProperty{IANAToken: exdateToken, Value: recID.Format(icalDateTimeLayout), ICalParameters: tzidParams},
			})
			continue
		}

		stripped := override.StripForbiddenKeys()
		if len(stripped) == 0 {
			master.Properties = append(master.Properties, ics.IANAProperty{
				BaseProperty: ics.BaseProperty{IANAToken: rdateToken, Value: recID.Format(icalDateTimeLayout), ICalParameters: tzidParams},
			})
			continue
		}

		patch := map[string]interface{}(stripped)
		if _, ok := patch["start"]; !ok {
			patch["start"] = recID.String()
		}

		patchedMap := jevent.ApplyPatch(masterMap, patch)
		patchedEv, err := mapToEvent(patchedMap)
		if err != nil {
			ctx.invalidAt("recurrenceOverrides/" + key)
			continue
		}

		sibling, existed := existingByKey[key]
		if !existed {
			sibling = ics.NewEvent(ev.UID)
		} else {
			removeProperty(sibling, string(ics.ComponentPropertyRrule))
			removeProperty(sibling, rdateToken)
			removeProperty(sibling, exdateToken)
		}

		nested := newConversionContext(DirectionWrite, ctx.tz, ctx.log)
		nested.exception = true
		nested.master = master
		if sink := writeEventCore(nested, patchedEv, sibling, prodID); sink != nil {
			ctx.stack = append(ctx.stack, nested.stack...)
			continue
		}
		ctx.stack = append(ctx.stack, nested.stack...)

		sibling.Properties = append(sibling.Properties, ics.IANAProperty{
			BaseProperty: ics.BaseProperty{IANAToken: recurrenceIDToken, Value: recID.Format(icalDateTimeLayout), ICalParameters: tzidParams},
		})
		siblings = append(siblings, sibling)
	}

	return siblings, nil
}
