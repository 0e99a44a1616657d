package ical

import (
	"sort"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/mailcore/jevent"
)

// icalTimestampLayout is RFC 5545's basic UTC date-time form, used for
// DTSTAMP/CREATED/LAST-MODIFIED.
const icalTimestampLayout = "20060102T150405Z"

// readScalarShell fills the event-shell fields from vevent: identifier,
// human fields, classification/transparency/status, priority/sequence,
// timestamps.
func readScalarShell(ctx *conversionContext, vevent *ics.VEvent, ev *jevent.Event) *ErrorSink {
	ev.Type = "Event"

	uid := vevent.Id()
	if uid == "" {
		return fatal(CodeMissingUID, "event missing UID")
	}
	ev.UID = uid
	ctx.uid = uid

	if prop := vevent.GetProperty(ics.ComponentPropertySummary); prop != nil {
		title := unescapeText(prop.Value)
		ev.Title = &title
	}
	if prop := vevent.GetProperty(ics.ComponentPropertyDescription); prop != nil {
		desc := unescapeText(prop.Value)
		ev.Description = &desc
		if alt := prop.ICalParameters["ALTREP"]; len(alt) > 0 {
			if html, ok := decodeHTMLAltrep(alt[0]); ok {
				ev.HTMLDescription = &html
			}
		}
	}
	if prop := vevent.GetProperty(ics.ComponentPropertyColor); prop != nil {
		color := prop.Value
		ev.Color = &color
	}
	if prop := vevent.GetProperty(ics.ComponentPropertyCategories); prop != nil {
		ev.Keywords = map[string]bool{}
		for _, cat := range strings.Split(prop.Value, ",") {
			cat = strings.TrimSpace(cat)
			if cat != "" {
				ev.Keywords[cat] = true
			}
		}
	}
	if prop := findProperty(vevent, "LOCALE"); prop != nil {
		locale := prop.Value
		ev.Locale = &locale
	}

	if prop := vevent.GetProperty(ics.ComponentPropertyClass); prop != nil {
		ev.Classification = classificationFromICal(prop.Value)
	}
	if prop := vevent.GetProperty(ics.ComponentPropertyTransp); prop != nil {
		if strings.EqualFold(prop.Value, "TRANSPARENT") {
			ev.Transparency = strPtr(jevent.TransparencyFree)
		} else {
			ev.Transparency = strPtr(jevent.TransparencyBusy)
		}
	}
	if prop := vevent.GetProperty(ics.ComponentPropertyStatus); prop != nil {
		status := strings.ToLower(prop.Value)
		if status == "" {
			status = jevent.StatusConfirmed
		}
		ev.Status = &status
	} else {
		ev.Status = strPtr(jevent.StatusConfirmed)
	}
	if prop := vevent.GetProperty(ics.ComponentPropertyPriority); prop != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(prop.Value)); err == nil {
			ev.Priority = &n
		}
	}
	if prop := vevent.GetProperty(ics.ComponentPropertySequence); prop != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(prop.Value)); err == nil {
			ev.Sequence = &n
		}
	} else {
		ev.Sequence = intPtr0()
	}

	if prop := vevent.GetProperty(ics.ComponentPropertyCreated); prop != nil {
		if t, ok := parseICalTimestamp(prop.Value); ok {
			ev.Created = &t
		}
	}
	if prop := vevent.GetProperty(ics.ComponentPropertyLastModified); prop != nil {
		if t, ok := parseICalTimestamp(prop.Value); ok {
			ev.Updated = &t
		}
	}
	if prop := findProperty(vevent, "PRODID"); prop != nil {
		prodID := prop.Value
		ev.ProdID = &prodID
	}

	return nil
}

// writeScalarShell is the inverse of readScalarShell. prodID is the
// PRODID value written when ev.ProdID is unset, supplied by the Converter
// from its configuration.
func writeScalarShell(ctx *conversionContext, ev *jevent.Event, vevent *ics.VEvent, prodID string) {
	if ev.UID == "" {
		return // caught as missing-uid by the caller before this runs
	}
	vevent.SetProperty(ics.ComponentPropertyDtstamp, nowStamp())

	if ev.Title != nil {
		vevent.SetSummary(escapeText(*ev.Title))
	}
	if ev.Description != nil {
		params := map[string][]string{}
		if ev.HTMLDescription != nil {
			params["ALTREP"] = []string{encodeHTMLAltrep(*ev.HTMLDescription)}
		}
		desc := *ev.Description
		if desc == "" && ev.HTMLDescription != nil {
			desc = textFromHTML(*ev.HTMLDescription)
		}
		setEscapedProperty(vevent, ics.ComponentPropertyDescription, desc, params)
	} else if ev.HTMLDescription != nil {
		setEscapedProperty(vevent, ics.ComponentPropertyDescription, textFromHTML(*ev.HTMLDescription),
			map[string][]string{"ALTREP": {encodeHTMLAltrep(*ev.HTMLDescription)}})
	}
	if ev.Color != nil {
		vevent.SetProperty(ics.ComponentPropertyColor, *ev.Color)
	}
	if len(ev.Keywords) > 0 {
		cats := make([]string, 0, len(ev.Keywords))
		for k := range ev.Keywords {
			cats = append(cats, k)
		}
		sort.Strings(cats)
		// Known-lossy for keywords containing literal commas; the underlying
		// library flattens on a plain join.
		vevent.SetProperty(ics.ComponentProperty("CATEGORIES"), strings.Join(cats, ","))
	}
	if ev.Locale != nil {
		vevent.SetProperty(ics.ComponentProperty("LOCALE"), *ev.Locale)
	}

	if ev.Classification != nil {
		vevent.SetProperty(ics.ComponentPropertyClass, classificationToICal(*ev.Classification))
	}
	if ev.Transparency != nil {
		if *ev.Transparency == jevent.TransparencyFree {
			vevent.SetProperty(ics.ComponentPropertyTransp, "TRANSPARENT")
		} else {
			vevent.SetProperty(ics.ComponentPropertyTransp, "OPAQUE")
		}
	}
	if ev.Status != nil {
		vevent.SetStatus(ics.ObjectStatus(strings.ToUpper(*ev.Status)))
	}
	if ev.Priority != nil {
		if *ev.Priority < 0 || *ev.Priority > 9 {
			ctx.invalidAt("priority")
		} else {
			vevent.SetProperty(ics.ComponentPropertyPriority, strconv.Itoa(*ev.Priority))
		}
	}
	if ev.Sequence != nil {
		if *ev.Sequence < 0 {
			ctx.invalidAt("sequence")
		} else {
			vevent.SetSequence(*ev.Sequence)
		}
	}
	if ev.Created != nil {
		vevent.SetProperty(ics.ComponentPropertyCreated, ev.Created.UTC().Format(icalTimestampLayout))
	}
	if ev.Updated != nil {
		vevent.SetProperty(ics.ComponentPropertyLastModified, ev.Updated.UTC().Format(icalTimestampLayout))
	}

	effectiveProdID := prodID
	if ev.ProdID != nil && *ev.ProdID != "" {
		effectiveProdID = *ev.ProdID
	}
	if effectiveProdID != "" {
		vevent.SetProperty(ics.ComponentProperty("PRODID"), effectiveProdID)
	}
}

func classificationFromICal(class string) *string {
	switch strings.ToUpper(strings.TrimSpace(class)) {
	case "PUBLIC":
		return strPtr(jevent.ClassificationPublic)
	case "PRIVATE":
		return strPtr(jevent.ClassificationPrivate)
	case "CONFIDENTIAL":
		return strPtr(jevent.ClassificationSecret)
	default:
		return strPtr(jevent.ClassificationPublic)
	}
}

func classificationToICal(c string) string {
	switch c {
	case jevent.ClassificationPrivate:
		return "PRIVATE"
	case jevent.ClassificationSecret:
		return "CONFIDENTIAL"
	default:
		return "PUBLIC"
	}
}

func findProperty(vevent *ics.VEvent, token string) *ics.IANAProperty {
	for i := range vevent.Properties {
		if strings.EqualFold(vevent.Properties[i].IANAToken, token) {
			return &vevent.Properties[i]
		}
	}
	return nil
}

func setEscapedProperty(vevent *ics.VEvent, prop ics.ComponentProperty, value string, params map[string][]string) {
	removeProperty(vevent, string(prop))
	ianaProp := ics.IANAProperty{
		BaseProperty: ics.BaseProperty{
			IANAToken:      string(prop),
			Value:          escapeText(value),
			ICalParameters: params,
		},
	}
	vevent.Properties = append(vevent.Properties, ianaProp)
}

func removeProperty(vevent *ics.VEvent, token string) {
	out := vevent.Properties[:0]
	for _, p := range vevent.Properties {
		if !strings.EqualFold(p.IANAToken, token) {
			out = append(out, p)
		}
	}
	vevent.Properties = out
}

func unescapeText(s string) string {
	s = strings.ReplaceAll(s, "\\n", "\n")
	s = strings.ReplaceAll(s, "\\N", "\n")
	s = strings.ReplaceAll(s, "\\,", ",")
	s = strings.ReplaceAll(s, "\\;", ";")
	s = strings.ReplaceAll(s, "\\\\", "\\")
	return s
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

func strPtr(s string) *string { return &s }
func intPtr0() *int           { z := 0; return &z }

func nowStamp() string {
	return time.Now().UTC().Format(icalTimestampLayout)
}
