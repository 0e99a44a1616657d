package ical

import (
	"sort"
	"strings"

	ics "github.com/arran4/golang-ical"

	"github.com/mailcore/jevent"
	"github.com/mailcore/jevent/internal/xparam"
)

const (
	geoToken = "GEO"
)

// readLocations unifies LOCATION, GEO, CONFERENCE, X-LOCATION and
// X-APPLE-STRUCTURED-LOCATION into ev.Locations. The end-zone
// pseudo-location, if any, was already seeded by readTemporal; this
// function only adds to the map.
func readLocations(ctx *conversionContext, vevent *ics.VEvent, ev *jevent.Event) {
	ensure := func() {
		if ev.Locations == nil {
			ev.Locations = map[string]*jevent.Location{}
		}
	}

	if prop := vevent.GetProperty(ics.ComponentPropertyLocation); prop != nil {
		ensure()
		loc := &jevent.Location{Name: strPtr(unescapeText(prop.Value))}
		id := locationID(prop.ICalParameters, prop.Value)
		ev.Locations[id] = loc
	}

	if prop := vevent.GetProperty(ics.ComponentProperty(geoToken)); prop != nil {
		ensure()
		lat, lon, ok := strings.Cut(prop.Value, ";")
		if ok {
			coords := "geo:" + lat + "," + lon
			id := locationID(prop.ICalParameters, prop.Value)
			ev.Locations[id] = &jevent.Location{Coordinates: strPtr(coords)}
		}
	}

	for i := range vevent.Properties {
		p := &vevent.Properties[i]
		switch {
		case strings.EqualFold(p.IANAToken, xparam.PropConference):
			ensure()
			loc := &jevent.Location{Uri: strPtr(p.Value), Rel: strPtr(jevent.LocationRelVirtual)}
			if features, ok := firstParam(p.ICalParameters, xparam.ParamFeatures); ok {
				loc.Features = map[string]bool{}
				for _, f := range strings.Split(features, ",") {
					f = strings.ToLower(strings.TrimSpace(f))
					if f != "" {
						loc.Features[f] = true
					}
				}
			}
			if label, ok := firstParam(p.ICalParameters, "LABEL"); ok {
				loc.Name = &label
			}
			id := locationID(p.ICalParameters, p.Value)
			ev.Locations[id] = loc

		case strings.EqualFold(p.IANAToken, xparam.PropXLocation):
			ensure()
			loc := &jevent.Location{Name: strPtr(unescapeText(p.Value))}
			id := locationID(p.ICalParameters, p.Value)
			ev.Locations[id] = loc

		case strings.EqualFold(p.IANAToken, xparam.PropAppleStructuredLocation):
			ensure()
			// Apple structured locations are only expected once per event; take
			// the first and ignore the rest.
			if _, already := ev.Locations["apple"]; already {
				continue
			}
			loc := &jevent.Location{}
			if title, ok := firstParam(p.ICalParameters, xparam.ParamAppleTitle); ok {
				loc.Name = &title
			} else {
				loc.Name = strPtr(unescapeText(p.Value))
			}
			if strings.HasPrefix(p.Value, "geo:") {
				loc.Coordinates = strPtr(p.Value)
			}
			ev.Locations["apple"] = loc
		}
	}

	if len(ev.Locations) == 0 {
		ev.Locations = nil
	}
}

func locationID(params map[string][]string, serialized string) string {
	if id, ok := firstParam(params, xparam.ParamLocationID); ok && id != "" {
		return id
	}
	return sha1Hex(serialized)
}

// writeLocations is the inverse of readLocations. It purges all
// location-bearing properties, skips end-zone
// pseudo-locations (handled by writeTemporal), and, in id order, writes
// a coordinates-only location as GEO, the first named location as
// LOCATION, a later virtual+uri one as CONFERENCE, and the remainder as
// X-LOCATION.
func writeLocations(ctx *conversionContext, ev *jevent.Event, vevent *ics.VEvent) {
	removeProperty(vevent, string(ics.ComponentPropertyLocation))
	removeProperty(vevent, geoToken)
	removeProperty(vevent, xparam.PropConference)
	removeProperty(vevent, xparam.PropXLocation)
	removeProperty(vevent, xparam.PropAppleStructuredLocation)

	if len(ev.Locations) == 0 {
		return
	}

	ids := make([]string, 0, len(ev.Locations))
	for id, loc := range ev.Locations {
		if loc.IsEndZonePseudoLocation() {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	locationWritten := false
	for _, id := range ids {
		loc := ev.Locations[id]

		if loc.Coordinates != nil && loc.Name == nil && loc.Uri == nil {
			lat, lon, ok := strings.Cut(strings.TrimPrefix(*loc.Coordinates, "geo:"), ",")
			if ok {
				vevent.Properties = append(vevent.Properties, ics.IANAProperty{
					BaseProperty: ics.BaseProperty{IANAToken: geoToken, Value: lat + ";" + lon,
						ICalParameters: map[string][]string{xparam.ParamLocationID: {id}}},
				})
			}
			continue
		}

		if !locationWritten && loc.Name != nil {
			params := map[string][]string{xparam.ParamLocationID: {id}}
			vevent.Properties = append(vevent.Properties, ics.IANAProperty{
				BaseProperty: ics.BaseProperty{IANAToken: string(ics.ComponentPropertyLocation), Value: escapeText(*loc.Name), ICalParameters: params},
			})
			locationWritten = true
			continue
		}

		if loc.Rel != nil && *loc.Rel == jevent.LocationRelVirtual && loc.Uri != nil {
			params := map[string][]string{xparam.ParamLocationID: {id}}
			if len(loc.Features) > 0 {
				tags := make([]string, 0, len(loc.Features))
				for f := range loc.Features {
					tags = append(tags, f)
				}
				sort.Strings(tags)
				params[xparam.ParamFeatures] = []string{strings.Join(tags, ",")}
			}
			if loc.Name != nil {
				params["LABEL"] = []string{*loc.Name}
			}
			vevent.Properties = append(vevent.Properties, ics.IANAProperty{
				BaseProperty: ics.BaseProperty{IANAToken: xparam.PropConference, Value: *loc.Uri, ICalParameters: params},
			})
			continue
		}

		name := ""
		if loc.Name != nil {
			name = *loc.Name
		} else if loc.Uri != nil {
			name = *loc.Uri
		}
		vevent.Properties = append(vevent.Properties, ics.IANAProperty{
			BaseProperty: ics.BaseProperty{IANAToken: xparam.PropXLocation, Value: escapeText(name),
				ICalParameters: map[string][]string{xparam.ParamLocationID: {id}}},
		})
	}
}
