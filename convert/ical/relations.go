package ical

import (
	"sort"
	"strings"

	ics "github.com/arran4/golang-ical"

	"github.com/mailcore/jevent"
)

const relatedToToken = "RELATED-TO"

// readRelatedTo folds RELATED-TO properties into ev.RelatedTo, keyed by the
// referenced UID, with the RELTYPE parameter (default "parent") recorded in
// the relation set. Snooze-linked alarm RELATED-TOs are handled separately
// by alerts.go and never reach here since they live on VALARM components.
func readRelatedTo(ctx *conversionContext, vevent *ics.VEvent, ev *jevent.Event) {
	for i := range vevent.Properties {
		p := &vevent.Properties[i]
		if !strings.EqualFold(p.IANAToken, relatedToToken) {
			continue
		}
		relType := "parent"
		if v, ok := p.ICalParameters["RELTYPE"]; ok && len(v) > 0 {
			relType = strings.ToLower(v[0])
		}
		if ev.RelatedTo == nil {
			ev.RelatedTo = map[string]*jevent.Relation{}
		}
		rel, ok := ev.RelatedTo[p.Value]
		if !ok {
			rel = &jevent.Relation{Relation: map[string]bool{}}
			ev.RelatedTo[p.Value] = rel
		}
		rel.Relation[relType] = true
	}
}

// writeRelatedTo is the inverse of readRelatedTo.
func writeRelatedTo(ctx *conversionContext, ev *jevent.Event, vevent *ics.VEvent) {
	removeProperty(vevent, relatedToToken)
	uids := make([]string, 0, len(ev.RelatedTo))
	for uid := range ev.RelatedTo {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	for _, uid := range uids {
		rel := ev.RelatedTo[uid]
		types := make([]string, 0, len(rel.Relation))
		for t := range rel.Relation {
			types = append(types, t)
		}
		sort.Strings(types)
		if len(types) == 0 {
			types = []string{"parent"}
		}
		for _, t := range types {
			vevent.Properties = append(vevent.Properties, ics.IANAProperty{
				BaseProperty: ics.BaseProperty{
					IANAToken:      relatedToToken,
					Value:          uid,
					ICalParameters: map[string][]string{"RELTYPE": {strings.ToUpper(t)}},
				},
			})
		}
	}
}
