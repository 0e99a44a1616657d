package ical

import (
	"strings"

	ics "github.com/arran4/golang-ical"

	"github.com/mailcore/jevent"
	"github.com/mailcore/jevent/internal/xparam"
)

const maxDelegationDepth = 64

// canonicalEmail normalizes a mailto: URI per the glossary's "Canonical
// mail address": strip the (case-insensitive) scheme, lowercase the
// domain, preserve local-part case.
func canonicalEmail(uri string) (string, bool) {
	const scheme = "mailto:"
	if len(uri) < len(scheme) || !strings.EqualFold(uri[:len(scheme)], scheme) {
		return "", false
	}
	addr := uri[len(scheme):]
	at := strings.LastIndex(addr, "@")
	if at < 0 || addr == "" {
		return "", false
	}
	local, domain := addr[:at], addr[at+1:]
	if local == "" || domain == "" {
		return "", false
	}
	return local + "@" + strings.ToLower(domain), true
}

func firstParam(params map[string][]string, key string) (string, bool) {
	if v, ok := params[key]; ok && len(v) > 0 {
		return v[0], true
	}
	return "", false
}

// readParticipants translates ORGANIZER/ATTENDEE into ev.Participants and
// ev.ReplyTo. Attendees are indexed by URI first so delegation resolution
// is O(1) per hop instead of a linear rescan.
func readParticipants(ctx *conversionContext, vevent *ics.VEvent, ev *jevent.Event) {
	type rawAttendee struct {
		uri    string
		params map[string][]string
	}

	var organizerURI string
	var attendees []rawAttendee
	byURI := map[string]rawAttendee{}

	if organizer := vevent.GetProperty(ics.ComponentPropertyOrganizer); organizer != nil {
		organizerURI = organizer.Value
	}
	for i := range vevent.Properties {
		p := &vevent.Properties[i]
		if !strings.EqualFold(p.IANAToken, string(ics.ComponentPropertyAttendee)) {
			continue
		}
		ra := rawAttendee{uri: p.Value, params: p.ICalParameters}
		attendees = append(attendees, ra)
		byURI[strings.ToLower(ra.uri)] = ra
	}

	resolveRSVP := func(uri string) string {
		seen := 0
		current := uri
		for {
			seen++
			if seen > maxDelegationDepth {
				return jevent.RSVPNeedsAction
			}
			ra, ok := byURI[strings.ToLower(current)]
			if !ok {
				return jevent.RSVPNeedsAction
			}
			partstat, _ := firstParam(ra.params, "PARTSTAT")
			if strings.EqualFold(partstat, "DELEGATED") {
				delegatedTo, ok := firstParam(ra.params, xparam.ParamDelegatedTo)
				if !ok {
					return jevent.RSVPNeedsAction
				}
				current = delegatedTo
				continue
			}
			return rsvpFromPartstat(partstat)
		}
	}

	if organizerURI == "" && len(attendees) == 0 {
		return
	}

	ev.Participants = map[string]*jevent.Participant{}

	if organizerURI != "" {
		email, ok := canonicalEmail(organizerURI)
		if !ok {
			ctx.log.Debugf("ical: organizer %q not a mailto URI, dropped", organizerURI)
		} else {
			organizer := vevent.GetProperty(ics.ComponentPropertyOrganizer)
			p := newParticipantFromProps(email, organizer.ICalParameters)
			p.Roles[jevent.RoleOwner] = true
			p.Roles[jevent.RoleAttendee] = true
			id := participantID(organizer.ICalParameters, email)
			ev.Participants[id] = p

			ev.ReplyTo = map[string]string{"imip": organizerURI}
			if web, ok := firstParam(organizer.ICalParameters, xparam.ParamWebRSVP); ok {
				ev.ReplyTo["web"] = web
			}
		}
	}

	for _, ra := range attendees {
		email, ok := canonicalEmail(ra.uri)
		if !ok {
			ctx.log.Debugf("ical: attendee %q not a mailto URI, skipped", ra.uri)
			continue
		}
		id := participantID(ra.params, email)
		p, exists := ev.Participants[id]
		if !exists {
			p = newParticipantFromProps(email, ra.params)
		}

		if cutype, ok := firstParam(ra.params, "CUTYPE"); ok {
			k := kindFromCUType(cutype)
			p.Kind = &k
		}
		if role, ok := firstParam(ra.params, "ROLE"); ok {
			participation := participationFromRole(role)
			p.Participation = &participation
		}
		if roleTag, ok := firstParam(ra.params, xparam.ParamRole); ok {
			for _, tag := range strings.Split(roleTag, ",") {
				tag = strings.ToLower(strings.TrimSpace(tag))
				if tag != "" {
					p.Roles[tag] = true
				}
			}
		}
		if organizerURI != "" && strings.EqualFold(ra.uri, organizerURI) {
			p.Roles[jevent.RoleOwner] = true
		}

		p.RSVPResponse = strPtr(resolveRSVP(ra.uri))
		if rsvp, ok := firstParam(ra.params, "RSVP"); ok {
			wanted := strings.EqualFold(rsvp, "TRUE")
			p.RSVPWanted = &wanted
		}
		if delegatedTo, ok := firstParam(ra.params, xparam.ParamDelegatedTo); ok {
			p.DelegatedTo = splitEmailSet(delegatedTo)
		}
		if delegatedFrom, ok := firstParam(ra.params, xparam.ParamDelegatedFrom); ok {
			p.DelegatedFrom = splitEmailSet(delegatedFrom)
		}
		if member, ok := firstParam(ra.params, "MEMBER"); ok {
			p.MemberOf = splitEmailSet(member)
		}

		ev.Participants[id] = p
	}

	if len(ev.Participants) == 0 {
		ev.Participants = nil
	}
}

func newParticipantFromProps(email string, params map[string][]string) *jevent.Participant {
	p := jevent.NewParticipant(email)
	if cn, ok := firstParam(params, "CN"); ok {
		p.Name = &cn
	}
	return p
}

func participantID(params map[string][]string, email string) string {
	if id, ok := firstParam(params, xparam.ParamEventID); ok && id != "" {
		return id
	}
	return email
}

func kindFromCUType(cutype string) string {
	switch strings.ToUpper(cutype) {
	case "GROUP":
		return jevent.KindGroup
	case "RESOURCE":
		return jevent.KindResource
	case "ROOM":
		return jevent.KindLocation
	case "INDIVIDUAL":
		return jevent.KindIndividual
	default:
		return jevent.KindUnknown
	}
}

func kindToCUType(kind string) string {
	switch kind {
	case jevent.KindGroup:
		return "GROUP"
	case jevent.KindResource:
		return "RESOURCE"
	case jevent.KindLocation:
		return "ROOM"
	case jevent.KindIndividual:
		return "INDIVIDUAL"
	default:
		return "UNKNOWN"
	}
}

func participationFromRole(role string) string {
	switch strings.ToUpper(role) {
	case "OPT-PARTICIPANT":
		return jevent.ParticipationOptional
	case "NON-PARTICIPANT":
		return jevent.ParticipationNonParticipant
	default:
		return jevent.ParticipationRequired
	}
}

func participationToRole(participation string, roles map[string]bool) string {
	if roles[jevent.RoleChair] {
		return "CHAIR"
	}
	switch participation {
	case jevent.ParticipationOptional:
		return "OPT-PARTICIPANT"
	case jevent.ParticipationNonParticipant:
		return "NON-PARTICIPANT"
	default:
		return "REQ-PARTICIPANT"
	}
}

func rsvpFromPartstat(partstat string) string {
	switch strings.ToUpper(partstat) {
	case "ACCEPTED":
		return jevent.RSVPAccepted
	case "DECLINED":
		return jevent.RSVPDeclined
	case "TENTATIVE":
		return jevent.RSVPTentative
	default:
		return jevent.RSVPNeedsAction
	}
}

func rsvpToPartstat(rsvp string) string {
	switch rsvp {
	case jevent.RSVPAccepted:
		return "ACCEPTED"
	case jevent.RSVPDeclined:
		return "DECLINED"
	case jevent.RSVPTentative:
		return "TENTATIVE"
	default:
		return "NEEDS-ACTION"
	}
}

func splitEmailSet(v string) map[string]bool {
	out := map[string]bool{}
	for _, part := range strings.Split(v, ",") {
		if email, ok := canonicalEmail(strings.TrimSpace(part)); ok {
			out[email] = true
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func joinMailtoSet(set map[string]bool) string {
	emails := make([]string, 0, len(set))
	for e := range set {
		emails = append(emails, "mailto:"+e)
	}
	return strings.Join(emails, ",")
}

// writeParticipants is the inverse of readParticipants.
func writeParticipants(ctx *conversionContext, ev *jevent.Event, vevent *ics.VEvent) {
	removeProperty(vevent, string(ics.ComponentPropertyOrganizer))
	removeProperty(vevent, string(ics.ComponentPropertyAttendee))

	if len(ev.Participants) == 0 {
		return
	}

	if ev.ReplyTo != nil {
		if imip, ok := ev.ReplyTo["imip"]; ok {
			params := map[string][]string{}
			if web, ok := ev.ReplyTo["web"]; ok {
				params[xparam.ParamWebRSVP] = []string{web}
			}
			for _, p := range ev.Participants {
				if p.HasRole(jevent.RoleOwner) && p.Name != nil {
					params["CN"] = []string{*p.Name}
					break
				}
			}
			vevent.Properties = append(vevent.Properties, ics.IANAProperty{
				BaseProperty: ics.BaseProperty{IANAToken: string(ics.ComponentPropertyOrganizer), Value: imip, ICalParameters: params},
			})
		} else if _, ok := ev.ReplyTo["web"]; ok {
			ctx.invalidAt("replyTo/web") // write path requires imip to be present to also store web
		}
	}

	ids := make([]string, 0, len(ev.Participants))
	for id := range ev.Participants {
		ids = append(ids, id)
	}
	sortStrings(ids)

	for _, id := range ids {
		p := ev.Participants[id]
		if p.Email == nil {
			continue
		}
		params := map[string][]string{}
		if p.Name != nil {
			params["CN"] = []string{*p.Name}
		}
		if p.Kind != nil {
			params["CUTYPE"] = []string{kindToCUType(*p.Kind)}
		}
		participation := jevent.ParticipationRequired
		if p.Participation != nil {
			participation = *p.Participation
		}
		params["ROLE"] = []string{participationToRole(participation, p.Roles)}
		if p.RSVPResponse != nil {
			params["PARTSTAT"] = []string{rsvpToPartstat(*p.RSVPResponse)}
		}
		if p.RSVPWanted != nil {
			if *p.RSVPWanted {
				params["RSVP"] = []string{"TRUE"}
			} else {
				params["RSVP"] = []string{"FALSE"}
			}
		}
		if len(p.Roles) > 0 {
			tags := make([]string, 0, len(p.Roles))
			for t := range p.Roles {
				tags = append(tags, t)
			}
			sortStrings(tags)
			params[xparam.ParamRole] = []string{strings.Join(tags, ",")}
		}
		if len(p.DelegatedTo) > 0 {
			params[xparam.ParamDelegatedTo] = []string{joinMailtoSet(p.DelegatedTo)}
		}
		if len(p.DelegatedFrom) > 0 {
			params[xparam.ParamDelegatedFrom] = []string{joinMailtoSet(p.DelegatedFrom)}
		}
		if len(p.MemberOf) > 0 {
			params["MEMBER"] = []string{joinMailtoSet(p.MemberOf)}
		}
		if id != *p.Email {
			params[xparam.ParamEventID] = []string{id}
		}

		vevent.Properties = append(vevent.Properties, ics.IANAProperty{
			BaseProperty: ics.BaseProperty{IANAToken: string(ics.ComponentPropertyAttendee), Value: "mailto:" + *p.Email, ICalParameters: params},
		})
	}
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
