package ical

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	ics "github.com/arran4/golang-ical"

	"github.com/mailcore/jevent"
	"github.com/mailcore/jevent/internal/xparam"
)

const attachToken = "ATTACH"

// readLinks folds ATTACH and X-ATTACH into ev.Links. Binary attachments
// (a non-URI ATTACH value, i.e. one carrying ENCODING=BASE64) are ignored.
func readLinks(ctx *conversionContext, vevent *ics.VEvent, ev *jevent.Event) {
	counter := newIDCounter()

	for i := range vevent.Properties {
		p := &vevent.Properties[i]
		var prefix string
		switch {
		case strings.EqualFold(p.IANAToken, attachToken):
			if enc, ok := firstParam(p.ICalParameters, "ENCODING"); ok && strings.EqualFold(enc, "BASE64") {
				continue
			}
			prefix = linkPrefixEvent
		case strings.EqualFold(p.IANAToken, xparam.PropXAttach):
			prefix = linkPrefixEvent
		default:
			continue
		}

		link := &jevent.Link{Href: p.Value}
		if ct, ok := firstParam(p.ICalParameters, "FMTTYPE"); ok {
			link.ContentType = &ct
		}
		if title, ok := firstParam(p.ICalParameters, xparam.ParamTitle); ok {
			link.Title = &title
		}
		if rel, ok := firstParam(p.ICalParameters, xparam.ParamRel); ok {
			link.Rel = &rel
		}
		if cid, ok := firstParam(p.ICalParameters, xparam.ParamContentID); ok {
			link.Cid = &cid
		}
		if sizeStr, ok := firstParam(p.ICalParameters, "SIZE"); ok {
			if n, err := strconv.Atoi(sizeStr); err == nil {
				link.Size = &n
			} // else: left nil rather than erroring
		}
		if blob, ok := firstParam(p.ICalParameters, xparam.ParamPropertiesBlob); ok {
			if raw, err := base64.URLEncoding.DecodeString(blob); err == nil {
				var props map[string]interface{}
				if json.Unmarshal(raw, &props) == nil {
					link.Properties = props
				}
			}
		}

		id, hasID := firstParam(p.ICalParameters, xparam.ParamLinkID)
		if !hasID || id == "" {
			id = counter.synth(prefix)
		}

		if ev.Links == nil {
			ev.Links = map[string]*jevent.Link{}
		}
		ev.Links[id] = link
	}
}

// writeLinks is the inverse of readLinks.
func writeLinks(ctx *conversionContext, ev *jevent.Event, vevent *ics.VEvent) {
	removeProperty(vevent, attachToken)
	removeProperty(vevent, xparam.PropXAttach)

	if len(ev.Links) == 0 {
		return
	}

	ids := make([]string, 0, len(ev.Links))
	for id := range ev.Links {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		link := ev.Links[id]
		if link.Href == "" {
			ctx.invalidAt("links/" + id + "/href")
			continue
		}
		params := map[string][]string{xparam.ParamLinkID: {id}}
		if link.ContentType != nil {
			params["FMTTYPE"] = []string{*link.ContentType}
		}
		if link.Title != nil {
			params[xparam.ParamTitle] = []string{*link.Title}
		}
		if link.Rel != nil {
			params[xparam.ParamRel] = []string{*link.Rel}
		}
		if link.Cid != nil {
			params[xparam.ParamContentID] = []string{*link.Cid}
		}
		if link.Size != nil {
			if *link.Size < 0 {
				ctx.invalidAt("links/" + id + "/size")
			} else {
				params["SIZE"] = []string{strconv.Itoa(*link.Size)}
			}
		}
		if len(link.Properties) > 0 {
			raw, err := json.Marshal(link.Properties)
			if err == nil {
				params[xparam.ParamPropertiesBlob] = []string{base64.URLEncoding.EncodeToString(raw)}
			}
		}

		vevent.Properties = append(vevent.Properties, ics.IANAProperty{
			BaseProperty: ics.BaseProperty{IANAToken: attachToken, Value: link.Href, ICalParameters: params},
		})
	}
}
