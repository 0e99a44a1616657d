// Package xparam names the private ICAL properties and parameters
// convert/ical reads and writes. Centralizing the literal strings here
// keeps the conversion files free of scattered string literals.
package xparam

const (
	// Private property names.

	// PropXLocation carries a location entry that didn't become the
	// canonical LOCATION or a CONFERENCE property.
	PropXLocation = "X-LOCATION"

	// PropAppleStructuredLocation is Apple's de-facto structured location
	// extension, a VLOCATION-shaped blob attached directly to LOCATION.
	PropAppleStructuredLocation = "X-APPLE-STRUCTURED-LOCATION"

	// PropXAttach is a private fallback attachment property used by some
	// producers instead of standard ATTACH.
	PropXAttach = "X-ATTACH"

	// PropConference is RFC 7986's CONFERENCE property.
	PropConference = "CONFERENCE"

	// Private parameters.

	// ParamEventID preserves an event identifier distinct from UID.
	ParamEventID = "X-JEVENT-ID"

	// ParamLocationID preserves a location's stable identifier across
	// round trips instead of re-deriving its SHA-1.
	ParamLocationID = "X-JEVENT-LOCATION-ID"

	// ParamRole overrides the implicit attendee/chair/owner role set
	// derived from ROLE/ORGANIZER-equality alone.
	ParamRole = "X-JEVENT-ROLE"

	// ParamLinkID preserves a link's stable identifier.
	ParamLinkID = "X-JEVENT-LINK-ID"

	// ParamContentID mirrors MIME Content-ID for a link/attachment.
	ParamContentID = "X-JEVENT-CID"

	// ParamTitle names a link or location's display title.
	ParamTitle = "X-JEVENT-TITLE"

	// ParamRel preserves a location or link's rel tag verbatim.
	ParamRel = "X-JEVENT-REL"

	// ParamGeo carries a coordinates URI alongside a property that has no
	// native GEO slot of its own (e.g. a CONFERENCE entry).
	ParamGeo = "X-JEVENT-GEO"

	// ParamDescription attaches a free-text description to a property
	// whose RFC 5545 shape has no DESCRIPTION sub-value.
	ParamDescription = "X-JEVENT-DESCRIPTION"

	// ParamTZID names the IANA zone backing an end-zone pseudo-location
	// or other synthesized zone carrier.
	ParamTZID = "TZID"

	// ParamFeatures carries a comma-joined feature-token list for a
	// CONFERENCE property lacking a native FEATURE enum value.
	ParamFeatures = "FEATURE"

	// ParamPropertiesBlob preserves the opaque Link.Properties blob as a
	// parameter when the link's wire property can't carry a VALUE body.
	ParamPropertiesBlob = "X-JEVENT-PROPERTIES"

	// ParamSequence / ParamDtstamp mirror SEQUENCE/DTSTAMP into a VALARM,
	// which has no native slot for either.
	ParamSequence = "X-JEVENT-SEQUENCE"
	ParamDtstamp  = "X-JEVENT-DTSTAMP"

	// ParamUseDefaultAlerts flags that an event should inherit the
	// calendar's default alarm set rather than carry its own VALARMs.
	ParamUseDefaultAlerts = "X-JEVENT-DEFAULT-ALARM"

	// ParamWebRSVP carries a web-based RSVP URI alongside the organizer's
	// mailto reply-to.
	ParamWebRSVP = "X-JEVENT-RSVP-URI"

	// ParamLocationXProp / ParamAttachXProp preserve which private
	// property name (X-LOCATION vs X-APPLE-STRUCTURED-LOCATION, X-ATTACH
	// vs ATTACH) a location/link entry originated from, so a later write
	// can round-trip the same property choice.
	ParamLocationXProp = "X-JEVENT-LOCATION-SOURCE"
	ParamAttachXProp   = "X-JEVENT-ATTACH-SOURCE"

	// RelTypeSnooze is the RELATED-TO RELTYPE value linking a snoozed
	// VALARM sibling back to the alert it re-triggers.
	RelTypeSnooze = "SNOOZE"

	// ParamDelegatedFrom / ParamDelegatedTo mirror RFC 5545's native
	// DELEGATED-FROM/DELEGATED-TO ATTENDEE parameters.
	ParamDelegatedFrom = "DELEGATED-FROM"
	ParamDelegatedTo   = "DELEGATED-TO"

	// Apple structured-location sub-parameters.
	ParamAppleRadius   = "X-APPLE-RADIUS"
	ParamAppleMapKitID = "X-APPLE-MAPKIT-HANDLE"
	ParamAppleTitle    = "X-TITLE"
	ParamAddress       = "X-ADDRESS"
)
