package ical

import (
	"net/url"
	"regexp"
	"strings"
)

const htmlAltrepPrefix = "data:text/html,"

// encodeHTMLAltrep wraps an HTML description as a DESCRIPTION ALTREP value,
// stored as a data:text/html, URI.
func encodeHTMLAltrep(html string) string {
	return htmlAltrepPrefix + url.PathEscape(html)
}

// decodeHTMLAltrep extracts the payload from a data:text/html, ALTREP,
// returning ok=false for any other URI scheme.
func decodeHTMLAltrep(altrep string) (string, bool) {
	if !strings.HasPrefix(altrep, htmlAltrepPrefix) {
		return "", false
	}
	payload := strings.TrimPrefix(altrep, htmlAltrepPrefix)
	if decoded, err := url.PathUnescape(payload); err == nil {
		return decoded, true
	}
	return payload, true
}

var tagPattern = regexp.MustCompile(`(?s)<[^>]*>`)

// textFromHTML synthesizes a plain-text DESCRIPTION from an HTML body when
// the event document carries no separate plain description: write sets the
// ALTREP and, if the DESCRIPTION text is empty, synthesizes a plain-text
// extraction from the HTML. This is a minimal tag-stripping extraction
// rather than a full HTML parser, noted in DESIGN.md.
func textFromHTML(html string) string {
	text := tagPattern.ReplaceAllString(html, "")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	return strings.TrimSpace(text)
}
