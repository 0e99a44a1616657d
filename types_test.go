package jevent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkPropertiesBase64RoundTrip(t *testing.T) {
	link := &Link{
		Href:       "https://example.com/invite.ics",
		Properties: map[string]interface{}{"source": "caldav-sync", "rev": float64(3)},
	}

	data, err := json.Marshal(link)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"properties":"`)

	var decoded Link
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, link.Properties, decoded.Properties)
	assert.Equal(t, link.Href, decoded.Href)
}

func TestLinkWithoutPropertiesOmitsField(t *testing.T) {
	link := &Link{Href: "https://example.com/a"}
	data, err := json.Marshal(link)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "properties")
}

func TestAlertDisplayActionRoundTrip(t *testing.T) {
	alert := &Alert{
		RelativeTo: AlertBeforeStart,
		Offset:     "PT30M",
		Action:     DisplayAction{},
	}
	data, err := json.Marshal(alert)
	require.NoError(t, err)

	var decoded Alert
	require.NoError(t, json.Unmarshal(data, &decoded))
	_, ok := decoded.Action.(DisplayAction)
	assert.True(t, ok)
	assert.Equal(t, AlertBeforeStart, decoded.RelativeTo)
}

func TestAlertEmailActionRoundTrip(t *testing.T) {
	alert := &Alert{
		RelativeTo: AlertBeforeStart,
		Offset:     "PT30M",
		Action: EmailAction{
			To:       []EmailAddress{{Email: "attendee@example.com"}},
			Subject:  "Reminder",
			TextBody: "Your meeting starts soon.",
		},
	}
	data, err := json.Marshal(alert)
	require.NoError(t, err)

	var decoded Alert
	require.NoError(t, json.Unmarshal(data, &decoded))
	email, ok := decoded.Action.(EmailAction)
	require.True(t, ok)
	assert.Equal(t, "Reminder", email.Subject)
	assert.Equal(t, "attendee@example.com", email.To[0].Email)
}

func TestParticipantHasRoleCaseInsensitive(t *testing.T) {
	p := NewParticipant("someone@example.com")
	p.Roles = map[string]bool{"Attendee": true}
	assert.True(t, p.HasRole("attendee"))
	assert.False(t, p.HasRole("chair"))
}

func TestOverrideExcluded(t *testing.T) {
	o := Override{"excluded": true}
	assert.True(t, o.Excluded())

	empty := Override{}
	assert.False(t, empty.Excluded())
}
