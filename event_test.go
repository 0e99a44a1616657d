package jevent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventGeneratesUID(t *testing.T) {
	e1 := NewEvent("Standup")
	e2 := NewEvent("Standup")

	assert.Equal(t, "Event", e1.Type)
	assert.NotEmpty(t, e1.UID)
	assert.NotEqual(t, e1.UID, e2.UID, "each NewEvent call should mint a fresh UID")
	assert.Equal(t, StatusConfirmed, *e1.Status)
}

func TestEventCloneIsIndependent(t *testing.T) {
	e := NewEvent("Standup")
	clone := e.Clone()
	clone.Title = stringPtr("Renamed")

	require.NotNil(t, e.Title)
	assert.Equal(t, "Standup", *e.Title)
	assert.Equal(t, "Renamed", *clone.Title)
}

func TestEventTouchBumpsSequence(t *testing.T) {
	e := NewEvent("Standup")
	originalUpdated := *e.Updated
	time.Sleep(time.Millisecond)

	e.Touch()
	assert.True(t, e.Updated.After(originalUpdated))
	assert.Equal(t, 1, *e.Sequence)

	e.Touch()
	assert.Equal(t, 2, *e.Sequence)
}

func TestAllDayCouplingInvariant(t *testing.T) {
	e := NewEvent("New Year")
	e.IsAllDay = boolPtr(true)
	e.TimeZone = stringPtr("America/New_York")

	err := e.Validate()
	require.Error(t, err)
	verrs, ok := err.(ValidationErrors)
	require.True(t, ok)

	found := false
	for _, v := range verrs {
		if v.Field == "timeZone" {
			found = true
		}
	}
	assert.True(t, found, "all-day event with a timeZone must fail validation")
}

func TestRecurrenceRuleExclusivity(t *testing.T) {
	e := NewEvent("Weekly sync")
	count := 4
	until := LocalDateTime(time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC))
	e.RecurrenceRule = &RecurrenceRule{
		Frequency: FreqWeekly,
		Count:     &count,
		Until:     &until,
	}

	err := e.Validate()
	require.Error(t, err)
	verrs := err.(ValidationErrors)

	var countErr, untilErr bool
	for _, v := range verrs {
		if v.Field == "recurrenceRule/count" {
			countErr = true
		}
		if v.Field == "recurrenceRule/until" {
			untilErr = true
		}
	}
	assert.True(t, countErr, "count+until must both be reported invalid")
	assert.True(t, untilErr, "count+until must both be reported invalid")
}

func TestDurationValueAndEndTime(t *testing.T) {
	e := NewEvent("Standup")
	start := LocalDateTime(time.Date(2020, 6, 1, 9, 0, 0, 0, time.UTC))
	e.Start = &start
	e.Duration = stringPtr("PT30M")

	end, err := e.EndTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 6, 1, 9, 30, 0, 0, time.UTC), end)
}
