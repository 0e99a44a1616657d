package ical

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/mailcore/jevent"
)

var freqToICal = map[string]string{
	jevent.FreqSecondly: "SECONDLY",
	jevent.FreqMinutely: "MINUTELY",
	jevent.FreqHourly:   "HOURLY",
	jevent.FreqDaily:    "DAILY",
	jevent.FreqWeekly:   "WEEKLY",
	jevent.FreqMonthly:  "MONTHLY",
	jevent.FreqYearly:   "YEARLY",
}

var freqFromICal = map[string]string{
	"SECONDLY": jevent.FreqSecondly,
	"MINUTELY": jevent.FreqMinutely,
	"HOURLY":   jevent.FreqHourly,
	"DAILY":    jevent.FreqDaily,
	"WEEKLY":   jevent.FreqWeekly,
	"MONTHLY":  jevent.FreqMonthly,
	"YEARLY":   jevent.FreqYearly,
}

// readRecurrenceRule translates the master's RRULE into ev.RecurrenceRule.
func readRecurrenceRule(ctx *conversionContext, vevent *ics.VEvent, ev *jevent.Event) {
	prop := vevent.GetProperty(ics.ComponentPropertyRrule)
	if prop == nil {
		return
	}

	rule := &jevent.RecurrenceRule{}
	haveFreq := false

	for _, part := range strings.Split(prop.Value, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "FREQ":
			if f, ok := freqFromICal[strings.ToUpper(value)]; ok {
				rule.Frequency = f
				haveFreq = true
			}
		case "INTERVAL":
			if n, err := strconv.Atoi(value); err == nil {
				rule.Interval = &n
			}
		case "RSCALE":
			v := strings.ToLower(value)
			rule.RScale = &v
		case "SKIP":
			v := strings.ToLower(value)
			rule.Skip = &v
		case "WKST":
			v := strings.ToLower(value)
			rule.FirstDayOfWeek = &v
		case "COUNT":
			if n, err := strconv.Atoi(value); err == nil {
				rule.Count = &n
			}
		case "UNTIL":
			wc, ok := parseWallClock(value, nil)
			if ok {
				until := wc.t
				if !wc.allDay && ev.TimeZone != nil {
					if loc, err := ctx.tz.Zone(*ev.TimeZone); err == nil && loc != nil {
						until = timeInZone(wc.t.In(loc), time.UTC)
					}
				}
				rule.Until = jevent.NewLocalDateTime(until)
			}
		case "BYDAY":
			for _, day := range strings.Split(value, ",") {
				if nday, ok := parseNDay(strings.TrimSpace(day)); ok {
					rule.ByDay = append(rule.ByDay, nday)
				}
			}
		case "BYMONTH":
			for _, m := range strings.Split(value, ",") {
				rule.ByMonth = append(rule.ByMonth, strings.ToUpper(strings.TrimSpace(m)))
			}
		case "BYMONTHDAY":
			rule.ByDate = append(rule.ByDate, parseIntList(value)...)
		case "BYYEARDAY":
			rule.ByYearDay = append(rule.ByYearDay, parseIntList(value)...)
		case "BYWEEKNO":
			rule.ByWeekNo = append(rule.ByWeekNo, parseIntList(value)...)
		case "BYHOUR":
			rule.ByHour = append(rule.ByHour, parseIntList(value)...)
		case "BYMINUTE":
			rule.ByMinute = append(rule.ByMinute, parseIntList(value)...)
		case "BYSECOND":
			rule.BySecond = append(rule.BySecond, parseIntList(value)...)
		case "BYSETPOS":
			rule.BySetPosition = append(rule.BySetPosition, parseIntList(value)...)
		}
	}

	if !haveFreq {
		ctx.invalidAt("recurrenceRule/frequency")
		return
	}

	// count takes precedence over until.
	if rule.Count != nil {
		rule.Until = nil
	}

	sort.Ints(rule.ByDate)
	sort.Ints(rule.ByYearDay)
	sort.Ints(rule.ByWeekNo)
	sort.Ints(rule.ByHour)
	sort.Ints(rule.ByMinute)
	sort.Ints(rule.BySecond)
	sort.Ints(rule.BySetPosition)

	ev.RecurrenceRule = rule
}

// writeRecurrenceRule is the inverse of readRecurrenceRule. It builds the
// RRULE value incrementally, records
// invalid-property entries for any constraint violation, and validates the
// final string through the real RRULE parser; a parse failure is fatal.
func writeRecurrenceRule(ctx *conversionContext, ev *jevent.Event, vevent *ics.VEvent) *ErrorSink {
	removeProperty(vevent, string(ics.ComponentPropertyRrule))
	rule := ev.RecurrenceRule
	if rule == nil {
		return nil
	}

	var parts []string

	if icalFreq, ok := freqToICal[rule.Frequency]; ok {
		parts = append(parts, "FREQ="+icalFreq)
	} else {
		ctx.invalidAt("recurrenceRule/frequency")
	}

	if rule.Interval != nil {
		if *rule.Interval < 1 {
			ctx.invalidAt("recurrenceRule/interval")
		} else if *rule.Interval != 1 {
			parts = append(parts, fmt.Sprintf("INTERVAL=%d", *rule.Interval))
		}
	}

	if rule.Count != nil && rule.Until != nil {
		ctx.invalidAt("recurrenceRule/count")
		ctx.invalidAt("recurrenceRule/until")
	} else if rule.Count != nil {
		parts = append(parts, fmt.Sprintf("COUNT=%d", *rule.Count))
	} else if rule.Until != nil {
		untilUTC := rule.Until.Time().UTC()
		if ctx.zones.startNew != nil {
			untilUTC = timeInZone(rule.Until.Time(), ctx.zones.startNew).UTC()
		}
		parts = append(parts, "UNTIL="+untilUTC.Format(icalDateTimeLayout)+"Z")
	}

	if rule.RScale != nil {
		parts = append(parts, "RSCALE="+strings.ToUpper(*rule.RScale))
	}
	if rule.Skip != nil {
		if rule.RScale == nil {
			ctx.invalidAt("recurrenceRule/skip")
		} else {
			parts = append(parts, "SKIP="+strings.ToUpper(*rule.Skip))
		}
	}
	if rule.FirstDayOfWeek != nil {
		parts = append(parts, "WKST="+strings.ToUpper(*rule.FirstDayOfWeek))
	}

	if len(rule.ByDay) > 0 {
		var days []string
		for _, nday := range rule.ByDay {
			if !jevent.ValidWeekdayTag(nday.Day) {
				ctx.invalidAt("recurrenceRule/byDay")
				continue
			}
			d := strings.ToUpper(nday.Day)
			if nday.NthOfPeriod != nil {
				d = fmt.Sprintf("%d%s", *nday.NthOfPeriod, d)
			}
			days = append(days, d)
		}
		if len(days) > 0 {
			parts = append(parts, "BYDAY="+strings.Join(days, ","))
		}
	}
	if len(rule.ByMonth) > 0 {
		parts = append(parts, "BYMONTH="+strings.Join(rule.ByMonth, ","))
	}
	appendRangedList(ctx, &parts, "BYMONTHDAY", "recurrenceRule/byDate", rule.ByDate, -31, 31, true)
	appendRangedList(ctx, &parts, "BYYEARDAY", "recurrenceRule/byYearDay", rule.ByYearDay, -366, 366, true)
	appendRangedList(ctx, &parts, "BYWEEKNO", "recurrenceRule/byWeekNo", rule.ByWeekNo, -53, 53, true)
	appendRangedList(ctx, &parts, "BYHOUR", "recurrenceRule/byHour", rule.ByHour, 0, 23, false)
	appendRangedList(ctx, &parts, "BYMINUTE", "recurrenceRule/byMinute", rule.ByMinute, 0, 59, false)
	appendRangedList(ctx, &parts, "BYSECOND", "recurrenceRule/bySecond", rule.BySecond, 0, 59, false)
	if len(rule.BySetPosition) > 0 {
		parts = append(parts, "BYSETPOS="+joinInts(rule.BySetPosition))
	}

	rruleValue := strings.Join(parts, ";")
	if _, err := rrule.StrToRRule(rruleValue); err != nil {
		return fatal(CodeICALLibraryError, "invalid RRULE %q: %v", rruleValue, err)
	}

	vevent.AddProperty(ics.ComponentPropertyRrule, rruleValue)
	return nil
}

func appendRangedList(ctx *conversionContext, parts *[]string, icalKey, jsonPointer string, values []int, lo, hi int, forbidZero bool) {
	if len(values) == 0 {
		return
	}
	var kept []int
	for _, v := range values {
		if v < lo || v > hi || (forbidZero && v == 0) {
			ctx.invalidAt(jsonPointer)
			continue
		}
		kept = append(kept, v)
	}
	if len(kept) > 0 {
		*parts = append(*parts, icalKey+"="+joinInts(kept))
	}
}

func joinInts(values []int) string {
	strs := make([]string, len(values))
	for i, v := range values {
		strs[i] = strconv.Itoa(v)
	}
	return strings.Join(strs, ",")
}

func parseIntList(value string) []int {
	var out []int
	for _, s := range strings.Split(value, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// parseNDay parses a BYDAY token like "2MO" or "-1FR" into an NDay.
func parseNDay(token string) (jevent.NDay, bool) {
	i := 0
	for i < len(token) && (token[i] == '-' || token[i] == '+' || (token[i] >= '0' && token[i] <= '9')) {
		i++
	}
	dayPart := strings.ToLower(token[i:])
	if !jevent.ValidWeekdayTag(dayPart) {
		return jevent.NDay{}, false
	}
	nday := jevent.NDay{Day: dayPart}
	if i > 0 {
		if n, err := strconv.Atoi(token[:i]); err == nil {
			nday.NthOfPeriod = &n
		}
	}
	return nday, true
}
