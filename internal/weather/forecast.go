package weather

import (
	"fmt"
	"strings"
	"time"
)

const (
	// ForecastDays is the fixed length of the daily forecast.
	ForecastDays = 7

	// DefaultCondition is used when the provider gives no condition text.
	DefaultCondition = "sunny"

	dateLayout = "2006-01-02"
	hourLayout = "2006-01-02 15:04"
)

// NormalizeDailyForecast turns the provider's day list into exactly seven
// display days. Longer lists are truncated; shorter ones are padded with
// placeholder days following the last provided date (or tomorrow when the
// list is empty). Placeholders carry absent temperatures and "sunny".
func NormalizeDailyForecast(days []RawForecastDay, now time.Time) []DisplayDay {
	if len(days) > ForecastDays {
		days = days[:ForecastDays]
	}

	out := make([]DisplayDay, 0, ForecastDays)
	prev := civilDate(now)

	for _, d := range days {
		date, ok := parseDate(d.Date)
		if !ok {
			date = prev.AddDate(0, 0, 1)
		}
		prev = date

		cond := DefaultCondition
		if d.Day.Condition != nil && d.Day.Condition.Text != "" {
			cond = d.Day.Condition.Text
		}

		out = append(out, DisplayDay{
			Date:      date.Format(dateLayout),
			DayLabel:  weekdayLabel(date),
			TempF:     TempOf(d.Day.AvgTempF),
			TempC:     TempOf(d.Day.AvgTempC),
			Condition: strings.ToLower(cond),
		})
	}

	for len(out) < ForecastDays {
		prev = prev.AddDate(0, 0, 1)
		out = append(out, DisplayDay{
			Date:      prev.Format(dateLayout),
			DayLabel:  weekdayLabel(prev),
			Condition: DefaultCondition,
		})
	}

	return out
}

// ExtractTodayHourly returns the hours of the first forecast day that lie
// strictly after now, in provider order. Hour timestamps are read in now's
// location; entries that do not parse are dropped.
func ExtractTodayHourly(days []RawForecastDay, now time.Time) []DisplayHour {
	if len(days) == 0 {
		return []DisplayHour{}
	}

	out := make([]DisplayHour, 0, len(days[0].Hour))
	for _, h := range days[0].Hour {
		ts, err := time.ParseInLocation(hourLayout, h.Time, now.Location())
		if err != nil || !ts.After(now) {
			continue
		}
		out = append(out, DisplayHour{
			TimeLabel: HourLabel(ts),
			TempC:     roundHalfUp(h.TempC),
			TempF:     roundHalfUp(h.TempF),
			Condition: h.Condition.Text,
		})
	}
	return out
}

// HourLabel formats t as a 12-hour clock label without leading zero, e.g. "12 AM", "1 PM".
func HourLabel(t time.Time) string {
	h := t.Hour()
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d %s", h, suffix)
}

// civilDate drops the clock part of t, keeping its calendar date.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDate(s string) (time.Time, bool) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func weekdayLabel(d time.Time) string {
	return d.Weekday().String()[:3]
}
