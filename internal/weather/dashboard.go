package weather

import (
	"fmt"
	"strings"
	"time"
)

// kphToMph converts kilometres per hour to miles per hour.
const kphToMph = 0.621371

// BuildDashboard transforms a provider forecast into the display snapshot.
// Sections disabled in f are left empty; the normalizer and classifier run
// regardless of the flags.
func BuildDashboard(resp ForecastResponse, now time.Time, f Features) Dashboard {
	now = LocalNow(now, resp.Location.TzID)
	days := resp.Forecast.ForecastDay

	daily := NormalizeDailyForecast(days, now)
	hourly := ExtractTodayHourly(days, now)
	aq := Classify(resp.Current.AirQuality.index(), resp.Current.AirQuality.Concentrations())

	d := Dashboard{
		Location:     locationLabel(resp.Location),
		Temperature:  roundHalfUp(resp.Current.TempF),
		TemperatureC: roundHalfUp(resp.Current.TempC),
		Condition:    resp.Current.Condition.Text,
		Icon:         ConditionIcon(resp.Current.Condition.Text),
		Humidity:     resp.Current.Humidity,
		WindSpeed:    roundHalfUp(resp.Current.WindKph * kphToMph),
		Features:     f,
		UpdatedAt:    now,
	}
	if f.ShowAirQuality {
		d.AirQuality = &aq
	}
	if f.ShowDaily {
		d.Forecast = daily
	}
	if f.ShowHourly {
		d.Hourly = hourly
	}
	return d
}

func (a *AirQualityReading) index() int {
	if a == nil {
		return 0
	}
	return a.USEPAIndex
}

// LocalNow converts now into the named IANA zone. Unknown or empty zones
// leave now untouched.
func LocalNow(now time.Time, tzID string) time.Time {
	if tzID == "" {
		return now
	}
	loc, err := time.LoadLocation(tzID)
	if err != nil {
		return now
	}
	return now.In(loc)
}

func locationLabel(l ProviderLocation) string {
	switch {
	case l.Name == "":
		return l.Country
	case l.Country == "":
		return l.Name
	default:
		return fmt.Sprintf("%s, %s", l.Name, l.Country)
	}
}

// Icon is a coarse presentation hint for a condition.
type Icon string

const (
	IconSun   Icon = "sun"
	IconCloud Icon = "cloud"
	IconRain  Icon = "rain"
	IconSnow  Icon = "snow"
)

// ConditionIcon picks an icon for a condition text, defaulting to the sun.
func ConditionIcon(condition string) Icon {
	switch strings.ToLower(strings.TrimSpace(condition)) {
	case "cloudy", "partly cloudy", "overcast":
		return IconCloud
	case "rainy", "patchy rain", "moderate rain", "heavy rain", "light rain", "drizzle":
		return IconRain
	case "snowy", "snow", "patchy snow", "light snow", "heavy snow":
		return IconSnow
	default:
		return IconSun
	}
}
