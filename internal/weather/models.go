package weather

import (
	"time"
)

// Condition is the provider's free-text weather condition.
type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon,omitempty"`
	Code int    `json:"code,omitempty"`
}

// RawForecastDay is one entry of forecast.forecastday in the provider payload.
// Provider order is trusted as chronological.
type RawForecastDay struct {
	Date string    `json:"date"` // YYYY-MM-DD
	Day  RawDay    `json:"day"`
	Hour []RawHour `json:"hour"`
}

// RawDay holds the daily aggregate. Average temperatures may be null.
type RawDay struct {
	AvgTempC  *float64   `json:"avgtemp_c"`
	AvgTempF  *float64   `json:"avgtemp_f"`
	Condition *Condition `json:"condition"`
}

// RawHour is one hourly entry; Time is local to the forecast location ("YYYY-MM-DD HH:mm").
type RawHour struct {
	Time      string    `json:"time"`
	TempC     float64   `json:"temp_c"`
	TempF     float64   `json:"temp_f"`
	Condition Condition `json:"condition"`
}

// AirQualityReading mirrors current.air_quality.
type AirQualityReading struct {
	CO         *float64 `json:"co,omitempty"`
	NO2        *float64 `json:"no2,omitempty"`
	O3         *float64 `json:"o3,omitempty"`
	SO2        *float64 `json:"so2,omitempty"`
	PM25       *float64 `json:"pm2_5,omitempty"`
	PM10       *float64 `json:"pm10,omitempty"`
	USEPAIndex int      `json:"us-epa-index,omitempty"`
	GBDefra    int      `json:"gb-defra-index,omitempty"`
}

// Concentrations converts the reading into the classifier's pollutant map.
// A nil receiver yields a nil map.
func (a *AirQualityReading) Concentrations() Concentrations {
	if a == nil {
		return nil
	}
	c := make(Concentrations)
	set := func(p Pollutant, v *float64) {
		if v != nil {
			c[p] = *v
		}
	}
	set(PM25, a.PM25)
	set(PM10, a.PM10)
	set(O3, a.O3)
	set(NO2, a.NO2)
	set(SO2, a.SO2)
	set(CO, a.CO)
	return c
}

// ProviderLocation is the location block of a forecast response.
type ProviderLocation struct {
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	TzID      string  `json:"tz_id"`
	Localtime string  `json:"localtime"`
}

// CurrentConditions is the current block of a forecast response.
type CurrentConditions struct {
	TempC      float64            `json:"temp_c"`
	TempF      float64            `json:"temp_f"`
	Condition  Condition          `json:"condition"`
	WindKph    float64            `json:"wind_kph"`
	Humidity   int                `json:"humidity"`
	AirQuality *AirQualityReading `json:"air_quality,omitempty"`
}

// ForecastResponse is the subset of forecast.json the dashboard consumes.
type ForecastResponse struct {
	Location ProviderLocation  `json:"location"`
	Current  CurrentConditions `json:"current"`
	Forecast struct {
		ForecastDay []RawForecastDay `json:"forecastday"`
	} `json:"forecast"`
}

// LocationSuggestion is one search.json result.
type LocationSuggestion struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	URL     string  `json:"url"`
}

// DisplayDay is one entry of the 7-day forecast.
type DisplayDay struct {
	Date      string `json:"date"`
	DayLabel  string `json:"day"`
	TempF     Temp   `json:"temp"`
	TempC     Temp   `json:"tempC"`
	Condition string `json:"condition"`
	Display   string `json:"display,omitempty"` // set by ApplyUnits
}

// DisplayHour is one remaining hour of today.
type DisplayHour struct {
	TimeLabel string `json:"time"`
	TempC     int    `json:"tempC"`
	TempF     int    `json:"temp"`
	Condition string `json:"condition"`
}

// Features toggles dashboard sections.
type Features struct {
	ShowDaily      bool `json:"showDaily"`
	ShowHourly     bool `json:"showHourly"`
	ShowAirQuality bool `json:"showAirQuality"`
}

// AllFeatures enables every section.
var AllFeatures = Features{ShowDaily: true, ShowHourly: true, ShowAirQuality: true}

// Dashboard is the display-ready snapshot handed to clients and cached for offline use.
type Dashboard struct {
	ID           string          `json:"id"`
	Query        string          `json:"query"`
	Location     string          `json:"location"`
	Temperature  int             `json:"temperature"`
	TemperatureC int             `json:"temperatureC"`
	Condition    string          `json:"condition"`
	Icon         Icon            `json:"icon"`
	Humidity     int             `json:"humidity"`
	WindSpeed    int             `json:"windSpeed"` // mph
	AirQuality   *AirQualityTier `json:"airQuality,omitempty"`
	Forecast     []DisplayDay    `json:"forecast,omitempty"`
	Hourly       []DisplayHour   `json:"hourly,omitempty"`
	Features     Features        `json:"features"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Stale        bool            `json:"stale"`
	Units        Unit            `json:"units,omitempty"`
}
