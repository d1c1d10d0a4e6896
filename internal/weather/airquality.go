package weather

// Pollutant is a provider pollutant key.
type Pollutant string

const (
	PM25 Pollutant = "pm2_5"
	PM10 Pollutant = "pm10"
	O3   Pollutant = "o3"
	NO2  Pollutant = "no2"
	SO2  Pollutant = "so2"
	CO   Pollutant = "co"
)

// pollutantOrder is the canonical scan order; earlier keys win ties.
var pollutantOrder = []Pollutant{PM25, PM10, O3, NO2, SO2, CO}

var pollutantLabels = map[Pollutant]string{
	PM25: "PM2.5",
	PM10: "PM10",
	O3:   "O3",
	NO2:  "NO2",
	SO2:  "SO2",
	CO:   "CO",
}

// Concentrations maps pollutants to measured values. A nil map means no data.
type Concentrations map[Pollutant]float64

// UnknownPollutant is reported when no pollutant has a positive reading.
const UnknownPollutant = "Unknown"

// Air quality levels, US EPA scale.
const (
	LevelGood                        = "Good"
	LevelModerate                    = "Moderate"
	LevelUnhealthyForSensitiveGroups = "Unhealthy for Sensitive Groups"
	LevelUnhealthy                   = "Unhealthy"
	LevelVeryUnhealthy               = "Very Unhealthy"
	LevelHazardous                   = "Hazardous"
)

// DescriptionUnavailable is returned for indices outside 1..6.
const DescriptionUnavailable = "Air quality information not available."

var descriptions = map[int]string{
	1: "Air quality is satisfactory, and air pollution poses little or no risk.",
	2: "Air quality is acceptable. However, there may be a risk for some people, particularly those who are unusually sensitive to air pollution.",
	3: "Members of sensitive groups may experience health effects. The general public is less likely to be affected.",
	4: "Some members of the general public may experience health effects; members of sensitive groups may experience more serious health effects.",
	5: "Health alert: The risk of health effects is increased for everyone.",
	6: "Health warning of emergency conditions: everyone is more likely to be affected.",
}

// ColorBand is the presentation color of an air quality level.
type ColorBand string

const (
	ColorGreen  ColorBand = "green"
	ColorYellow ColorBand = "yellow"
	ColorOrange ColorBand = "orange"
	ColorRed    ColorBand = "red"
	ColorPurple ColorBand = "purple"
	ColorRose   ColorBand = "rose"
)

// AirQualityTier is the classified air quality shown on the dashboard.
type AirQualityTier struct {
	Index            int       `json:"index"`
	Level            string    `json:"level"`
	PrimaryPollutant string    `json:"primaryPollutant"`
	Description      string    `json:"description"`
	ColorBand        ColorBand `json:"colorBand"`
}

// Classify maps a US EPA index and optional pollutant readings to a tier.
// An index of 0 is treated as absent and defaults to 1.
//
// Level uses range buckets (anything above 5 is Hazardous) while the
// description only matches 1..6 exactly, so index 7 is Hazardous with the
// "not available" description.
func Classify(index int, c Concentrations) AirQualityTier {
	if index == 0 {
		index = 1
	}
	level := levelFor(index)
	return AirQualityTier{
		Index:            index,
		Level:            level,
		PrimaryPollutant: PrimaryPollutant(c),
		Description:      describe(index),
		ColorBand:        ColorFor(level),
	}
}

func levelFor(index int) string {
	switch {
	case index <= 1:
		return LevelGood
	case index <= 2:
		return LevelModerate
	case index <= 3:
		return LevelUnhealthyForSensitiveGroups
	case index <= 4:
		return LevelUnhealthy
	case index <= 5:
		return LevelVeryUnhealthy
	default:
		return LevelHazardous
	}
}

func describe(index int) string {
	if d, ok := descriptions[index]; ok {
		return d
	}
	return DescriptionUnavailable
}

// PrimaryPollutant returns the label of the pollutant with the strictly
// highest positive concentration, or "Unknown".
func PrimaryPollutant(c Concentrations) string {
	best := UnknownPollutant
	highest := 0.0
	for _, p := range pollutantOrder {
		v, ok := c[p]
		if !ok || !(v > highest) {
			continue
		}
		highest = v
		best = pollutantLabels[p]
	}
	return best
}

// ColorFor returns the color band of a level. Unknown levels are green.
func ColorFor(level string) ColorBand {
	switch level {
	case LevelGood:
		return ColorGreen
	case LevelModerate:
		return ColorYellow
	case LevelUnhealthyForSensitiveGroups:
		return ColorOrange
	case LevelUnhealthy:
		return ColorRed
	case LevelVeryUnhealthy:
		return ColorPurple
	case LevelHazardous:
		return ColorRose
	default:
		return ColorGreen
	}
}
