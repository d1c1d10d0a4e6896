package weather

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Missing is the placeholder rendered for an absent reading.
const Missing = "-"

// Temp is a rounded temperature that may be absent.
// It marshals as a JSON number, or as "-" when absent.
type Temp struct {
	Value int
	Valid bool
}

// TempOf rounds v into a Temp. nil, NaN, Inf and readings beyond
// ±math.MaxInt32 produce an absent Temp.
func TempOf(v *float64) Temp {
	if v == nil || math.IsNaN(*v) || math.Abs(*v) > math.MaxInt32 {
		return Temp{}
	}
	return Temp{Value: roundHalfUp(*v), Valid: true}
}

func (t Temp) String() string {
	if !t.Valid {
		return Missing
	}
	return strconv.Itoa(t.Value)
}

func (t Temp) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte(`"-"`), nil
	}
	return []byte(strconv.Itoa(t.Value)), nil
}

func (t *Temp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Temp{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == Missing || s == "" {
			*t = Temp{}
			return nil
		}
		data = []byte(s)
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("temperature %q: %w", data, err)
	}
	*t = TempOf(&v)
	return nil
}

// roundHalfUp rounds to the nearest integer with halves going towards +Inf.
// Results are clamped to the int32 range; NaN rounds to 0.
func roundHalfUp(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int(math.Floor(v + 0.5))
}

// Unit selects the temperature scale used for display.
type Unit string

const (
	Celsius    Unit = "c"
	Fahrenheit Unit = "f"
)

// ParseUnit accepts c, f, celsius or fahrenheit in any case. Empty means Celsius.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "c", "celsius":
		return Celsius, nil
	case "f", "fahrenheit":
		return Fahrenheit, nil
	default:
		return "", fmt.Errorf("unknown temperature unit %q", s)
	}
}

// FormatTemperature renders a day temperature in the chosen unit, e.g. "22°C".
func FormatTemperature(d DisplayDay, u Unit) string {
	t := d.TempC
	if u == Fahrenheit {
		t = d.TempF
	}
	if !t.Valid {
		return Missing
	}
	return fmt.Sprintf("%d°%s", t.Value, strings.ToUpper(string(u)))
}

// ApplyUnits records the display unit and fills each forecast day's Display
// label. The forecast slice is copied so stored snapshots are never mutated.
func (d *Dashboard) ApplyUnits(u Unit) {
	d.Units = u
	if d.Forecast == nil {
		return
	}
	days := make([]DisplayDay, len(d.Forecast))
	for i, day := range d.Forecast {
		day.Display = FormatTemperature(day, u)
		days[i] = day
	}
	d.Forecast = days
}
