package weather

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempOf(t *testing.T) {
	assert.Equal(t, Temp{}, TempOf(nil))
	assert.Equal(t, Temp{}, TempOf(ptr(math.NaN())))
	assert.Equal(t, Temp{}, TempOf(ptr(math.Inf(1))))
	assert.Equal(t, Temp{Value: 22, Valid: true}, TempOf(ptr(21.5)))
	assert.Equal(t, Temp{Value: -2, Valid: true}, TempOf(ptr(-2.5)))
}

func TestTemp_JSON(t *testing.T) {
	day := DisplayDay{DayLabel: "Mon", TempF: Temp{72, true}, Condition: "sunny"}

	data, err := json.Marshal(day)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"","day":"Mon","temp":72,"tempC":"-","condition":"sunny"}`, string(data))

	var back DisplayDay
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, day, back)
}

func TestTemp_UnmarshalVariants(t *testing.T) {
	tests := []struct {
		in   string
		want Temp
	}{
		{`null`, Temp{}},
		{`"-"`, Temp{}},
		{`""`, Temp{}},
		{`"18"`, Temp{18, true}},
		{`17.6`, Temp{18, true}},
	}
	for _, tt := range tests {
		var got Temp
		require.NoError(t, json.Unmarshal([]byte(tt.in), &got), tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	var bad Temp
	assert.Error(t, json.Unmarshal([]byte(`"warm"`), &bad))
}

func TestParseUnit(t *testing.T) {
	for _, in := range []string{"", "c", "C", "celsius"} {
		u, err := ParseUnit(in)
		require.NoError(t, err)
		assert.Equal(t, Celsius, u)
	}
	for _, in := range []string{"f", "F", "Fahrenheit"} {
		u, err := ParseUnit(in)
		require.NoError(t, err)
		assert.Equal(t, Fahrenheit, u)
	}
	_, err := ParseUnit("kelvin")
	assert.Error(t, err)
}

func TestFormatTemperature(t *testing.T) {
	day := DisplayDay{TempF: Temp{72, true}, TempC: Temp{22, true}}
	assert.Equal(t, "22°C", FormatTemperature(day, Celsius))
	assert.Equal(t, "72°F", FormatTemperature(day, Fahrenheit))

	placeholder := DisplayDay{}
	assert.Equal(t, "-", FormatTemperature(placeholder, Celsius))
	assert.Equal(t, "-", FormatTemperature(placeholder, Fahrenheit))
}

func TestApplyUnits(t *testing.T) {
	d := Dashboard{Forecast: []DisplayDay{
		{TempF: Temp{72, true}, TempC: Temp{22, true}},
		{},
	}}

	d.ApplyUnits(Fahrenheit)
	assert.Equal(t, Fahrenheit, d.Units)
	assert.Equal(t, "72°F", d.Forecast[0].Display)
	assert.Equal(t, "-", d.Forecast[1].Display)
}

func TestTempOf_OutOfRangeIsAbsent(t *testing.T) {
	assert.Equal(t, Temp{}, TempOf(ptr(1e20)))
	assert.Equal(t, Temp{}, TempOf(ptr(-1e300)))
	assert.Equal(t, Missing, TempOf(ptr(1e20)).String())
	assert.Equal(t, Temp{Value: math.MaxInt32, Valid: true}, TempOf(ptr(math.MaxInt32)))
}

func TestRoundHalfUp_Clamps(t *testing.T) {
	assert.Equal(t, math.MaxInt32, roundHalfUp(1e20))
	assert.Equal(t, math.MinInt32, roundHalfUp(-1e300))
	assert.Equal(t, 0, roundHalfUp(math.NaN()))
	assert.Equal(t, 0, roundHalfUp(-0.5))
}
