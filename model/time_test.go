package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseSTACTime(t *testing.T) {
	expected := time.Date(2017, 4, 11, 5, 36, 29, 349932000, time.UTC)

	for _, input := range []string{
		"2017-04-11T05:36:29.349932Z",
		"2017-04-11T05:36:29.349932+00:00",
		"2017-04-11T05:36:29.349932",
	} {
		parsed, err := ParseSTACTime(input)
		assert.Nil(t, err, input)
		assert.True(t, expected.Equal(parsed), input)
	}

	parsed, err := ParseSTACTime("2017-04-11")
	assert.Nil(t, err)
	assert.Equal(t, 11, parsed.Day())

	_, err = ParseSTACTime("yesterday")
	assert.NotNil(t, err)
}

func TestFormatSTACInterval(t *testing.T) {
	start, end := YearInterval(2019)

	assert.Equal(t, "2019-01-01T00:00:00Z/2019-12-31T23:59:59Z", FormatSTACInterval(start, end))
	assert.Equal(t, "../2019-12-31T23:59:59Z", FormatSTACInterval(time.Time{}, end))
	assert.Equal(t, "2019-01-01T00:00:00Z/..", FormatSTACInterval(start, time.Time{}))
}

func TestPoint_Validate(t *testing.T) {
	assert.Nil(t, Point{ID: "a", Lon: 10, Lat: 20}.Validate())
	assert.NotNil(t, Point{Lon: 10, Lat: 20}.Validate())
	assert.NotNil(t, Point{ID: "a", Lon: 181, Lat: 20}.Validate())
	assert.NotNil(t, Point{ID: "a", Lon: 10, Lat: -91}.Validate())
	assert.NotNil(t, Point{ID: "a", Lon: math.NaN(), Lat: 20}.Validate())
	assert.NotNil(t, Point{ID: "a", Lon: 10, Lat: math.NaN()}.Validate())
}
