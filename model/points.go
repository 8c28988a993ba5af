package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Point is a sample location features are extracted around
type Point struct {
	ID     string  `csv:"id"`
	Lon    float64 `csv:"lon"`
	Lat    float64 `csv:"lat"`
	Region string  `csv:"region"`
	Year   int     `csv:"year"`
}

// Validate checks that the point has an ID and lies within lon/lat bounds
func (p Point) Validate() error {
	if p.ID == "" {
		return errors.New("point has no id")
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("point %s: longitude %v out of range", p.ID, p.Lon)
	}
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("point %s: latitude %v out of range", p.ID, p.Lat)
	}
	return nil
}

// Orb returns the point as an orb geometry
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}
