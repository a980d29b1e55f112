package aggregation

import (
	"fmt"
	"math"
)

// Scale maps a domain value to a range value, like the glyph scales of the calendar.
type Scale interface {
	Map(v float64) float64
	Domain() Extent
}

// LinearScale maps [Domain.Min, Domain.Max] linearly onto [RangeMin, RangeMax].
type LinearScale struct {
	domain             Extent
	rangeMin, rangeMax float64
}

// NewLinearScale builds a linear scale. A degenerate domain maps everything to rangeMax.
func NewLinearScale(domain Extent, rangeMin, rangeMax float64) *LinearScale {
	return &LinearScale{domain: domain, rangeMin: rangeMin, rangeMax: rangeMax}
}

// Map implements Scale.
func (s *LinearScale) Map(v float64) float64 {
	span := s.domain.Max - s.domain.Min
	if span == 0 {
		return s.rangeMax
	}
	return s.rangeMin + (v-s.domain.Min)/span*(s.rangeMax-s.rangeMin)
}

// Domain implements Scale.
func (s *LinearScale) Domain() Extent { return s.domain }

// LogScale maps a strictly positive domain logarithmically onto a range.
type LogScale struct {
	domain             Extent
	rangeMin, rangeMax float64
}

// NewLogScale rejects domains that touch zero; build them from LogAmountExtentPerDay.
func NewLogScale(domain Extent, rangeMin, rangeMax float64) (*LogScale, error) {
	if domain.Min <= 0 || domain.Max <= 0 {
		return nil, fmt.Errorf("%w: log scale domain [%v, %v] must be strictly positive", ErrInvalidArgument, domain.Min, domain.Max)
	}
	return &LogScale{domain: domain, rangeMin: rangeMin, rangeMax: rangeMax}, nil
}

// Map implements Scale. Values at or below zero clamp to rangeMin.
func (s *LogScale) Map(v float64) float64 {
	if v <= 0 {
		return s.rangeMin
	}
	lo, hi := math.Log(s.domain.Min), math.Log(s.domain.Max)
	if hi == lo {
		return s.rangeMax
	}
	return s.rangeMin + (math.Log(v)-lo)/(hi-lo)*(s.rangeMax-s.rangeMin)
}

// Domain implements Scale.
func (s *LogScale) Domain() Extent { return s.domain }
