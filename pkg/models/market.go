package models

import (
	"time"
)

type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

func (s PriceSeries) Len() int {
	return len(s.Points)
}

func (s PriceSeries) Values() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Price
	}
	return values
}

// AlignedPair is two price histories on one shared, strictly increasing index.
type AlignedPair struct {
	SymbolA string
	SymbolB string
	Times   []time.Time
	A       []float64
	B       []float64
}

func (p AlignedPair) Len() int {
	return len(p.Times)
}
