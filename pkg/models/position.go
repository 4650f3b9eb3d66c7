package models

import (
	"fmt"
)

// Position is the held exposure to the spread at the close of a step.
type Position int

const (
	PositionShortSpread Position = -1
	PositionFlat        Position = 0
	PositionLongSpread  Position = 1
)

func (p Position) String() string {
	switch p {
	case PositionShortSpread:
		return "short_spread"
	case PositionFlat:
		return "flat"
	case PositionLongSpread:
		return "long_spread"
	default:
		return fmt.Sprintf("position(%d)", int(p))
	}
}

func (p Position) Valid() bool {
	return p >= PositionShortSpread && p <= PositionLongSpread
}
