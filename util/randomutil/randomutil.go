package randomutil

import (
	"math/rand"
)

// RandomGenerator yields pseudo random numbers in [0.0,1.0).
type RandomGenerator interface {
	GenerateFloat64() float64
}

type RandomNumberGenerator struct{}

func (RandomNumberGenerator) GenerateFloat64() float64 {
	return rand.Float64()
}
