package series

import (
	"math"
	"math/rand/v2"
)

const (
	generatedPoints = 100
	generatedStep   = 0.01
)

// Generate returns a synthetic series sampled at t = 0, 0.01, ..., 0.99: a gaussian
// density bump with mean m and deviation s plus gaussian noise scaled by j.
func Generate(rnd *rand.Rand, name string, m, s, j float64) *Series {
	ret := &Series{
		Name:   name,
		Times:  make([]float64, generatedPoints),
		Values: make([]float64, generatedPoints),
	}
	for i := 0; i < generatedPoints; i++ {
		t := float64(i) * generatedStep
		ret.Times[i] = t
		ret.Values[i] = normPDF(t, m, s) + j*rnd.NormFloat64()
	}
	return ret
}

func normPDF(x, m, s float64) float64 {
	z := (x - m) / s
	return math.Exp(-0.5*z*z) / (s * math.Sqrt(2*math.Pi))
}
