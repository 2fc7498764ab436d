package series

import (
	"fmt"
	"math"
)

// Distance names accepted by NewDistance.
const (
	DistanceKernel    = "kcorr"
	DistanceEuclidean = "euclidean"
)

// Distance measures the dissimilarity of two series; smaller is more similar.
type Distance func(a, b *Series) float64

// NewDistance returns the distance registered under name.
// mult is the kernel multiplier and is ignored by the euclidean distance.
func NewDistance(name string, mult float64) (Distance, error) {
	switch name {
	case "", DistanceKernel:
		if mult == 0 {
			mult = 1
		}
		return func(a, b *Series) float64 {
			return KernelDistance(a, b, mult)
		}, nil
	case DistanceEuclidean:
		return Euclidean, nil
	}
	return nil, fmt.Errorf("series: unsupported distance %q", name)
}

// CrossCorrelation returns the circular cross-correlation of two equally sized
// vectors, normalized by their length: c[k] = 1/n * sum_j a[(j+k) mod n] * b[j].
func CrossCorrelation(a, b []float64) []float64 {
	n := len(a)
	out := make([]float64, n)
	if n == 0 || len(b) != n {
		return out
	}
	for k := 0; k < n; k++ {
		var sum float64
		for j := 0; j < n; j++ {
			sum += a[(j+k)%n] * b[j]
		}
		out[k] = sum / float64(n)
	}
	return out
}

// KernelCorrelation returns the kernelized cross-correlation of two standardized vectors,
// normalized so that a vector correlates with itself at 1.
func KernelCorrelation(a, b []float64, mult float64) float64 {
	kxy := kernel(CrossCorrelation(a, b), mult)
	kxx := kernel(CrossCorrelation(a, a), mult)
	kyy := kernel(CrossCorrelation(b, b), mult)
	if kxx == 0 || kyy == 0 {
		return 0
	}
	return kxy / math.Sqrt(kxx*kyy)
}

func kernel(ccor []float64, mult float64) float64 {
	var sum float64
	for _, c := range ccor {
		sum += math.Exp(mult * c)
	}
	return sum
}

// KernelDistance standardizes both series and returns 2*(1-kcorr).
// Series of different lengths are infinitely far apart.
func KernelDistance(a, b *Series, mult float64) float64 {
	if a.Len() != b.Len() || a.Len() == 0 {
		return math.Inf(1)
	}
	d := 2 * (1 - KernelCorrelation(a.Standardize(), b.Standardize(), mult))
	if d < 0 {
		// rounding around identical series
		return 0
	}
	return d
}

// Euclidean returns the L2 distance between the raw values.
func Euclidean(a, b *Series) float64 {
	if a.Len() != b.Len() {
		return math.Inf(1)
	}
	var sum float64
	for i := range a.Values {
		d := a.Values[i] - b.Values[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
