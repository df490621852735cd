package calculator

import (
	"math"
	"sort"
)

// maxExactValue is the largest integer a float64 represents without gaps.
const maxExactValue = 1 << 53

// Instance is a validated problem: distinct positive pack sizes in ascending
// order and a positive order quantity.
type Instance struct {
	Sizes []int
	Order int
}

// Normalize validates raw input and canonicalizes it into an Instance.
// Non-positive, non-integral and non-finite pack sizes are dropped; the rest are
// deduplicated and sorted ascending.
func Normalize(packs []float64, order float64) (Instance, error) {
	if !isWholeNumber(order) || order <= 0 {
		return Instance{}, invalidInput("order must be a positive integer, got %v", order)
	}
	if order > maxExactValue {
		return Instance{}, invalidInput("order %v exceeds the supported range", order)
	}

	unique := make(map[int]struct{}, len(packs))
	for _, value := range packs {
		if !isWholeNumber(value) || value <= 0 {
			continue
		}
		if value > maxExactValue {
			return Instance{}, invalidInput("pack size %v exceeds the supported range", value)
		}
		unique[int(value)] = struct{}{}
	}
	if len(unique) == 0 {
		return Instance{}, invalidInput("at least one positive integer pack size must be provided")
	}

	sizes := make([]int, 0, len(unique))
	for size := range unique {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)

	return Instance{Sizes: sizes, Order: int(order)}, nil
}

// NormalizeInts is Normalize for callers that already hold integers.
func NormalizeInts(packs []int, order int) (Instance, error) {
	raw := make([]float64, len(packs))
	for i, size := range packs {
		raw[i] = float64(size)
	}
	return Normalize(raw, float64(order))
}

func isWholeNumber(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v == math.Trunc(v)
}
