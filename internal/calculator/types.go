package calculator

import (
	"context"
	"sort"
)

// Request is the raw fulfillment request as entered by a user. Values are
// floats so that fractional input can be detected and discarded.
type Request struct {
	Packs []float64 `json:"packs"`
	Order float64   `json:"order"`
}

// Plan maps a pack size to the number of packs of that size to ship.
type Plan map[int]int

// TotalItems returns the number of items shipped by the plan.
func (p Plan) TotalItems() int {
	total := 0
	for size, count := range p {
		total += size * count
	}
	return total
}

// TotalPacks returns the number of packs shipped by the plan.
func (p Plan) TotalPacks() int {
	total := 0
	for _, count := range p {
		total += count
	}
	return total
}

// Sizes returns the pack sizes used by the plan in ascending order.
func (p Plan) Sizes() []int {
	sizes := make([]int, 0, len(p))
	for size, count := range p {
		if count > 0 {
			sizes = append(sizes, size)
		}
	}
	sort.Ints(sizes)
	return sizes
}

// Result summarises a successful calculation.
// TotalPacks and TotalItems are derived from Plan; Excess is TotalItems - Order.
type Result struct {
	Order      int
	Plan       Plan
	TotalItems int
	TotalPacks int
	Excess     int
	Horizon    int
}

// Calculator describes the behaviour required from a pack calculator.
type Calculator interface {
	Fulfill(ctx context.Context, req Request) (Result, error)
	CalculatePacks(ctx context.Context, items int, packSizes []int) (Result, error)
}
