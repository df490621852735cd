package calculator

import (
	"context"
	"math"
)

// DefaultMaxHorizon caps the reachability table at roughly 80MB per request.
const DefaultMaxHorizon = 10_000_000

type dpCalculator struct {
	maxHorizon int
}

// Option configures the calculator.
type Option func(*dpCalculator)

// WithMaxHorizon limits the largest search horizon a single request may
// allocate. Values outside (0, math.MaxInt32] are ignored.
func WithMaxHorizon(limit int) Option {
	return func(c *dpCalculator) {
		if limit > 0 && limit <= math.MaxInt32 {
			c.maxHorizon = limit
		}
	}
}

// New creates a Calculator based on dynamic programming.
func New(opts ...Option) Calculator {
	c := &dpCalculator{maxHorizon: DefaultMaxHorizon}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *dpCalculator) Fulfill(ctx context.Context, req Request) (Result, error) {
	instance, err := Normalize(req.Packs, req.Order)
	if err != nil {
		return Result{}, err
	}
	return c.solve(ctx, instance)
}

func (c *dpCalculator) CalculatePacks(ctx context.Context, items int, packSizes []int) (Result, error) {
	instance, err := NormalizeInts(packSizes, items)
	if err != nil {
		return Result{}, err
	}
	return c.solve(ctx, instance)
}

func (c *dpCalculator) solve(ctx context.Context, instance Instance) (Result, error) {
	largest := instance.Sizes[len(instance.Sizes)-1]
	if instance.Order > c.maxHorizon || largest > c.maxHorizon-instance.Order+1 {
		return Result{}, invalidInput("order %d with largest pack %d exceeds the search limit of %d items",
			instance.Order, largest, c.maxHorizon)
	}
	horizon := Horizon(instance.Order, instance.Sizes)

	table, err := Solve(ctx, instance.Sizes, horizon)
	if err != nil {
		return Result{}, err
	}

	plan, total, err := Reconstruct(table, instance.Order)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Order:      instance.Order,
		Plan:       plan,
		TotalItems: total,
		TotalPacks: table.Cost(total),
		Excess:     total - instance.Order,
		Horizon:    horizon,
	}, nil
}
