package calculator

import (
	"context"
	"fmt"
)

const (
	unreachable int32 = -1

	// cancelCheckInterval is how many totals are filled between context checks.
	cancelCheckInterval = 1 << 12
)

// Table records, for every total in [0, horizon], the minimum number of packs
// summing exactly to it and the pack size last added to get there.
type Table struct {
	cost []int32
	last []int32
}

// Horizon returns the largest total held by the table.
func (t *Table) Horizon() int {
	return len(t.cost) - 1
}

// Reachable reports whether total can be formed exactly.
func (t *Table) Reachable(total int) bool {
	return total >= 0 && total < len(t.cost) && t.cost[total] != unreachable
}

// Cost returns the minimum pack count for total, or -1 when unreachable.
func (t *Table) Cost(total int) int {
	if total < 0 || total >= len(t.cost) {
		return int(unreachable)
	}
	return int(t.cost[total])
}

// Last returns the pack size last added to reach total, or 0 when there is none.
func (t *Table) Last(total int) int {
	if total < 0 || total >= len(t.last) {
		return 0
	}
	return int(t.last[total])
}

// Solve fills the reachability table for totals 0..horizon using unlimited
// packs of each size. sizes must be sorted ascending; on equal cost the
// smallest size wins. The context is checked between totals.
func Solve(ctx context.Context, sizes []int, horizon int) (*Table, error) {
	if horizon < 0 {
		return nil, fmt.Errorf("negative horizon %d", horizon)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fill reachability table: %w", err)
	}

	table := &Table{
		cost: make([]int32, horizon+1),
		last: make([]int32, horizon+1),
	}

	for total := 1; total <= horizon; total++ {
		if total%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("fill reachability table at total %d: %w", total, err)
			}
		}

		best := unreachable
		var bestSize int32
		for _, size := range sizes {
			if size > total {
				break
			}
			prev := table.cost[total-size]
			if prev == unreachable {
				continue
			}
			if best == unreachable || prev+1 < best {
				best = prev + 1
				bestSize = int32(size)
			}
		}
		table.cost[total] = best
		table.last[total] = bestSize
	}

	return table, nil
}
