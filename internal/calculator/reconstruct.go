package calculator

// Reconstruct picks the smallest reachable total in [order, horizon] and walks
// the table's back-pointers down to zero, counting packs per size. It returns
// the plan together with the chosen total.
func Reconstruct(table *Table, order int) (Plan, int, error) {
	best := -1
	for total := max(order, 0); total <= table.Horizon(); total++ {
		if table.Reachable(total) {
			best = total
			break
		}
	}
	if best == -1 {
		return nil, 0, infeasible("no combination of pack sizes covers %d items within %d", order, table.Horizon())
	}

	plan := make(Plan)
	for remaining := best; remaining > 0; {
		size := table.Last(remaining)
		if size <= 0 || size > remaining {
			return nil, 0, infeasible("broken back-pointer at total %d", remaining)
		}
		plan[size]++
		remaining -= size
	}

	return plan, best, nil
}
