// Package calculator decides how many packs of each size to ship for an order.
//
// A request is normalized into distinct positive pack sizes, a search horizon
// of order + largest pack - 1 is derived, and an unbounded coin-change table is
// filled up to that horizon. The smallest reachable total at or above the order
// is chosen (least excess) and expanded into per-size counts, which is also the
// least number of packs for that total. Calculations hold no shared state and
// may run concurrently.
package calculator
