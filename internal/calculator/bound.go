package calculator

// Horizon returns the largest total that can hold an optimal solution:
// order + largest pack size - 1. A plan shipping order + M or more items can
// always drop one pack and still cover the order with fewer packs and less
// excess, so nothing beyond this bound needs to be examined.
// sizes must be non-empty.
func Horizon(order int, sizes []int) int {
	largest := sizes[0]
	for _, size := range sizes[1:] {
		if size > largest {
			largest = size
		}
	}
	return order + largest - 1
}
