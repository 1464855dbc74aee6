// internal/catalog/inventory.go
package catalog

import "errors"

// ErrOutOfStock is returned when a copy is requested but none are free.
var ErrOutOfStock = errors.New("no available copies")

// TakeCopy commits one copy of the item to a borrower. It fails with
// ErrOutOfStock, leaving the item untouched, when nothing is free.
func TakeCopy(it *Item) error {
	if it.Available <= 0 {
		return ErrOutOfStock
	}
	it.Available--
	it.Refresh()
	return nil
}

// ReturnCopy releases one copy back to the pool. Returning at full
// capacity saturates silently: release runs from cleanup paths where a
// stray double-return must not corrupt the count.
func ReturnCopy(it *Item) {
	if it.Available < it.TotalCopies {
		it.Available++
	}
	it.Refresh()
}
