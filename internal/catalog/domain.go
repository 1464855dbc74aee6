// internal/catalog/domain.go
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Status classifies an item's availability from its copy counts.
type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusLowStock    Status = "LOW_STOCK"
	StatusUnavailable Status = "UNAVAILABLE"
)

// lowStockFraction is the share of total copies below which an item
// is flagged as low stock.
const lowStockFraction = 0.2

// StatusFor classifies availability. An item with no free copies is
// UNAVAILABLE; fewer than 20% free is LOW_STOCK; anything else AVAILABLE.
func StatusFor(available, total int) Status {
	switch {
	case available <= 0:
		return StatusUnavailable
	case float64(available) < float64(total)*lowStockFraction:
		return StatusLowStock
	default:
		return StatusAvailable
	}
}

// Item represents a catalogued title with a bounded copy count.
type Item struct {
	ID          uuid.UUID `json:"id"`
	ISBN        string    `json:"isbn,omitempty"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	TotalCopies int       `json:"total_copies"`
	Available   int       `json:"available"`
	Status      Status    `json:"status"`
	Retired     bool      `json:"retired,omitempty"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Refresh recomputes the derived status from the current counts. It must
// run after every write to Available or TotalCopies.
func (it *Item) Refresh() {
	it.Status = StatusFor(it.Available, it.TotalCopies)
}

// ItemAddedEvent is published when a new item is added.
type ItemAddedEvent struct {
	ID          uuid.UUID `json:"id"`
	ISBN        string    `json:"isbn,omitempty"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	TotalCopies int       `json:"total_copies"`
}

// CopiesAdjustedEvent is published when an item's copy counts are edited
// through the catalog. Inventory effects of reservation transitions are
// carried by the transition's own event.
type CopiesAdjustedEvent struct {
	ID           uuid.UUID `json:"id"`
	NewTotal     int       `json:"new_total"`
	NewAvailable int       `json:"new_available"`
	NewStatus    Status    `json:"new_status"`
}

// ItemRetiredEvent is published when an item is retired from the catalog.
type ItemRetiredEvent struct {
	ID uuid.UUID `json:"id"`
}
