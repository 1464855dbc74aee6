package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name      string
		available int
		total     int
		want      Status
	}{
		{"all copies free", 10, 10, StatusAvailable},
		{"one borrowed", 9, 10, StatusAvailable},
		{"at threshold is not low", 2, 10, StatusAvailable},
		{"below threshold", 1, 10, StatusLowStock},
		{"none free", 0, 10, StatusUnavailable},
		{"negative clamps to unavailable", -1, 10, StatusUnavailable},
		{"single copy free", 1, 1, StatusAvailable},
		{"single copy taken", 0, 1, StatusUnavailable},
		{"odd total low stock", 1, 7, StatusLowStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.available, tt.total))
		})
	}
}

func TestTakeCopy(t *testing.T) {
	it := &Item{TotalCopies: 10, Available: 10, Status: StatusAvailable}

	require.NoError(t, TakeCopy(it))
	assert.Equal(t, 9, it.Available)
	assert.Equal(t, StatusAvailable, it.Status)

	for i := 0; i < 8; i++ {
		require.NoError(t, TakeCopy(it))
	}
	assert.Equal(t, 1, it.Available)
	assert.Equal(t, StatusLowStock, it.Status)

	require.NoError(t, TakeCopy(it))
	assert.Equal(t, 0, it.Available)
	assert.Equal(t, StatusUnavailable, it.Status)

	err := TakeCopy(it)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Equal(t, 0, it.Available, "failed take must not mutate")
	assert.Equal(t, StatusUnavailable, it.Status)
}

func TestReturnCopy(t *testing.T) {
	it := &Item{TotalCopies: 6, Available: 0, Status: StatusUnavailable}

	ReturnCopy(it)
	assert.Equal(t, 1, it.Available)
	assert.Equal(t, StatusLowStock, it.Status, "1 of 6 is below the low-stock threshold")

	it.Available = 6
	it.Refresh()
	ReturnCopy(it)
	assert.Equal(t, 6, it.Available, "return at capacity saturates silently")
	assert.Equal(t, StatusAvailable, it.Status)
}

// Whatever sequence of takes and returns runs against an item, the copy
// count stays within bounds and the status always matches the counts.
func TestInventoryInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(1, 50).Draw(t, "total")
		it := &Item{TotalCopies: total, Available: total}
		it.Refresh()

		steps := rapid.IntRange(0, 200).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "take") {
				err := TakeCopy(it)
				if it.Available == 0 && err != nil {
					// only legal failure is out of stock
					if err != ErrOutOfStock {
						t.Fatalf("unexpected error: %v", err)
					}
				}
			} else {
				ReturnCopy(it)
			}

			if it.Available < 0 || it.Available > it.TotalCopies {
				t.Fatalf("available %d out of bounds [0,%d]", it.Available, it.TotalCopies)
			}
			if it.Status != StatusFor(it.Available, it.TotalCopies) {
				t.Fatalf("status %s does not match counts %d/%d", it.Status, it.Available, it.TotalCopies)
			}
		}
	})
}
