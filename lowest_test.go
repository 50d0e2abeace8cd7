package pricewatch

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLowestPrice_Recompute(t *testing.T) {
	store := &memoryStore{}
	grid := NewGrid([][]string{
		{"Product", "Lowest Price", "01-05-2024", "02-05-2024", "03-05-2024", "", "05-05-2024"},
		{"iPhone", "", "10,00 Lei", "8,50 Lei", "not a price", "", "1,00 Lei"},
		{"Galaxy", "stale", "", "-", "abc"},
		{"Pixel", "", "1.234,56 Lei", "1.300,00 Lei"},
		{""},
		{"hidden", "", "1,00 Lei"},
	})
	lowest := NewLowestPrice(store, "", DiscardLogger{})

	if err := lowest.Recompute(grid); err != nil {
		t.Fatal(err)
	}

	got := []string{grid.Cell(2, LowestColumn), grid.Cell(3, LowestColumn), grid.Cell(4, LowestColumn), grid.Cell(6, LowestColumn)}
	// the column past the empty header and the row past the empty title are not read
	want := []string{"8,50 Lei", "stale", "1.234,56 Lei", ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got)\n%v", diff)
	}
	if len(store.saves) != 1 {
		t.Errorf("saves = %v, want 1", len(store.saves))
	}
}

func TestLowestPrice_Lowest(t *testing.T) {
	grid := NewGrid([][]string{
		{"Product", "Lowest Price", "d1", "d2"},
		{"a", "", "not a price", ""},
		{"b", "", "2,00 Lei", "1,99 Lei"},
	})
	lowest := NewLowestPrice(&memoryStore{}, DefaultCurrency, DiscardLogger{})

	if _, ok := lowest.Lowest(grid, 2); ok {
		t.Errorf("row without prices reported a minimum")
	}
	min, ok := lowest.Lowest(grid, 3)
	if !ok || math.Abs(min-1.99) > 1e-9 {
		t.Errorf("Lowest() = %v, %v", min, ok)
	}
}

func TestLowestPrice_RecomputeIsStable(t *testing.T) {
	store := &memoryStore{}
	grid := NewGrid([][]string{
		{"Product", "Lowest Price", "d1"},
		{"a", "", "12,34 Lei"},
	})
	lowest := NewLowestPrice(store, DefaultCurrency, DiscardLogger{})
	if err := lowest.Recompute(grid); err != nil {
		t.Fatal(err)
	}
	first := grid.Rows()
	if err := lowest.Recompute(grid); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, grid.Rows()); diff != "" {
		t.Errorf("(-first +second)\n%v", diff)
	}
}
