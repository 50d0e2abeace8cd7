package pricewatch

import "math"

// LowestPrice maintains the lowest price column of a price grid.
type LowestPrice struct {
	Store     GridStore
	Currency  string
	Formatter PriceFormatter
	Log       Logger
}

func NewLowestPrice(store GridStore, currency string, log Logger) *LowestPrice {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &LowestPrice{
		Store:     store,
		Currency:  currency,
		Formatter: NewPriceFormatter(currency),
		Log:       log,
	}
}

// Lowest returns the minimum parseable price of a row across the date
// columns. ok is false when no cell parsed.
func (lowest *LowestPrice) Lowest(grid *Grid, row int) (float64, bool) {
	min := math.Inf(1)
	found := false
	for col := FirstDateColumn; col < grid.DateColumnEnd(); col++ {
		value, err := ParsePrice(grid.Cell(row, col), lowest.Currency)
		if err != nil {
			continue
		}
		if value < min {
			min = value
		}
		found = true
	}
	return min, found
}

// Recompute rewrites the lowest price of every product row and saves the
// grid once. Rows without any parseable price keep their previous value.
func (lowest *LowestPrice) Recompute(grid *Grid) error {
	updated := 0
	for row := FirstDataRow; row < grid.RowEnd(); row++ {
		min, ok := lowest.Lowest(grid, row)
		if !ok {
			continue
		}
		grid.SetCell(row, LowestColumn, lowest.Formatter.Format(min))
		updated++
	}
	if err := lowest.Store.Save(grid); err != nil {
		return err
	}
	lowest.Log.Printf("lowest prices updated for %d products", updated)
	return nil
}
