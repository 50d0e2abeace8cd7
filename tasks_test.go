package pricewatch

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDailyPrice(t *testing.T) {
	config := DefaultConfig()
	config.PriceTracking.SearchTerm = "iphone 15 pink 256GB"
	store := &memoryStore{grid: NewGrid([][]string{
		{"Product", "Lowest Price", "30-04-2024"},
		{"Telefon mobil Apple iPhone 15, 256GB, 5G, Pink", "", "6.199,99 Lei"},
	})}
	source := &scriptedSource{snapshots: [][]Candidate{iphoneResults}}

	obs, err := DailyPrice(context.Background(), config, source, store, DiscardLogger{})
	require.NoError(t, err)
	require.Equal(t, "5.999,99 Lei", obs.Price)

	grid := store.grid
	day := time.Now().Format(DefaultDateLayout)
	require.Equal(t, day, grid.Cell(HeaderRow, 4))
	require.Equal(t, "5.999,99 Lei", grid.Cell(2, 4))
	require.Equal(t, "5.999,99 Lei", grid.Cell(2, LowestColumn))
	require.Len(t, store.saves, 2, "record and recompute save once each")
}

func TestDailyPrice_sourceUnreachable(t *testing.T) {
	store := &memoryStore{}
	source := &scriptedSource{errs: []error{context.DeadlineExceeded}}
	_, err := DailyPrice(context.Background(), DefaultConfig(), source, store, DiscardLogger{})
	require.ErrorAs(t, err, &SourceUnreachableError{})
	require.Empty(t, store.saves)
}

// rowAddingSource appends a row to the store's grid on its first snapshot,
// as if the workbook was edited while the watcher waited.
type rowAddingSource struct {
	*scriptedSource
	store *memoryStore
	row   []string
}

func (source rowAddingSource) Snapshot(ctx context.Context) ([]Candidate, error) {
	if source.calls == 0 {
		source.store.grid = NewGrid(append(source.store.grid.Rows(), source.row))
	}
	return source.scriptedSource.Snapshot(ctx)
}

func TestDailyPrice_loadsAfterWait(t *testing.T) {
	store := &memoryStore{grid: NewGrid([][]string{{"Product", "Lowest Price"}})}
	source := rowAddingSource{
		scriptedSource: &scriptedSource{snapshots: [][]Candidate{iphoneResults}},
		store:          store,
		row:            []string{"Husa iPhone 15", "", ""},
	}

	_, err := DailyPrice(context.Background(), DefaultConfig(), source, store, DiscardLogger{})
	require.NoError(t, err)
	require.Equal(t, "Husa iPhone 15", store.grid.Cell(2, 1), "row added during the wait is kept")
	require.Equal(t, "Telefon mobil Apple iPhone 15, 256GB, 5G, Pink", store.grid.Cell(3, 1))
}

func TestDailyPrice_loadError(t *testing.T) {
	store := &memoryStore{loadErr: PersistenceError{"price.xlsx", "open", errors.New("locked")}}
	source := &scriptedSource{snapshots: [][]Candidate{iphoneResults}}

	_, err := DailyPrice(context.Background(), DefaultConfig(), source, store, DiscardLogger{})
	require.ErrorAs(t, err, &PersistenceError{})
	require.Equal(t, 1, source.calls, "the listing is polled before the workbook is read")
	require.Empty(t, store.saves)
}

func TestBackInStock(t *testing.T) {
	config := DefaultConfig()
	logger := BufferedLogger{}
	source := &scriptedSource{snapshots: [][]Candidate{{
		{Title: "Oglinda BMW E46", Price: "$40.00"},
		{Title: "BMW M7658 Genuine Part", Price: "$129.99", URL: "https://www.ebay.com/itm/1"},
	}}}

	obs, err := BackInStock(context.Background(), config, source, &logger)
	require.NoError(t, err)
	require.Equal(t, "https://www.ebay.com/itm/1", obs.URL)
	require.True(t, strings.Contains(logger.String(), "back in stock: BMW M7658 Genuine Part"), logger.String())
}

func TestStockCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products_data.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetCellStr("Sheet1", "A1", "URL"))
	require.NoError(t, f.SetCellStr("Sheet1", "A2", productInStock))
	require.NoError(t, f.SetCellStr("Sheet1", "A3", productGone))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	config := DefaultConfig()
	config.StockCheck.Path = path
	config.StockCheck.PageSettleMillis = 0
	config.StockCheck.ResealedWaitMillis = 0

	require.NoError(t, StockCheck(context.Background(), config, stockAgent(), DiscardLogger{}))

	grid, err := (&ExcelStore{Path: path, ActiveSheet: true}).Load()
	require.NoError(t, err)
	require.Equal(t, []string{productInStock, "4.199 Lei", "3.899 Lei"}, grid.Rows()[1])
	require.Equal(t, []string{productGone, "-", "-"}, grid.Rows()[2])
}

func TestNewChallenge(t *testing.T) {
	config := DefaultConfig()
	config.OutputDir = "out"
	challenge := NewChallenge(config, newFakeAgent(), nil, DiscardLogger{})
	require.Equal(t, "https://rpachallenge.com/", challenge.SiteURL)
	require.Equal(t, "https://rpachallenge.com/assets/downloadFiles/challenge.xlsx", challenge.SpreadsheetURL)
	require.Equal(t, "out", challenge.OutputDir)
}
