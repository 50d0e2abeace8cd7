package pricewatch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Unavailable is written when no price could be read.
const Unavailable = "-"

// Stock grid layout.
const (
	URLColumn       = 1 // A
	PrimaryColumn   = 2 // B
	SecondaryColumn = 3 // C
)

// StockSelectors locate the stock and price elements on a product page.
type StockSelectors struct {
	StockMarker    string `json:"stock_marker"`
	StockText      string `json:"stock_text"`
	Price          string `json:"price"`
	ResealedButton string `json:"resealed_button"`
	ResealedPrice  string `json:"resealed_price"`
}

var AltexSelectors = StockSelectors{
	StockMarker:    ElementWithText("div", "in stoc"),
	StockText:      "in stoc",
	Price:          "div.leading-none span span.Price-int",
	ResealedButton: `a[href="#resigilate"]`,
	ResealedPrice:  "#resigilate > ul > li:nth-child(1) span.Price-int",
}

// StockRow is one product URL of a stock grid. Err is set when the cell
// does not hold an absolute http(s) URL.
type StockRow struct {
	Row int
	URL string
	Err error
}

// StockRows reads the URLs of a stock grid in row order. Rows with an empty
// URL are left out.
func StockRows(grid *Grid) []StockRow {
	var rows []StockRow
	for row := FirstDataRow; row <= grid.MaxRow(); row++ {
		raw := strings.TrimSpace(grid.Cell(row, URLColumn))
		if raw == "" {
			continue
		}
		rows = append(rows, StockRow{Row: row, URL: raw, Err: checkProductURL(row, raw)})
	}
	return rows
}

func checkProductURL(row int, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return RecordFieldError{row, "url", err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return RecordFieldError{row, "url", fmt.Errorf("%q is not an absolute http(s) URL", raw)}
	}
	return nil
}

// StockResult holds the two values written for a row.
type StockResult struct {
	Primary   string
	Secondary string
}

// StockChecker visits every product URL of a stock grid and writes the
// current and resealed prices next to it.
type StockChecker struct {
	Agent        WebAgent
	Store        GridStore
	Selectors    StockSelectors
	Currency     string
	ProbeTimeout time.Duration
	PageSettle   time.Duration // wait after navigation
	ResealedWait time.Duration // wait after opening the resealed tab
	Sleeper      Sleeper
	Log          Logger
}

func NewStockChecker(agent WebAgent, store GridStore, log Logger) *StockChecker {
	return &StockChecker{
		Agent:        agent,
		Store:        store,
		Selectors:    AltexSelectors,
		Currency:     DefaultCurrency,
		ProbeTimeout: DefaultProbeTimeout,
		PageSettle:   2 * time.Second,
		ResealedWait: time.Second,
		Sleeper:      RealSleeper{},
		Log:          log,
	}
}

func (checker *StockChecker) probeTimeout() time.Duration {
	if checker.ProbeTimeout == 0 {
		return DefaultProbeTimeout
	}
	return checker.ProbeTimeout
}

func (checker *StockChecker) price(amount string) string {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return Unavailable
	}
	return WithCurrency(amount, checker.Currency)
}

// Primary reads the regular stock price of the current page.
func (checker *StockChecker) Primary(ctx context.Context) (string, error) {
	stock, err := ProbeText(ctx, checker.Agent, checker.Selectors.StockMarker, checker.probeTimeout())
	if err != nil {
		return "", err
	}
	checker.Log.Printf("stock element found: %v", strings.TrimSpace(stock))
	if checker.Selectors.StockText != "" && !strings.Contains(strings.ToLower(stock), strings.ToLower(checker.Selectors.StockText)) {
		return "", ProbeError{Selector: checker.Selectors.StockMarker, Kind: ElementNotFound, Err: fmt.Errorf("stock text %q", stock)}
	}
	amount, err := ProbeText(ctx, checker.Agent, checker.Selectors.Price, checker.probeTimeout())
	if err != nil {
		return "", err
	}
	return checker.price(amount), nil
}

// Secondary opens the resealed offers and reads the first price.
func (checker *StockChecker) Secondary(ctx context.Context) (string, error) {
	if err := ClickSelector(ctx, checker.Agent, checker.Selectors.ResealedButton, checker.probeTimeout()); err != nil {
		return "", err
	}
	checker.Log.Printf("resealed button clicked")
	if err := checker.Sleeper.Sleep(ctx, checker.ResealedWait); err != nil {
		return "", err
	}
	amount, err := ProbeText(ctx, checker.Agent, checker.Selectors.ResealedPrice, checker.probeTimeout())
	if err != nil {
		return "", err
	}
	return checker.price(amount), nil
}

// sentinel maps a probe outcome to the value written into the grid. Only
// context errors escape.
func (checker *StockChecker) sentinel(ctx context.Context, what, value string, err error) (string, error) {
	if err == nil {
		checker.Log.Printf("%v price: %v", what, value)
		return value, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	var probe ProbeError
	if errors.As(err, &probe) {
		checker.Log.Printf("%v not available: %v", what, probe.Kind)
	} else {
		checker.Log.Printf("error checking %v: %v", what, err)
	}
	return Unavailable, nil
}

// CheckURL probes one product page. Probe failures become Unavailable.
func (checker *StockChecker) CheckURL(ctx context.Context, productURL string) (StockResult, error) {
	result := StockResult{Unavailable, Unavailable}
	if err := checker.Agent.Navigate(ctx, productURL); err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		checker.Log.Printf("navigation failed: %v", err)
		return result, nil
	}
	if err := checker.Sleeper.Sleep(ctx, checker.PageSettle); err != nil {
		return result, err
	}

	value, err := checker.Primary(ctx)
	if result.Primary, err = checker.sentinel(ctx, "stock", value, err); err != nil {
		return result, err
	}
	value, err = checker.Secondary(ctx)
	if result.Secondary, err = checker.sentinel(ctx, "resealed", value, err); err != nil {
		return result, err
	}
	return result, nil
}

// Check processes every row and saves the grid after each one. A row with
// an invalid URL is marked Unavailable and the batch goes on. The messages
// of a row are written to Log as one block once the row is saved.
func (checker *StockChecker) Check(ctx context.Context, grid *Grid) error {
	rows := StockRows(grid)
	for _, row := range rows {
		rowLog := BufferedLogger{}
		err := checker.checkRow(ctx, grid, row, &rowLog)
		rowLog.Flush(checker.Log)
		if err != nil {
			return err
		}
	}
	checker.Log.Printf("finished processing %d URLs", len(rows))
	return nil
}

func (checker *StockChecker) checkRow(ctx context.Context, grid *Grid, row StockRow, log Logger) error {
	rowChecker := *checker
	rowChecker.Log = log

	log.Printf("%v", row.URL)
	result := StockResult{Unavailable, Unavailable}
	if row.Err != nil {
		log.Printf("skipping row: %v", row.Err)
	} else {
		var err error
		if result, err = rowChecker.CheckURL(ctx, row.URL); err != nil {
			return err
		}
	}
	grid.SetCell(row.Row, PrimaryColumn, result.Primary)
	grid.SetCell(row.Row, SecondaryColumn, result.Secondary)
	if err := checker.Store.Save(grid); err != nil {
		return err
	}
	log.Printf("updated row %d for URL: %v", row.Row, row.URL)
	return nil
}
