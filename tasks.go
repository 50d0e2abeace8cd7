package pricewatch

import (
	"context"
	"os"
	"time"
)

// OpenSession returns an HTTP session for name whose cookies persist under
// config.SessionDir between runs.
func OpenSession(config Config, name string, log Logger) (*Session, error) {
	session := NewSession(name, log)
	if config.SessionDir == "" {
		return session, nil
	}
	session.FilePrefix = config.SessionDir + string(os.PathSeparator)
	if err := session.LoadCookie(); err != nil {
		return nil, PersistenceError{session.getDirectory(), "load cookies", err}
	}
	return session, nil
}

// PriceTrackingStore opens the price grid workbook, creating it on first use.
func PriceTrackingStore(config Config) *ExcelStore {
	return &ExcelStore{
		Path:            config.PriceTracking.Path,
		CreateIfMissing: true,
		NewHeader:       []string{"Product", "Lowest Price"},
	}
}

// DailyPrice waits until the configured search lists the wanted product,
// records today's price and refreshes the lowest price column.
func DailyPrice(ctx context.Context, config Config, source ListingSource, store GridStore, log Logger) (Observation, error) {
	interval := FixedInterval(time.Duration(config.PriceTracking.IntervalSeconds) * time.Second)
	watcher := NewWatcher(source, SearchKeywords(config.PriceTracking.SearchTerm), interval, log)
	obs, err := watcher.Poll(ctx)
	if err != nil {
		return Observation{}, err
	}

	// the wait can take hours; read the workbook as it is now
	grid, err := store.Load()
	if err != nil {
		return obs, err
	}

	recorder := NewRecorder(store, log)
	recorder.DateLayout = config.DateLayout
	if err := recorder.RecordObservation(grid, obs); err != nil {
		return obs, err
	}
	return obs, NewLowestPrice(store, config.Currency, log).Recompute(grid)
}

// BackInStock waits until a listing matching every configured keyword shows up.
func BackInStock(ctx context.Context, config Config, source ListingSource, log Logger) (Observation, error) {
	interval := RandomInterval{
		Min: time.Duration(config.BackInStock.MinIntervalSeconds) * time.Second,
		Max: time.Duration(config.BackInStock.MaxIntervalSeconds) * time.Second,
	}
	watcher := NewWatcher(source, Keywords(config.BackInStock.Keywords...), interval, log)
	obs, err := watcher.Poll(ctx)
	if err != nil {
		return Observation{}, err
	}
	log.Printf("back in stock: %v %v %v", obs.Title, obs.Price, obs.URL)
	return obs, nil
}

// StockCheck fills the stock and resealed price columns of the stock workbook.
func StockCheck(ctx context.Context, config Config, agent WebAgent, log Logger) error {
	store := &ExcelStore{Path: config.StockCheck.Path, ActiveSheet: true}
	grid, err := store.Load()
	if err != nil {
		return err
	}
	checker := NewStockChecker(agent, store, log)
	checker.Selectors = config.StockCheck.Selectors
	checker.Currency = config.Currency
	checker.ProbeTimeout = time.Duration(config.StockCheck.ProbeTimeoutMillis) * time.Millisecond
	checker.PageSettle = time.Duration(config.StockCheck.PageSettleMillis) * time.Millisecond
	checker.ResealedWait = time.Duration(config.StockCheck.ResealedWaitMillis) * time.Millisecond
	return checker.Check(ctx, grid)
}

func NewChallenge(config Config, agent WebAgent, session *Session, log Logger) *Challenge {
	return &Challenge{
		Agent:          agent,
		Session:        session,
		SiteURL:        config.Challenge.SiteURL,
		SpreadsheetURL: config.Challenge.SpreadsheetURL,
		OutputDir:      config.OutputDir,
		Log:            log,
	}
}
