package pricewatch

import "time"

// DefaultDateLayout renders header dates as DD-MM-YYYY.
const DefaultDateLayout = "02-01-2006"

// Recorder writes price observations into a price grid.
type Recorder struct {
	Store      GridStore
	DateLayout string
	Log        Logger
}

func NewRecorder(store GridStore, log Logger) *Recorder {
	return &Recorder{
		Store:      store,
		DateLayout: DefaultDateLayout,
		Log:        log,
	}
}

func (recorder *Recorder) layout() string {
	if recorder.DateLayout == "" {
		return DefaultDateLayout
	}
	return recorder.DateLayout
}

// Record stores rawPrice at (title, date), creating the product row and the
// date column when missing, then saves the grid. A second call for the same
// product and day overwrites the first.
func (recorder *Recorder) Record(grid *Grid, title, rawPrice string, date time.Time) error {
	day := date.Format(recorder.layout())

	col, ok := grid.FindDateColumn(day)
	if !ok {
		grid.SetCell(HeaderRow, col, day)
	}

	row, ok := grid.FindRow(title)
	if !ok {
		grid.SetCell(row, TitleColumn, title)
	}

	grid.SetCell(row, col, rawPrice)

	if err := recorder.Store.Save(grid); err != nil {
		return err
	}
	recorder.Log.Printf("recorded %q = %q at row %d column %d (%v)", title, rawPrice, row, col, day)
	return nil
}

// RecordObservation is Record for a watch result.
func (recorder *Recorder) RecordObservation(grid *Grid, obs Observation) error {
	return recorder.Record(grid, obs.Title, obs.Price, obs.Date)
}
