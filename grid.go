package pricewatch

// Grid layout, 1-based like the spreadsheet it is loaded from.
const (
	HeaderRow       = 1
	FirstDataRow    = 2
	TitleColumn     = 1 // A: row key
	LowestColumn    = 2 // B: derived lowest price
	FirstDateColumn = 3 // C..: one column per observation date
)

// GridStore loads and saves a whole grid.
type GridStore interface {
	Load() (*Grid, error)
	Save(grid *Grid) error
}

// Grid is an in-memory copy of one worksheet.
//
// Row keys (column A from row 2) and date headers (row 1 from column C) are
// indexed on first lookup. Only the leading run of non-empty cells is indexed:
// the first empty cell ends the table, exactly like a linear scan would.
type Grid struct {
	cells [][]string
	index *gridIndex
}

type gridIndex struct {
	rows      map[string]int
	rowEnd    int
	columns   map[string]int
	columnEnd int
}

func NewGrid(cells [][]string) *Grid {
	copied := make([][]string, len(cells))
	for i, row := range cells {
		copied[i] = append([]string(nil), row...)
	}
	return &Grid{cells: copied}
}

// NewPriceGrid returns an empty price grid with its header labels.
func NewPriceGrid(titleLabel, lowestLabel string) *Grid {
	return NewGrid([][]string{{titleLabel, lowestLabel}})
}

func (grid *Grid) Cell(row, col int) string {
	if row < 1 || col < 1 || row > len(grid.cells) {
		return ""
	}
	r := grid.cells[row-1]
	if col > len(r) {
		return ""
	}
	return r[col-1]
}

func (grid *Grid) SetCell(row, col int, value string) {
	if row < 1 || col < 1 {
		panic("pricewatch: grid coordinates are 1-based")
	}
	for len(grid.cells) < row {
		grid.cells = append(grid.cells, nil)
	}
	r := grid.cells[row-1]
	for len(r) < col {
		r = append(r, "")
	}
	r[col-1] = value
	grid.cells[row-1] = r

	if row == HeaderRow || col == TitleColumn {
		grid.index = nil
	}
}

// MaxRow is the last row holding any cell, 0 for an empty grid.
func (grid *Grid) MaxRow() int {
	return len(grid.cells)
}

// MaxColumn is the widest row's length.
func (grid *Grid) MaxColumn() int {
	n := 0
	for _, r := range grid.cells {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// Rows returns a copy of the cells, row by row.
func (grid *Grid) Rows() [][]string {
	return NewGrid(grid.cells).cells
}

func (grid *Grid) ensureIndex() *gridIndex {
	if grid.index != nil {
		return grid.index
	}
	index := &gridIndex{
		rows:    map[string]int{},
		columns: map[string]int{},
	}
	row := FirstDataRow
	for ; grid.Cell(row, TitleColumn) != ""; row++ {
		title := grid.Cell(row, TitleColumn)
		if _, ok := index.rows[title]; !ok {
			index.rows[title] = row
		}
	}
	index.rowEnd = row

	col := FirstDateColumn
	for ; grid.Cell(HeaderRow, col) != ""; col++ {
		date := grid.Cell(HeaderRow, col)
		if _, ok := index.columns[date]; !ok {
			index.columns[date] = col
		}
	}
	index.columnEnd = col

	grid.index = index
	return index
}

// FindRow returns the row keyed by title. If the title is unknown it returns
// the first empty row, where a new product belongs, and false.
func (grid *Grid) FindRow(title string) (int, bool) {
	index := grid.ensureIndex()
	if row, ok := index.rows[title]; ok {
		return row, true
	}
	return index.rowEnd, false
}

// FindDateColumn returns the column headed by date, or the first empty
// header column and false.
func (grid *Grid) FindDateColumn(date string) (int, bool) {
	index := grid.ensureIndex()
	if col, ok := index.columns[date]; ok {
		return col, true
	}
	return index.columnEnd, false
}

// RowEnd is the first row without a title (exclusive end of the table).
func (grid *Grid) RowEnd() int {
	return grid.ensureIndex().rowEnd
}

// DateColumnEnd is the first column without a date header.
func (grid *Grid) DateColumnEnd() int {
	return grid.ensureIndex().columnEnd
}
