package pricewatch

import "fmt"

// NotAPriceError is returned by ParsePrice when the text does not hold a price.
type NotAPriceError struct {
	Raw    string
	Reason string
}

func (error NotAPriceError) Error() string {
	return fmt.Sprintf("not a price %q: %v", error.Raw, error.Reason)
}

type ProbeKind int

const (
	ElementNotFound ProbeKind = iota
	Timeout
)

func (kind ProbeKind) String() string {
	switch kind {
	case ElementNotFound:
		return "element not found"
	case Timeout:
		return "timeout"
	}
	return fmt.Sprintf("ProbeKind(%d)", int(kind))
}

// ProbeError reports a failed element lookup. It is recoverable: callers
// substitute a sentinel value.
type ProbeError struct {
	Selector string
	Kind     ProbeKind
	Err      error
}

func (error ProbeError) Error() string {
	if error.Err != nil {
		return fmt.Sprintf("probe %q: %v: %v", error.Selector, error.Kind, error.Err)
	}
	return fmt.Sprintf("probe %q: %v", error.Selector, error.Kind)
}

func (error ProbeError) Unwrap() error {
	return error.Err
}

// SourceUnreachableError aborts a watch loop.
type SourceUnreachableError struct {
	Source string
	Err    error
}

func (error SourceUnreachableError) Error() string {
	return fmt.Sprintf("source %v unreachable: %v", error.Source, error.Err)
}

func (error SourceUnreachableError) Unwrap() error {
	return error.Err
}

// PersistenceError means a grid could not be loaded or saved.
type PersistenceError struct {
	Path string
	Op   string
	Err  error
}

func (error PersistenceError) Error() string {
	return fmt.Sprintf("%v %v: %v", error.Op, error.Path, error.Err)
}

func (error PersistenceError) Unwrap() error {
	return error.Err
}

// RecordFieldError is returned when a spreadsheet row cannot be turned into
// a typed record.
type RecordFieldError struct {
	Row   int
	Field string
	Err   error
}

func (error RecordFieldError) Error() string {
	if error.Row > 0 {
		return fmt.Sprintf("row %d: %v: %v", error.Row, error.Field, error.Err)
	}
	return fmt.Sprintf("%v: %v", error.Field, error.Err)
}

func (error RecordFieldError) Unwrap() error {
	return error.Err
}
