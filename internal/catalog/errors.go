package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrData matches any *DataError.
	ErrData = errors.New("invalid catalog data")
	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("book not found")
)

// DataError reports a malformed or empty source catalog. It is fatal to startup.
type DataError struct {
	Row    int // -1 when the problem is not tied to a row
	Reason string
}

func (e *DataError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("invalid catalog data: %s", e.Reason)
	}
	return fmt.Sprintf("invalid catalog data at row %d: %s", e.Row, e.Reason)
}

func (e *DataError) Is(target error) bool {
	return target == ErrData
}

// NotFoundError reports a title lookup that matched no record.
type NotFoundError struct {
	Title string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("book not found: %q", e.Title)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
