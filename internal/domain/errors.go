package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound signals an unknown product id.
	ErrProductNotFound = errors.New("product not found")
	// ErrEmptyCatalog signals that the catalog holds no products.
	ErrEmptyCatalog = errors.New("catalog is empty")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrExplanationProviderError signals an explanation provider failure.
	ErrExplanationProviderError = errors.New("explanation provider error")
	// ErrDataFormat signals malformed or inconsistent source data. Load-time only,
	// the process must not start on it.
	ErrDataFormat = errors.New("invalid data format")
)

// DataFormatError wraps ErrDataFormat with the offending source and detail.
type DataFormatError struct {
	Source string
	Detail string
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("%s in %s: %s", ErrDataFormat.Error(), e.Source, e.Detail)
}

func (e *DataFormatError) Unwrap() error { return ErrDataFormat }

// NewDataFormatError creates a data format error for the given source.
func NewDataFormatError(source, format string, args ...any) error {
	return &DataFormatError{Source: source, Detail: fmt.Sprintf(format, args...)}
}
