package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that must react to it: the HTTP
// layer maps kinds to status codes and retry hints.
type Kind string

const (
	KindUnknown           Kind = "unknown"
	KindNotFound          Kind = "not_found"
	KindInvalidQuantity   Kind = "invalid_quantity"
	KindInvalidInput      Kind = "invalid_input"
	KindInsufficientStock Kind = "insufficient_stock"
	KindReturnExceedsSale Kind = "return_exceeds_sale"
	KindConflict          Kind = "conflict"
	KindTimeout           Kind = "timeout"
	KindStoreUnavailable  Kind = "store_unavailable"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrReturnExceedsSale = errors.New("return exceeds sold quantity")
	ErrConflict          = errors.New("concurrent modification")
	ErrTimeout           = errors.New("store timeout")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

var sentinels = []struct {
	kind Kind
	err  error
}{
	{KindNotFound, ErrNotFound},
	{KindInvalidQuantity, ErrInvalidQuantity},
	{KindInvalidInput, ErrInvalidInput},
	{KindInsufficientStock, ErrInsufficientStock},
	{KindReturnExceedsSale, ErrReturnExceedsSale},
	{KindConflict, ErrConflict},
	{KindTimeout, ErrTimeout},
	{KindStoreUnavailable, ErrStoreUnavailable},
}

func sentinelFor(kind Kind) error {
	for _, s := range sentinels {
		if s.kind == kind {
			return s.err
		}
	}
	return nil
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}
	return KindUnknown
}

// IsRetryable reports whether repeating the whole operation may succeed.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindConflict, KindTimeout:
		return true
	default:
		return false
	}
}

type NotFoundError struct {
	Resource string
	ID       int64
}

func NotFound(resource string, id int64) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type InsufficientStockError struct {
	MedicineID int64
	Available  int
	Requested  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for medicine %d (available %d, requested %d)",
		e.MedicineID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type ReturnExceedsSaleError struct {
	SaleID     int64
	MedicineID int64
	Sold       int
	Returned   int
	Requested  int
}

func (e *ReturnExceedsSaleError) Error() string {
	return fmt.Sprintf("return of %d exceeds remaining quantity for medicine %d on sale %d (sold %d, already returned %d)",
		e.Requested, e.MedicineID, e.SaleID, e.Sold, e.Returned)
}

func (e *ReturnExceedsSaleError) Unwrap() error { return ErrReturnExceedsSale }

// Remaining is the quantity that can still be returned.
func (e *ReturnExceedsSaleError) Remaining() int {
	return e.Sold - e.Returned
}

type ConflictError struct {
	Resource string
	ID       int64
}

func Conflict(resource string, id int64) error {
	return &ConflictError{Resource: resource, ID: id}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d was modified concurrently", e.Resource, e.ID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ValidationError rejects a request field before any store access.
type ValidationError struct {
	Kind   Kind
	Field  string
	Reason string
}

func InvalidQuantity(field, reason string) error {
	return &ValidationError{Kind: KindInvalidQuantity, Field: field, Reason: reason}
}

func InvalidInput(field, reason string) error {
	return &ValidationError{Kind: KindInvalidInput, Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	if err := sentinelFor(e.Kind); err != nil {
		return err
	}
	return ErrInvalidInput
}

// StoreError wraps an infrastructure failure with the operation that hit it.
type StoreError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{sentinelFor(e.Kind), e.Err}
}
