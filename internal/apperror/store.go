package apperror

import (
	"context"
	"errors"

	"github.com/smallbiznis/apotek/pkg/db"
)

// FromStore classifies an error returned by the store. Errors that already
// carry a kind pass through unchanged, so a transaction callback can return
// business errors and the caller can still classify the result.
func FromStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}

	kind := KindStoreUnavailable
	switch {
	case errors.Is(err, context.Canceled), db.IsTimeoutErr(err):
		kind = KindTimeout
	case db.IsSerializationErr(err):
		kind = KindConflict
	}
	return &StoreError{Kind: kind, Op: op, Err: err}
}
