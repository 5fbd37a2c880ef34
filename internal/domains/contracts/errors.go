package contracts

import (
	"errors"
	"strings"
)

// Validation failures detected synchronously. Each aborts the invocation
// before any state is mutated.
var (
	ErrSaleNotFound     = errors.New("sale not found")
	ErrTokenNotFound    = errors.New("token not found")
	ErrMetadataNotFound = errors.New("token metadata not found")

	ErrNotOwner            = errors.New("sender is not the token owner or an approved account")
	ErrStaleApproval       = errors.New("approval sequence does not match")
	ErrSelfTransfer        = errors.New("owner and receiver must differ")
	ErrSelfPurchase        = errors.New("cannot buy your own sale")
	ErrCurrencyMismatch    = errors.New("payment currency does not match the sale")
	ErrInsufficientPayment = errors.New("payment is below the sale price")
	ErrInsufficientDeposit = errors.New("storage deposit does not cover the listing")
	ErrTokenExists         = errors.New("token id already exists")
	ErrIntentNotConfirmed  = errors.New("requires an attached deposit of exactly one base unit")

	// ErrTooManyPayees caps royalty tables at the payee limit requested by
	// the caller.
	ErrTooManyPayees = errors.New("royalty table exceeds the payee limit")

	// ErrMalformedRemoteResult marks a remote payload that did not decode.
	// Continuations never abort on it; they steer the compensating action.
	ErrMalformedRemoteResult = errors.New("remote call result did not parse")
)

const (
	ErrorCategoryNotFound     = "not_found"
	ErrorCategoryPrecondition = "precondition"
	ErrorCategoryRemote       = "remote"
	ErrorCategoryQuota        = "quota"
)

func normalizeErrorCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case ErrorCategoryNotFound:
		return ErrorCategoryNotFound
	case ErrorCategoryRemote:
		return ErrorCategoryRemote
	case ErrorCategoryQuota:
		return ErrorCategoryQuota
	default:
		return ErrorCategoryPrecondition
	}
}

type CategorizedError struct {
	Category string
	Err      error
}

func (e *CategorizedError) Error() string {
	return e.Err.Error()
}

func (e *CategorizedError) Unwrap() error {
	return e.Err
}

func WrapCategorizedError(category string, err error) error {
	if err == nil {
		return nil
	}
	var existing *CategorizedError
	if errors.As(err, &existing) {
		return &CategorizedError{
			Category: normalizeErrorCategory(existing.Category),
			Err:      existing.Err,
		}
	}
	return &CategorizedError{
		Category: normalizeErrorCategory(category),
		Err:      err,
	}
}

// ErrorCategory classifies err for RPC mapping and metrics. Sentinels carry
// an implicit category; wrapped errors keep whatever they were tagged with.
func ErrorCategory(err error) string {
	var classified *CategorizedError
	if errors.As(err, &classified) {
		return normalizeErrorCategory(classified.Category)
	}
	switch {
	case errors.Is(err, ErrSaleNotFound), errors.Is(err, ErrTokenNotFound), errors.Is(err, ErrMetadataNotFound):
		return ErrorCategoryNotFound
	case errors.Is(err, ErrTooManyPayees):
		return ErrorCategoryQuota
	case errors.Is(err, ErrMalformedRemoteResult):
		return ErrorCategoryRemote
	default:
		return ErrorCategoryPrecondition
	}
}
