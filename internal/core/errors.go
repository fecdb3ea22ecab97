package core

import "errors"

// Ledger error kinds. Business-rule violations are always surfaced to the
// caller; ErrPersistence marks collaborator I/O failures.
var (
	ErrInvalidFilter         = errors.New("invalid period filter")
	ErrInvalidRange          = errors.New("invalid date range: start after end")
	ErrEntryNotFound         = errors.New("entry not found")
	ErrInvalidTransition     = errors.New("invalid reclassification transition")
	ErrOriginalChargeMissing = errors.New("original client charge missing")
	ErrPersistence           = errors.New("persistence failure")

	ErrFeeLocked      = errors.New("fee already printed on a receipt")
	ErrDuplicateMonth = errors.New("monthly charge already registered")
)

// IsBusinessError reports whether err is a rule violation rather than an
// input or infrastructure problem.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrOriginalChargeMissing) ||
		errors.Is(err, ErrFeeLocked) ||
		errors.Is(err, ErrDuplicateMonth)
}
