package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the operation is not valid for the resource's current state.
var ErrConflict = errors.New("operation conflicts with resource state")

// ErrForbidden indicates the caller is not allowed to act on the resource.
var ErrForbidden = errors.New("operation not allowed")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// Ledger posting errors.
var (
	// ErrUnbalancedEntry indicates debit and credit sums of a journal entry differ.
	ErrUnbalancedEntry = errors.New("journal entry debits do not equal credits")
	// ErrEmptyEntry indicates a posting request carried no lines.
	ErrEmptyEntry = errors.New("journal entry must have at least one line")
	// ErrInvalidLine indicates a line has both, neither, or a negative debit/credit.
	ErrInvalidLine = errors.New("journal entry line must have exactly one positive side")
)

// Tenant-configuration errors. Fixable by the tenant administrator, so the
// wrapping message must name the missing configuration item.
var (
	ErrMissingCashBoxAccount      = errors.New("cash box has no linked ledger account")
	ErrMissingCounterpartyAccount = errors.New("counterparty has no account configured for this operation")
	ErrMissingBankAccount         = errors.New("bank account has no linked ledger account")
	ErrCertificateNotConfigured   = errors.New("digital certificate is not configured for this tenant")
)

// Transaction allocator errors.
var (
	ErrAllocationMismatch = errors.New("allocation amounts do not match the transaction amount")
	ErrNoOpenCashSession  = errors.New("no open cash session for this user")
)

// Fiscal lifecycle errors. Surfaced to the caller but never leave the
// document in an unresumable state.
var (
	// ErrSigning covers any failure returned by the digital signer.
	ErrSigning = errors.New("failed to sign document XML")
	// ErrWrongCertificatePassword is the distinguished signing sub-case that
	// needs an admin to re-enter the certificate password.
	ErrWrongCertificatePassword = errors.New("certificate password is incorrect")
	// ErrTransmission covers transport failures talking to the tax authority.
	ErrTransmission = errors.New("failed to transmit document to tax authority")
	// ErrAuthorizationPending means the authority has not produced a final
	// result yet. Expected during normal operation; the caller retries later.
	ErrAuthorizationPending = errors.New("authorization is still pending at the tax authority")
	// ErrFiscalRejected means the document was rejected and needs an explicit
	// regenerate before a new cycle can start.
	ErrFiscalRejected = errors.New("document was rejected by the tax authority")
	// ErrFiscalBusy means another worker currently holds the document's lock.
	ErrFiscalBusy = errors.New("document is being processed by another worker")
)

// AppError carries an HTTP-ish status code alongside the wrapped error.
// Repositories use it to annotate low-level failures without losing the cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates a 404 AppError that matches errors.Is(err, ErrNotFound).
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
