// Package external defines the ports of collaborators outside the ledger
// core: digital signing, tax-authority transport, blob storage, document XML
// rendering and distributed locking. The core only ever sees these
// interfaces.
package external

import (
	"context"
	"time"

	"github.com/quipuware/quipu_backend/internal/core/domain"
)

// Signer applies a digital signature to an unsigned document XML.
type Signer interface {
	// Sign returns the signed XML. A wrong certificate password surfaces as
	// apperrors.ErrWrongCertificatePassword; any other failure as ErrSigning.
	Sign(ctx context.Context, certificate []byte, password string, unsignedXML string) (string, error)
}

// TransmitResult is the authority's answer to a reception request.
type TransmitResult struct {
	Accepted bool   // reception said RECIBIDA
	Returned bool   // reception said DEVUELTA
	Status   string // raw status word
	Raw      string // full raw response, persisted for audit/debugging
}

// AuthorizationStatus is the authority's answer to an authorization query.
type AuthorizationStatus string

const (
	AuthorizationAuthorized   AuthorizationStatus = "AUTHORIZED"
	AuthorizationRejected     AuthorizationStatus = "REJECTED"
	AuthorizationInProcess    AuthorizationStatus = "IN_PROCESS"
	AuthorizationNotAvailable AuthorizationStatus = "NOT_AVAILABLE"
)

// AuthorizationResult carries the final (or pending) authorization outcome.
type AuthorizationResult struct {
	Status              AuthorizationStatus
	AuthorizationNumber *string
	AuthorizationDate   *time.Time
	Raw                 string
}

// AuthorityClient is the transport to the tax authority's reception and
// authorization services. Calls are slow network round-trips; callers bound
// them with context deadlines and never hold a database transaction open
// across them.
type AuthorityClient interface {
	Transmit(ctx context.Context, signedXML string, environment string) (*TransmitResult, error)
	QueryAuthorization(ctx context.Context, accessKey string, environment string) (*AuthorizationResult, error)
}

// BlobStore stores signed XML files and tenant certificates.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte) (string, error)
	Download(ctx context.Context, path string) ([]byte, error)
}

// XMLBuilder renders the authority-required XML for a document. Template
// logic lives outside the core.
type XMLBuilder interface {
	BuildXML(ctx context.Context, document *domain.Document, fiscal *domain.DocumentFiscalInfo, settings *domain.TenantSettings) (string, error)
}

// DocumentLocker serializes fiscal lifecycle work per document so a manual
// send and the retry sweeper cannot interleave steps.
type DocumentLocker interface {
	// Acquire takes the lock for key and returns a release function, or
	// apperrors.ErrFiscalBusy when another worker holds it.
	Acquire(ctx context.Context, key string) (func(), error)
}
