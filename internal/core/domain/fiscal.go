package domain

import (
	"fmt"
	"time"
)

// SRIStatus is the fiscal lifecycle state of a revenue document.
//
// DRAFT -> (sign, implicit) -> SENT/RECEIVED -> IN_PROCESS -> AUTHORIZED
// or -> REJECTED. A signed-but-unsent document stays at DRAFT with its
// access key stored; REJECTED re-enters the flow only through an explicit
// regenerate, which clears the access key and resets to DRAFT.
type SRIStatus string

const (
	SRIDraft      SRIStatus = "DRAFT"
	SRISent       SRIStatus = "SENT"       // transmitted, outcome ambiguous, retryable
	SRIReceived   SRIStatus = "RECEIVED"   // accepted by reception, awaiting authorization
	SRIInProcess  SRIStatus = "IN_PROCESS" // authority still processing
	SRIAuthorized SRIStatus = "AUTHORIZED" // terminal, success
	SRIRejected   SRIStatus = "REJECTED"   // terminal, needs regenerate
)

// Terminal reports whether the status ends the current fiscal cycle.
func (s SRIStatus) Terminal() bool {
	return s == SRIAuthorized || s == SRIRejected
}

// DocumentFiscalInfo is the fiscal sequence and authorization state of a
// document. One row per fiscal document, created at DRAFT and advanced only
// by the fiscal lifecycle service. Every transition is persisted before the
// operation returns so a crash leaves the document resumable.
type DocumentFiscalInfo struct {
	FiscalID            string     `json:"fiscalID"`
	DocumentID          string     `json:"documentID"`
	TenantID            string     `json:"tenantID"`
	Establishment       string     `json:"establishment"` // e.g. "001"
	EmissionPoint       string     `json:"emissionPoint"` // e.g. "001"
	Sequence            int64      `json:"sequence"`
	AccessKey           *string    `json:"accessKey,omitempty"`
	SignedXMLPath       *string    `json:"signedXMLPath,omitempty"`
	AuthorizationNumber *string    `json:"authorizationNumber,omitempty"`
	AuthorizationDate   *time.Time `json:"authorizationDate,omitempty"`
	SRIStatus           SRIStatus  `json:"sriStatus"`
	LastResponse        *string    `json:"lastResponse,omitempty"` // raw authority payload
	AuditFields
}

// LegalNumber formats the establishment-emissionPoint-sequence triple that
// forms the legal document number, e.g. "001-001-000000123".
func (f DocumentFiscalInfo) LegalNumber() string {
	return fmt.Sprintf("%s-%s-%09d", f.Establishment, f.EmissionPoint, f.Sequence)
}

// Signed reports whether the sign step already produced durable output.
func (f DocumentFiscalInfo) Signed() bool {
	return f.AccessKey != nil && *f.AccessKey != "" && f.SignedXMLPath != nil && *f.SignedXMLPath != ""
}
