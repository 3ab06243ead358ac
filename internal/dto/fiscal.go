package dto

import (
	"time"

	"github.com/quipuware/quipu_backend/internal/core/domain"
)

// FiscalAdvanceResult is the outcome of one Advance call.
type FiscalAdvanceResult struct {
	SRIStatus           domain.SRIStatus `json:"sriStatus"`
	AccessKey           *string          `json:"accessKey,omitempty"`
	AuthorizationNumber *string          `json:"authorizationNumber,omitempty"`
	AuthorizationDate   *time.Time       `json:"authorizationDate,omitempty"`
}

// SweepResult summarizes one retry sweep over IN_PROCESS documents.
type SweepResult struct {
	Scanned    int `json:"scanned"`
	Authorized int `json:"authorized"`
	Rejected   int `json:"rejected"`
	Pending    int `json:"pending"`
	Failed     int `json:"failed"`
}
