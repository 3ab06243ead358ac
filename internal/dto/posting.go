package dto

import (
	"time"

	"github.com/quipuware/quipu_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PostingLine is one {account, debit, credit} leg of a posting request.
type PostingLine struct {
	AccountID    string          `json:"accountID" binding:"required"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	CostCenterID *string         `json:"costCenterID,omitempty"`
	PersonID     *string         `json:"personID,omitempty"`
}

// PostingRequest describes a balanced journal entry to persist.
type PostingRequest struct {
	Date        time.Time               `json:"date" binding:"required"`
	Description string                  `json:"description" binding:"required"`
	EntryType   domain.EntryType        `json:"entryType" binding:"required"`
	SourceType  *domain.EntrySourceType `json:"sourceType,omitempty"`
	SourceID    *string                 `json:"sourceID,omitempty"`
	Lines       []PostingLine           `json:"lines" binding:"required,dive"`
}

// EntryLineResponse mirrors a persisted journal entry line.
type EntryLineResponse struct {
	LineID       string          `json:"lineID"`
	AccountID    string          `json:"accountID"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	CostCenterID *string         `json:"costCenterID,omitempty"`
	PersonID     *string         `json:"personID,omitempty"`
}

// EntryResponse mirrors a persisted journal entry.
type EntryResponse struct {
	EntryID     string                  `json:"entryID"`
	EntryDate   time.Time               `json:"entryDate"`
	Description string                  `json:"description"`
	EntryType   domain.EntryType        `json:"entryType"`
	SourceType  *domain.EntrySourceType `json:"sourceType,omitempty"`
	SourceID    *string                 `json:"sourceID,omitempty"`
	Lines       []EntryLineResponse     `json:"lines,omitempty"`
	CreatedAt   time.Time               `json:"createdAt"`
}

// ToEntryResponse converts a domain entry to its response form.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	lines := make([]EntryLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = EntryLineResponse{
			LineID:       l.LineID,
			AccountID:    l.AccountID,
			Debit:        l.Debit,
			Credit:       l.Credit,
			CostCenterID: l.CostCenterID,
			PersonID:     l.PersonID,
		}
	}
	return EntryResponse{
		EntryID:     e.EntryID,
		EntryDate:   e.EntryDate,
		Description: e.Description,
		EntryType:   e.EntryType,
		SourceType:  e.SourceType,
		SourceID:    e.SourceID,
		Lines:       lines,
		CreatedAt:   e.CreatedAt,
	}
}

// ListEntriesParams carries pagination parameters for entry listing.
type ListEntriesParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListEntriesResponse is a page of entries plus the next-page token.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}
