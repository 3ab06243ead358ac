package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntrySourceType identifies the kind of source document an entry was
// posted for. Together with SourceID it is the find-and-replace key used
// when the source document is edited.
type EntrySourceType string

const (
	SourceCashMovement EntrySourceType = "CASH_MOVEMENT"
	SourceBankMovement EntrySourceType = "BANK_MOVEMENT"
	SourceDocument     EntrySourceType = "DOCUMENT"
)

// EntryType categorizes the business event behind an entry.
type EntryType string

const (
	EntryTypeManual   EntryType = "MANUAL"
	EntryTypeSale     EntryType = "SALE"
	EntryTypePurchase EntryType = "PURCHASE"
	EntryTypeCash     EntryType = "CASH"
	EntryTypeBank     EntryType = "BANK"
)

// JournalEntry is a single balanced accounting event.
// Invariant: the sum of line debits equals the sum of line credits, exactly.
// Entries are created atomically with their lines and edited only by
// delete-and-recreate through the posting engine's Replace.
type JournalEntry struct {
	EntryID     string           `json:"entryID"`
	TenantID    string           `json:"tenantID"`
	EntryDate   time.Time        `json:"entryDate"`
	Description string           `json:"description"`
	EntryType   EntryType        `json:"entryType"`
	SourceType  *EntrySourceType `json:"sourceType,omitempty"`
	SourceID    *string          `json:"sourceID,omitempty"`
	Lines       []JournalEntryLine `json:"lines,omitempty"`
	AuditFields
}

// DebitTotal returns the sum of all line debits.
func (e JournalEntry) DebitTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// CreditTotal returns the sum of all line credits.
func (e JournalEntry) CreditTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// JournalEntryLine is one leg of a journal entry.
// Invariant: exactly one of Debit/Credit is nonzero, and it is positive.
type JournalEntryLine struct {
	LineID       string          `json:"lineID"`
	EntryID      string          `json:"entryID"`
	AccountID    string          `json:"accountID"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	CostCenterID *string         `json:"costCenterID,omitempty"`
	PersonID     *string         `json:"personID,omitempty"`
}
