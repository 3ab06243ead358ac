package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is one row of the journal_entries table.
type JournalEntry struct {
	EntryID     string    `db:"entry_id"`
	TenantID    string    `db:"tenant_id"`
	EntryDate   time.Time `db:"entry_date"`
	Description string    `db:"description"`
	EntryType   string    `db:"entry_type"`
	SourceType  *string   `db:"source_type"`
	SourceID    *string   `db:"source_id"`
	AuditFields
}

// JournalEntryLine is one row of the journal_entry_lines table.
type JournalEntryLine struct {
	LineID       string          `db:"line_id"`
	EntryID      string          `db:"entry_id"`
	AccountID    string          `db:"account_id"`
	Debit        decimal.Decimal `db:"debit"`
	Credit       decimal.Decimal `db:"credit"`
	CostCenterID *string         `db:"cost_center_id"`
	PersonID     *string         `db:"person_id"`
}
