package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Document is one row of the documents table.
type Document struct {
	DocumentID string          `db:"document_id"`
	TenantID   string          `db:"tenant_id"`
	Kind       string          `db:"kind"`
	PersonID   string          `db:"person_id"`
	IssueDate  time.Time       `db:"issue_date"`
	Subtotal   decimal.Decimal `db:"subtotal"`
	TaxTotal   decimal.Decimal `db:"tax_total"`
	Discount   decimal.Decimal `db:"discount"`
	Total      decimal.Decimal `db:"total"`
	PaidAmount decimal.Decimal `db:"paid_amount"`
	Balance    decimal.Decimal `db:"balance"`
	Status     string          `db:"status"`
	AuditFields
}

// DocumentItem is one row of the document_items table.
type DocumentItem struct {
	ItemID           string          `db:"item_id"`
	DocumentID       string          `db:"document_id"`
	Description      string          `db:"description"`
	Quantity         decimal.Decimal `db:"quantity"`
	UnitPrice        decimal.Decimal `db:"unit_price"`
	Discount         decimal.Decimal `db:"discount"`
	TaxRate          decimal.Decimal `db:"tax_rate"`
	RevenueAccountID string          `db:"revenue_account_id"`
}

// DocumentPayment is one row of the document_payments table.
type DocumentPayment struct {
	PaymentID  string          `db:"payment_id"`
	DocumentID string          `db:"document_id"`
	Method     string          `db:"method"`
	Amount     decimal.Decimal `db:"amount"`
	DueDays    int             `db:"due_days"`
}

// DocumentFiscalInfo is one row of the document_fiscal_info table.
type DocumentFiscalInfo struct {
	FiscalID            string     `db:"fiscal_id"`
	DocumentID          string     `db:"document_id"`
	TenantID            string     `db:"tenant_id"`
	Establishment       string     `db:"establishment"`
	EmissionPoint       string     `db:"emission_point"`
	Sequence            int64      `db:"sequence"`
	AccessKey           *string    `db:"access_key"`
	SignedXMLPath       *string    `db:"signed_xml_path"`
	AuthorizationNumber *string    `db:"authorization_number"`
	AuthorizationDate   *time.Time `db:"authorization_date"`
	SRIStatus           string     `db:"sri_status"`
	LastResponse        *string    `db:"last_response"`
	AuditFields
}
