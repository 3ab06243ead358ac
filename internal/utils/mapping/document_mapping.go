package mapping

import (
	"github.com/quipuware/quipu_backend/internal/core/domain"
	"github.com/quipuware/quipu_backend/internal/models"
)

// ToModelDocument converts a domain Document header to a model Document
func ToModelDocument(d domain.Document) models.Document {
	return models.Document{
		DocumentID:  d.DocumentID,
		TenantID:    d.TenantID,
		Kind:        string(d.Kind),
		PersonID:    d.PersonID,
		IssueDate:   d.IssueDate,
		Subtotal:    d.Subtotal,
		TaxTotal:    d.TaxTotal,
		Discount:    d.Discount,
		Total:       d.Total,
		PaidAmount:  d.PaidAmount,
		Balance:     d.Balance,
		Status:      string(d.Status),
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainDocument converts a model Document header to a domain Document
func ToDomainDocument(m models.Document) domain.Document {
	return domain.Document{
		DocumentID:  m.DocumentID,
		TenantID:    m.TenantID,
		Kind:        domain.DocumentKind(m.Kind),
		PersonID:    m.PersonID,
		IssueDate:   m.IssueDate,
		Subtotal:    m.Subtotal,
		TaxTotal:    m.TaxTotal,
		Discount:    m.Discount,
		Total:       m.Total,
		PaidAmount:  m.PaidAmount,
		Balance:     m.Balance,
		Status:      domain.DocumentStatus(m.Status),
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainDocumentItem converts a model item to a domain item
func ToDomainDocumentItem(m models.DocumentItem) domain.DocumentItem {
	return domain.DocumentItem{
		ItemID:           m.ItemID,
		DocumentID:       m.DocumentID,
		Description:      m.Description,
		Quantity:         m.Quantity,
		UnitPrice:        m.UnitPrice,
		Discount:         m.Discount,
		TaxRate:          m.TaxRate,
		RevenueAccountID: m.RevenueAccountID,
	}
}

// ToDomainDocumentPayment converts a model payment to a domain payment
func ToDomainDocumentPayment(m models.DocumentPayment) domain.DocumentPayment {
	return domain.DocumentPayment{
		PaymentID:  m.PaymentID,
		DocumentID: m.DocumentID,
		Method:     domain.PaymentMethod(m.Method),
		Amount:     m.Amount,
		DueDays:    m.DueDays,
	}
}

// ToModelFiscalInfo converts domain fiscal info to a model row
func ToModelFiscalInfo(d domain.DocumentFiscalInfo) models.DocumentFiscalInfo {
	return models.DocumentFiscalInfo{
		FiscalID:            d.FiscalID,
		DocumentID:          d.DocumentID,
		TenantID:            d.TenantID,
		Establishment:       d.Establishment,
		EmissionPoint:       d.EmissionPoint,
		Sequence:            d.Sequence,
		AccessKey:           d.AccessKey,
		SignedXMLPath:       d.SignedXMLPath,
		AuthorizationNumber: d.AuthorizationNumber,
		AuthorizationDate:   d.AuthorizationDate,
		SRIStatus:           string(d.SRIStatus),
		LastResponse:        d.LastResponse,
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainFiscalInfo converts a model fiscal row to domain fiscal info
func ToDomainFiscalInfo(m models.DocumentFiscalInfo) domain.DocumentFiscalInfo {
	return domain.DocumentFiscalInfo{
		FiscalID:            m.FiscalID,
		DocumentID:          m.DocumentID,
		TenantID:            m.TenantID,
		Establishment:       m.Establishment,
		EmissionPoint:       m.EmissionPoint,
		Sequence:            m.Sequence,
		AccessKey:           m.AccessKey,
		SignedXMLPath:       m.SignedXMLPath,
		AuthorizationNumber: m.AuthorizationNumber,
		AuthorizationDate:   m.AuthorizationDate,
		SRIStatus:           domain.SRIStatus(m.SRIStatus),
		LastResponse:        m.LastResponse,
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
}
