package mapping

import (
	"github.com/quipuware/quipu_backend/internal/core/domain"
	"github.com/quipuware/quipu_backend/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry to a model JournalEntry
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	var sourceType *string
	if d.SourceType != nil {
		s := string(*d.SourceType)
		sourceType = &s
	}
	return models.JournalEntry{
		EntryID:     d.EntryID,
		TenantID:    d.TenantID,
		EntryDate:   d.EntryDate,
		Description: d.Description,
		EntryType:   string(d.EntryType),
		SourceType:  sourceType,
		SourceID:    d.SourceID,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalEntry converts a model JournalEntry to a domain JournalEntry
func ToDomainJournalEntry(m models.JournalEntry) domain.JournalEntry {
	var sourceType *domain.EntrySourceType
	if m.SourceType != nil {
		s := domain.EntrySourceType(*m.SourceType)
		sourceType = &s
	}
	return domain.JournalEntry{
		EntryID:     m.EntryID,
		TenantID:    m.TenantID,
		EntryDate:   m.EntryDate,
		Description: m.Description,
		EntryType:   domain.EntryType(m.EntryType),
		SourceType:  sourceType,
		SourceID:    m.SourceID,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelJournalEntryLine converts a domain line to a model line
func ToModelJournalEntryLine(d domain.JournalEntryLine) models.JournalEntryLine {
	return models.JournalEntryLine{
		LineID:       d.LineID,
		EntryID:      d.EntryID,
		AccountID:    d.AccountID,
		Debit:        d.Debit,
		Credit:       d.Credit,
		CostCenterID: d.CostCenterID,
		PersonID:     d.PersonID,
	}
}

// ToDomainJournalEntryLine converts a model line to a domain line
func ToDomainJournalEntryLine(m models.JournalEntryLine) domain.JournalEntryLine {
	return domain.JournalEntryLine{
		LineID:       m.LineID,
		EntryID:      m.EntryID,
		AccountID:    m.AccountID,
		Debit:        m.Debit,
		Credit:       m.Credit,
		CostCenterID: m.CostCenterID,
		PersonID:     m.PersonID,
	}
}

// ToDomainJournalEntryLineSlice converts a slice of model lines
func ToDomainJournalEntryLineSlice(ms []models.JournalEntryLine) []domain.JournalEntryLine {
	ds := make([]domain.JournalEntryLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainJournalEntryLine(m)
	}
	return ds
}
