package domain

// Person is a counterparty: customer, supplier or both.
// The receivable/payable account links drive which ledger account takes the
// counterpart leg of cash and bank movements.
type Person struct {
	PersonID             string  `json:"personID"`
	TenantID             string  `json:"tenantID"`
	Name                 string  `json:"name"`
	TaxID                string  `json:"taxID"` // RUC / cédula
	Email                *string `json:"email,omitempty"`
	ReceivableAccountID  *string `json:"receivableAccountID,omitempty"`
	PayableAccountID     *string `json:"payableAccountID,omitempty"`
	AuditFields
}

// CounterpartAccountFor returns the ledger account that takes the person's
// leg of a movement: receivable when money comes in, payable when it goes out.
func (p Person) CounterpartAccountFor(direction MovementDirection) *string {
	if direction == MovementIn {
		return p.ReceivableAccountID
	}
	return p.PayableAccountID
}
