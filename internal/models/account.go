package models

// ChartAccount is one row of the accounts table.
type ChartAccount struct {
	AccountID    string  `db:"account_id"`
	TenantID     string  `db:"tenant_id"`
	Code         string  `db:"code"`
	Name         string  `db:"name"`
	ParentID     *string `db:"parent_account_id"`
	TemplateCode *string `db:"template_code"`
	IsMovable    bool    `db:"is_movable"`
	AuditFields
}

// TenantSettings is one row of the tenant_settings table.
type TenantSettings struct {
	TenantID            string  `db:"tenant_id"`
	RUC                 string  `db:"ruc"`
	SalesTaxAccountID   *string `db:"sales_tax_account_id"`
	CertificatePath     *string `db:"certificate_path"`
	CertificatePassword *string `db:"certificate_password"`
	SRIEnvironment      string  `db:"sri_environment"`
}

// Person is one row of the persons table.
type Person struct {
	PersonID            string  `db:"person_id"`
	TenantID            string  `db:"tenant_id"`
	Name                string  `db:"name"`
	TaxID               string  `db:"tax_id"`
	Email               *string `db:"email"`
	ReceivableAccountID *string `db:"receivable_account_id"`
	PayableAccountID    *string `db:"payable_account_id"`
	AuditFields
}
