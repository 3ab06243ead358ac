package domain

// ChartAccount is one node of a tenant's chart of accounts.
// Accounts form a tree via ParentID; the tree is cloned from a template at
// tenant provisioning, so TemplateCode keeps the link back to the template row.
type ChartAccount struct {
	AccountID    string  `json:"accountID"`
	TenantID     string  `json:"tenantID"`
	Code         string  `json:"code"` // e.g. "1.1.02"
	Name         string  `json:"name"`
	ParentID     *string `json:"parentID,omitempty"`
	TemplateCode *string `json:"templateCode,omitempty"`
	IsMovable    bool    `json:"isMovable"` // leaf accounts accept entry lines
	AuditFields
}

// TemplateAccount is one row of a chart-of-accounts template.
// ParentCode references another template row by code; the clone resolves it
// into ParentID in a second pass because template order is arbitrary.
type TemplateAccount struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	ParentCode *string `json:"parentCode,omitempty"`
	IsMovable  bool    `json:"isMovable"`
}

// TenantSettings holds per-tenant accounting and fiscal configuration.
type TenantSettings struct {
	TenantID            string  `json:"tenantID"`
	RUC                 string  `json:"ruc"` // taxpayer registry number, 13 digits
	SalesTaxAccountID   *string `json:"salesTaxAccountID,omitempty"`
	CertificatePath     *string `json:"certificatePath,omitempty"` // blob-store path of the .p12
	CertificatePassword *string `json:"-"`
	SRIEnvironment      string  `json:"sriEnvironment"` // "1" test, "2" production
}
