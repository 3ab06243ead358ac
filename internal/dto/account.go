package dto

import "github.com/quipuware/quipu_backend/internal/core/domain"

// CreateAccountRequest creates one chart-of-accounts node.
type CreateAccountRequest struct {
	Code      string  `json:"code" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	ParentID  *string `json:"parentID,omitempty"`
	IsMovable bool    `json:"isMovable"`
}

// CloneTemplateRequest clones a chart-of-accounts template into the tenant.
type CloneTemplateRequest struct {
	Accounts []TemplateAccountRequest `json:"accounts" binding:"required,dive"`
}

// TemplateAccountRequest is one template row of a clone request.
type TemplateAccountRequest struct {
	Code       string  `json:"code" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	ParentCode *string `json:"parentCode,omitempty"`
	IsMovable  bool    `json:"isMovable"`
}

// ToTemplateAccounts converts the request rows into domain template accounts.
func (r CloneTemplateRequest) ToTemplateAccounts() []domain.TemplateAccount {
	out := make([]domain.TemplateAccount, len(r.Accounts))
	for i, a := range r.Accounts {
		out[i] = domain.TemplateAccount{
			Code:       a.Code,
			Name:       a.Name,
			ParentCode: a.ParentCode,
			IsMovable:  a.IsMovable,
		}
	}
	return out
}

// AccountResponse mirrors one chart account.
type AccountResponse struct {
	AccountID string  `json:"accountID"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	ParentID  *string `json:"parentID,omitempty"`
	IsMovable bool    `json:"isMovable"`
}

// ToAccountResponse converts a domain chart account.
func ToAccountResponse(a domain.ChartAccount) AccountResponse {
	return AccountResponse{
		AccountID: a.AccountID,
		Code:      a.Code,
		Name:      a.Name,
		ParentID:  a.ParentID,
		IsMovable: a.IsMovable,
	}
}
