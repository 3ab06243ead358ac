package services

// ServiceContainer bundles every service facade for route registration.
type ServiceContainer struct {
	Posting      PostingSvcFacade
	Account      AccountSvcFacade
	CashSession  CashSessionSvcFacade
	CashMovement CashMovementSvcFacade
	BankMovement BankMovementSvcFacade
	Document     DocumentSvcFacade
	Transaction  TransactionSvcFacade
	Fiscal       FiscalSvcFacade
	Sweeper      SweeperSvcFacade
}
