package errors

var (
	ErrInsufficientBalance = &DomainError{
		Kind:    KindInsufficientFunds,
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient wallet balance",
	}
	ErrInvalidAmount = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_AMOUNT",
		Message: "invalid amount",
	}
	ErrWalletNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
	}
	ErrUserNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "USER_NOT_FOUND",
		Message: "user not found",
	}
	ErrTransactionNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "TRANSACTION_NOT_FOUND",
		Message: "transaction not found",
	}
	ErrDuplicateReference = &DomainError{
		Kind:    KindConflict,
		Code:    "DUPLICATE_REFERENCE",
		Message: "reference already used",
	}
	ErrPaymentNotConfirmed = &DomainError{
		Kind:    KindValidation,
		Code:    "PAYMENT_NOT_CONFIRMED",
		Message: "payment has not been confirmed by the provider",
	}
	ErrPaymentProviderUnavailable = &DomainError{
		Kind:    KindServiceUnavailable,
		Code:    "PAYMENT_PROVIDER_UNAVAILABLE",
		Message: "payment provider is currently unavailable",
	}
	ErrWalletBusy = &DomainError{
		Kind:    KindServiceUnavailable,
		Code:    "WALLET_BUSY",
		Message: "another operation on this wallet is in progress, retry shortly",
	}
	ErrAmountPrecision = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_AMOUNT_PRECISION",
		Message: "amount must have at most 2 decimal places",
	}
	ErrLedgerInconsistent = &DomainError{
		Kind:    KindIntegrity,
		Code:    "LEDGER_INCONSISTENT",
		Message: "ledger record is inconsistent",
	}
)
