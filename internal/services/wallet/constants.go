package wallet

import "time"

// Cache durations
const (
	CacheDuration = 5 * time.Minute
)

// Operation names used for metrics and logs
const (
	OperationDeposit    = "deposit"
	OperationGetBalance = "get_balance"
)

// Operation results
const (
	ResultSuccess   = "success"
	ResultDuplicate = "duplicate"
	ResultError     = "error"
)
