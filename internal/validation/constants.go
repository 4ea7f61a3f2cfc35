package validation

const (
	// Password requirements
	MinPasswordLength = 8
	MaxPasswordLength = 72

	// Amount limits for a single deposit, in wallet currency
	MinDepositAmount = 1
	MaxDepositAmount = 10000

	// String lengths
	MaxDescriptionLength = 500
	MaxReferenceLength   = 100
)
