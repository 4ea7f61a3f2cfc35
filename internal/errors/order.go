package errors

var (
	ErrOrderNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "ORDER_NOT_FOUND",
		Message: "order not found",
	}
	ErrBundleNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "BUNDLE_NOT_FOUND",
		Message: "no active bundle matches the requested type and capacity",
	}
	ErrInvalidStatus = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_STATUS",
		Message: "unknown order status",
	}
	ErrInvalidOrder = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_ORDER",
		Message: "invalid order request",
	}
	ErrOrderOwnerMissing = &DomainError{
		Kind:    KindIntegrity,
		Code:    "ORDER_OWNER_MISSING",
		Message: "order owner can no longer be loaded",
	}
	ErrDeliveryUnavailable = &DomainError{
		Kind:    KindServiceUnavailable,
		Code:    "DELIVERY_UNAVAILABLE",
		Message: "bundle delivery service is currently unavailable, please try again later",
	}
	ErrDeliveryRejected = &DomainError{
		Kind:    KindDeliveryRejected,
		Code:    "DELIVERY_REJECTED",
		Message: "bundle delivery was rejected by the provider",
	}
)
