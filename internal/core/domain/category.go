package domain

// Category is the classification assigned to a failed operation.
type Category string

const (
	CategoryNetwork      Category = "NETWORK"
	CategoryTimeout      Category = "TIMEOUT"
	CategoryRateLimit    Category = "RATE_LIMIT"
	CategoryNotFound     Category = "NOT_FOUND"
	CategoryUnauthorized Category = "UNAUTHORIZED"
	CategoryValidation   Category = "VALIDATION"
	CategoryUnknown      Category = "UNKNOWN"
)

// Categories returns every category in classification priority order.
func Categories() []Category {
	return []Category{
		CategoryNetwork,
		CategoryTimeout,
		CategoryRateLimit,
		CategoryNotFound,
		CategoryUnauthorized,
		CategoryValidation,
		CategoryUnknown,
	}
}

// Retryable reports whether failures of this category are transient.
// Only network, timeout and rate limit failures are worth another attempt.
func (c Category) Retryable() bool {
	switch c {
	case CategoryNetwork, CategoryTimeout, CategoryRateLimit:
		return true
	default:
		return false
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}
