package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Access errors returned by handlers that check the caller
var (
	ErrUnauthorized = NewDomainError("UNAUTHORIZED", "Authentication required")
	ErrForbidden    = NewDomainError("FORBIDDEN", "Access to this client is forbidden")
)
