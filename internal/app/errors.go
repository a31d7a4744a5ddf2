package app

import "fmt"

// FieldError points a validation failure at the offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type DomainError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func domainError(status int, message string) *DomainError {
	return &DomainError{Status: status, Message: message}
}

func validationError(message string, fields ...FieldError) *DomainError {
	return &DomainError{Status: 400, Message: message, Fields: fields}
}
