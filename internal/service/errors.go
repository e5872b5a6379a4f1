package service

import "errors"

var (
	// ErrNotFound means the referenced recipe/user/tag/ingredient does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller is not the owner of the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials is returned on bad login attempts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrShoppingListEmpty is returned when a shopping list is requested for
	// an empty cart.
	ErrShoppingListEmpty = errors.New("shopping list is empty")
)

// FieldError is a validation failure scoped to a single payload field.
// Handlers surface it as a 400 with the field name attached.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func fieldErr(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}
