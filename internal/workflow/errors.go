package workflow

import "fmt"

// FieldErrors collects per-field validation messages.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// ValidationError: malformed or business-rule-violating input, surfaced to
// the caller with field detail.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	for field, msgs := range e.Fields {
		if len(msgs) > 0 {
			return field + ": " + msgs[0]
		}
	}
	return "validation error"
}

func NewValidationError(field, msg string) *ValidationError {
	errs := FieldErrors{}
	errs.Add(field, msg)
	return &ValidationError{Fields: errs}
}

// PermissionError: the actor lacks authorization for this object.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string { return e.Message }

// ForbiddenTransitionError: the status change is not permitted in the
// current state, regardless of actor.
type ForbiddenTransitionError struct {
	From string
	To   string
}

func (e *ForbiddenTransitionError) Error() string {
	return fmt.Sprintf("transição de status não permitida: %s -> %s", e.From, e.To)
}

// ConflictError: a concurrent mutation won the race (duplicate contract or
// payment).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NotFoundError: referenced entity missing.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " não encontrado" }

// GatewayUnavailableError: transient gateway failure; callers log and retry
// later instead of failing the user where possible.
type GatewayUnavailableError struct {
	Err error
}

func (e *GatewayUnavailableError) Error() string {
	return "gateway de pagamento indisponível: " + e.Err.Error()
}

func (e *GatewayUnavailableError) Unwrap() error { return e.Err }
