package fault

import "errors"

// Kind classifies a rejected operation. A Kind is itself an error so callers
// can match a whole class with errors.Is(err, fault.Validation).
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	Validation        Kind = "validation"
	InsufficientStock Kind = "insufficient_stock"
	CapacityExceeded  Kind = "capacity_exceeded"
	DuplicateItem     Kind = "duplicate_item"
	InvalidTransition Kind = "invalid_transition"
	MissingReference  Kind = "missing_reference"
	NotFound          Kind = "not_found"
	Conflict          Kind = "conflict"
)

type Error struct {
	Kind Kind
	Msg  string
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the Kind carried anywhere in err's chain, or "" when err
// did not originate in this taxonomy.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return ""
}

// Retryable reports whether repeating the whole unit of work may succeed.
func Retryable(err error) bool {
	return errors.Is(err, Conflict)
}

// Label names err's outcome for logs and metrics: "ok" for nil, its Kind, or
// "internal" for errors outside the taxonomy.
func Label(err error) string {
	if err == nil {
		return "ok"
	}
	if k := KindOf(err); k != "" {
		return string(k)
	}
	return "internal"
}
