// Package errors defines the status taxonomy returned by the graph cache
// and QoS negotiation operations, modeled on the structured error type
// storage-node/internal/errors uses for its own status codes.
package errors

import "fmt"

// Code is one of the status values named in spec §6.
type Code int

const (
	// CodeOK indicates success.
	CodeOK Code = iota
	// CodeInvalidArgument indicates a null pointer where one was required,
	// or a mismatched size/pointer pair.
	CodeInvalidArgument
	// CodeBadAlloc indicates an allocation failure while populating an
	// output array or string.
	CodeBadAlloc
	// CodeNodeNameNonExistent indicates a by-node introspection lookup
	// found no matching node.
	CodeNodeNameNonExistent
	// CodeError indicates an unexpected error.
	CodeError
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case CodeBadAlloc:
		return "BAD_ALLOC"
	case CodeNodeNameNonExistent:
		return "NODE_NAME_NON_EXISTENT"
	case CodeError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// GraphError is a structured error carrying one of the Code values plus
// context, modeled on storage-node/internal/errors.StorageError.
type GraphError struct {
	Code    Code
	Message string
	Details map[string]interface{}
	Cause   error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a key/value pair for diagnostics and returns e for
// chaining.
func (e *GraphError) WithDetail(key string, value interface{}) *GraphError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New constructs a GraphError with the given code, message, and cause.
func New(code Code, message string, cause error) *GraphError {
	return &GraphError{Code: code, Message: message, Cause: cause}
}

// InvalidArgument builds a CodeInvalidArgument error.
func InvalidArgument(message string) *GraphError {
	return New(CodeInvalidArgument, message, nil)
}

// BadAlloc builds a CodeBadAlloc error.
func BadAlloc(message string, cause error) *GraphError {
	return New(CodeBadAlloc, message, cause)
}

// NodeNameNonExistent builds a CodeNodeNameNonExistent error for the given
// node identity.
func NodeNameNonExistent(name, namespace string) *GraphError {
	return New(CodeNodeNameNonExistent,
		fmt.Sprintf("node not found: %s%s", namespace, name), nil).
		WithDetail("node_name", name).
		WithDetail("node_namespace", namespace)
}

// Internal builds a CodeError error.
func Internal(message string, cause error) *GraphError {
	return New(CodeError, message, cause)
}

// CodeOf extracts the Code from err, defaulting to CodeError for any error
// that isn't a *GraphError.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var ge *GraphError
	if As(err, &ge) {
		return ge.Code
	}
	return CodeError
}

// As walks err's single-error Unwrap chain and, on finding a *GraphError,
// stores it in target and reports true. It is a hand-written stand-in for
// the standard errors.As restricted to this package's own type; it does
// not follow Unwrap() []error or call As methods.
func As(err error, target **GraphError) bool {
	for err != nil {
		if ge, ok := err.(*GraphError); ok {
			*target = ge
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
