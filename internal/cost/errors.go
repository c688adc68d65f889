package cost

import "fmt"

// ErrorKind classifies scoring failures.
type ErrorKind int

const (
	// KindSchemaMismatch means a field, argument, or type referenced by the
	// query (or plan) could not be resolved against the schema, or a schema
	// annotation is malformed. Admission control must never treat such an
	// operation as cheap, so estimation aborts.
	KindSchemaMismatch ErrorKind = iota
	// KindSuboperationNotReady means a federated plan referenced a subgraph
	// operation before it was parsed.
	KindSuboperationNotReady
)

func (k ErrorKind) String() string {
	switch k {
	case KindSchemaMismatch:
		return "schema mismatch"
	case KindSuboperationNotReady:
		return "suboperation not ready"
	}
	return "unknown"
}

// Error is a typed scoring error.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func mismatchf(format string, args ...any) *Error {
	return &Error{Kind: KindSchemaMismatch, Message: fmt.Sprintf(format, args...)}
}
