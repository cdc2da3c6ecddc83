package converter

import (
	"errors"
	"fmt"
)

// Kind classifies why a conversion failed. Callers only need to know that it
// failed; the kind exists for logging.
type Kind string

const (
	KindInvalidRequest         Kind = "invalid_request"
	KindEnvironmentUnsupported Kind = "environment_unsupported"
	KindSourceRead             Kind = "source_read"
	KindEncode                 Kind = "encode"
	KindSinkWrite              Kind = "sink_write"
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether err is a conversion failure of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

var (
	ErrEnvironmentUnsupported = errors.New("image library is absent or cannot encode webp")
	ErrQualityOutOfRange      = errors.New("quality must be within 0..100")
)
