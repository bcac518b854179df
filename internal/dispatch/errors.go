package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws/awserr"

	"wirecall/internal/retry"
)

// Kind classifies a failed call. The set is closed.
type Kind int

const (
	KindTransport Kind = iota + 1 // Connection failure, timeout, cancellation
	KindAuth                      // Credential resolution or signing failure
	KindServer                    // Well-formed error response from the service
	KindDecode                    // Body did not match the expected shape
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) retryKind() retry.Kind {
	switch k {
	case KindTransport:
		return retry.KindTransport
	case KindAuth:
		return retry.KindAuth
	case KindServer:
		return retry.KindServer
	default:
		return retry.KindDecode
	}
}

// Codes the dispatcher assigns itself. Server errors carry the service's code.
const (
	CodeSerialization   = "SerializationError"
	CodeRequestError    = "RequestError"
	CodeRequestTimeout  = "RequestTimeout"
	CodeRequestCanceled = "RequestCanceled"
	CodeNoCredentials   = "NoCredentialProviders"
	CodeSigning         = "SigningError"
	CodeExecutorClosed  = "ExecutorClosed"
)

// Error is the single error type returned by dispatch.
type Error struct {
	Kind       Kind
	Code       string
	Message    string
	RequestID  string
	StatusCode int // 0 when no response was received
	Attempts   int
	Err        error // Underlying cause, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.Code != "" {
		b.WriteString(": ")
		b.WriteString(e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d", e.StatusCode)
		if e.RequestID != "" {
			fmt.Fprintf(&b, ", request id %s", e.RequestID)
		}
		b.WriteString(")")
	}
	if e.Err != nil && e.Message != e.Err.Error() {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// AWSError exposes e through aws-sdk-go's error interfaces, for callers that
// already branch on awserr.Error codes.
func (e *Error) AWSError() awserr.RequestFailure {
	return awserr.NewRequestFailure(awserr.New(e.Code, e.Message, e.Err), e.StatusCode, e.RequestID)
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsKind reports whether err is a dispatch error of kind k.
func IsKind(err error, k Kind) bool {
	de, ok := AsError(err)
	return ok && de.Kind == k
}

// IsCode reports whether err is a dispatch error with the given code.
func IsCode(err error, code string) bool {
	de, ok := AsError(err)
	return ok && de.Code == code
}
