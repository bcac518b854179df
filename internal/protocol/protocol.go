// Package protocol encodes typed requests into HTTP requests and decodes responses
// for the wire formats used by the service clients.
//
// Three codecs are provided:
//
//   - Query: form-encoded Action/Version body, XML responses wrapped in <OpResult>
//   - JSONRPC: POST / with an X-Amz-Target header and a JSON body
//   - RESTJSON: URI templates, querystring and header bindings, JSON body
//
// Request and result models are plain structs. Optional members are opt.Value[T]
// and are only serialized when set.
package protocol

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrMissingURIParam is returned when a URI template placeholder has no value.
var ErrMissingURIParam = errors.New("protocol: missing uri parameter")

// Binding is the static wire description of one operation.
type Binding struct {
	OperationName string
	Method        string
	PathTemplate  string // e.g. /identitypools/{IdentityPoolId}/identity/{IdentityId}/device
	ResultWrapper string // Query protocol only, e.g. GetCallerIdentityResult
	APIVersion    string
	TargetPrefix  string // JSON protocol only, e.g. AmazonEC2ContainerServiceV20141113
}

// Request is an encoded request, not yet bound to an endpoint.
type Request struct {
	Method string
	Path   string // Escaped, starts with "/"
	Query  url.Values
	Header http.Header
	Body   []byte
}

// ErrorShape is the decoded form of a non-2xx response.
type ErrorShape struct {
	Code      string
	Type      string // Sender or Receiver, when the service says
	Message   string
	RequestID string
}

// Codec converts between typed models and the wire.
type Codec interface {
	Name() string
	EncodeRequest(b Binding, in any) (*Request, error)
	DecodeResult(b Binding, body []byte, out any) error
	DecodeError(status int, header http.Header, body []byte) (ErrorShape, error)
}

// RequestIDFromHeader returns the request id the service put in the response headers.
func RequestIDFromHeader(h http.Header) string {
	for _, k := range []string{"X-Amzn-Requestid", "X-Amz-Request-Id"} {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// CodeFromStatus derives an error code when the body carries none:
// 503 becomes "ServiceUnavailable".
func CodeFromStatus(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return fmt.Sprintf("HTTP%d", status)
	}
	return strings.ReplaceAll(strings.ReplaceAll(text, " ", ""), "-", "")
}

// sanitizeCode strips a "namespace#" prefix and a ":uri" suffix from an error type.
func sanitizeCode(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.LastIndexByte(code, '#'); i >= 0 {
		code = code[i+1:]
	}
	if i := strings.IndexByte(code, ':'); i >= 0 {
		code = code[:i]
	}
	return code
}

func methodOrDefault(m string) string {
	if m == "" {
		return http.MethodPost
	}
	return m
}
