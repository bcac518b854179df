package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// JSONRPC is the AWS JSON protocol: every operation is POST / with the operation
// named in X-Amz-Target.
type JSONRPC struct {
	Version string // "1.0" or "1.1"
}

// Name returns "json".
func (JSONRPC) Name() string { return "json" }

// EncodeRequest marshals in as the body. Unset optional members are dropped by
// their omitzero tags.
func (j JSONRPC) EncodeRequest(b Binding, in any) (*Request, error) {
	body := []byte("{}")
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.OperationName, err)
		}
	}
	version := j.Version
	if version == "" {
		version = "1.1"
	}

	header := http.Header{}
	header.Set("Content-Type", "application/x-amz-json-"+version)
	header.Set("X-Amz-Target", b.TargetPrefix+"."+b.OperationName)
	return &Request{
		Method: http.MethodPost,
		Path:   "/",
		Query:  url.Values{},
		Header: header,
		Body:   body,
	}, nil
}

// DecodeResult unmarshals body into out. An empty body leaves out untouched;
// null, arrays and scalars are rejected.
func (JSONRPC) DecodeResult(b Binding, body []byte, out any) error {
	return decodeJSONBody(b, body, out)
}

// DecodeError probes the body for __type/code and message.
func (JSONRPC) DecodeError(status int, header http.Header, body []byte) (ErrorShape, error) {
	return decodeJSONError(status, header, body, "")
}

var errNotObject = errors.New("result is not a JSON object")

// decodeJSONBody accepts an empty body as a result with no members set. Any
// other body must be a JSON object.
func decodeJSONBody(b Binding, body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if out == nil || len(trimmed) == 0 {
		return nil
	}
	if !gjson.ParseBytes(trimmed).IsObject() {
		return fmt.Errorf("json: decode %s result: %w", b.OperationName, errNotObject)
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("json: decode %s result: %w", b.OperationName, err)
	}
	return nil
}

var errMalformedJSON = errors.New("json: malformed error response")

func decodeJSONError(status int, header http.Header, body []byte, headerCode string) (ErrorShape, error) {
	shape := ErrorShape{RequestID: RequestIDFromHeader(header)}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 {
		if !gjson.ValidBytes(trimmed) {
			return shape, errMalformedJSON
		}
		res := gjson.GetManyBytes(trimmed, "__type", "code", "Code", "message", "Message", "errorMessage", "RequestId", "requestId")
		shape.Code = firstNonEmpty(res[0].String(), res[1].String(), res[2].String())
		shape.Message = firstNonEmpty(res[3].String(), res[4].String(), res[5].String())
		if shape.RequestID == "" {
			shape.RequestID = firstNonEmpty(res[6].String(), res[7].String())
		}
	}
	if headerCode != "" {
		shape.Code = headerCode
	}
	shape.Code = sanitizeCode(shape.Code)
	if shape.Code == "" {
		shape.Code = CodeFromStatus(status)
	}
	return shape, nil
}
