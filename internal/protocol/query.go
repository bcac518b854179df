package protocol

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"sort"
)

// Query is the AWS query protocol: a form body carrying Action, Version and the
// request members, answered with XML.
//
// Members are named by the `query` struct tag (default: the field name). Lists
// serialize as Name.member.N, or Name.N with the "flattened" option; nested
// structs as Name.Field; maps as Name.entry.N.key / .value.
type Query struct{}

// Name returns "query".
func (Query) Name() string { return "query" }

// EncodeRequest builds the form body. Keys are sorted, so the output is stable.
func (Query) EncodeRequest(b Binding, in any) (*Request, error) {
	form := url.Values{}
	form.Set("Action", b.OperationName)
	form.Set("Version", b.APIVersion)

	v, err := structOf(in)
	if err != nil {
		return nil, err
	}
	if v.IsValid() {
		if err := encodeQueryStruct(form, "", v); err != nil {
			return nil, fmt.Errorf("%s: %w", b.OperationName, err)
		}
	}

	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
	path := b.PathTemplate
	if path == "" {
		path = "/"
	}
	return &Request{
		Method: methodOrDefault(b.Method),
		Path:   path,
		Query:  url.Values{},
		Header: header,
		Body:   []byte(form.Encode()),
	}, nil
}

func encodeQueryStruct(form url.Values, prefix string, v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts := parseTag(f.Tag.Get("query"))
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		if err := encodeQueryValue(form, name, v.Field(i), opts.Contains("flattened")); err != nil {
			return err
		}
	}
	return nil
}

func encodeQueryValue(form url.Values, name string, v reflect.Value, flattened bool) error {
	v, ok := unwrap(v)
	if !ok {
		return nil
	}

	s, handled, err := formatScalar(v, iso8601Format)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if handled {
		form.Set(name, s)
		return nil
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil
		}
		if v.Len() == 0 {
			// An explicitly empty list is sent as a bare key.
			form.Set(name, "")
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			key := fmt.Sprintf("%s.member.%d", name, i+1)
			if flattened {
				key = fmt.Sprintf("%s.%d", name, i+1)
			}
			if err := encodeQueryValue(form, key, v.Index(i), false); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		keys := make([]string, 0, v.Len())
		byKey := make(map[string]reflect.Value, v.Len())
		for _, k := range v.MapKeys() {
			ks := fmt.Sprint(k.Interface())
			keys = append(keys, ks)
			byKey[ks] = v.MapIndex(k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			entry := fmt.Sprintf("%s.entry.%d", name, i+1)
			form.Set(entry+".key", k)
			if err := encodeQueryValue(form, entry+".value", byKey[k], false); err != nil {
				return err
			}
		}
		return nil

	case reflect.Struct:
		return encodeQueryStruct(form, name, v)
	}
	return fmt.Errorf("%s: unsupported type %s", name, v.Type())
}

// DecodeResult finds the <ResultWrapper> element and decodes it into out. A
// response without the wrapper is malformed.
func (Query) DecodeResult(b Binding, body []byte, out any) error {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if b.ResultWrapper == "" {
				return nil
			}
			return fmt.Errorf("query: missing <%s> in %s response", b.ResultWrapper, b.OperationName)
		}
		if err != nil {
			return fmt.Errorf("query: malformed %s response: %w", b.OperationName, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if b.ResultWrapper == "" || out == nil {
			// Nothing to bind; still require a well-formed document.
			if err := dec.Skip(); err != nil {
				return fmt.Errorf("query: malformed %s response: %w", b.OperationName, err)
			}
			return nil
		}
		if se.Name.Local != b.ResultWrapper {
			continue
		}
		if err := dec.DecodeElement(out, &se); err != nil {
			return fmt.Errorf("query: decode %s: %w", b.ResultWrapper, err)
		}
		return nil
	}
}

type queryErrorResponse struct {
	Code      string `xml:"Error>Code"`
	Type      string `xml:"Error>Type"`
	Message   string `xml:"Error>Message"`
	RequestID string `xml:"RequestId"`

	// <Response><Errors><Error> variant
	ListCode    string `xml:"Errors>Error>Code"`
	ListMessage string `xml:"Errors>Error>Message"`
	ListReqID   string `xml:"RequestID"`
}

// DecodeError reads an <ErrorResponse> document. An empty body yields a code
// derived from the status.
func (Query) DecodeError(status int, header http.Header, body []byte) (ErrorShape, error) {
	shape := ErrorShape{RequestID: RequestIDFromHeader(header)}
	if len(bytes.TrimSpace(body)) == 0 {
		shape.Code = CodeFromStatus(status)
		return shape, nil
	}

	var resp queryErrorResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return shape, fmt.Errorf("query: malformed error response: %w", err)
	}
	shape.Code = sanitizeCode(firstNonEmpty(resp.Code, resp.ListCode))
	shape.Type = resp.Type
	shape.Message = firstNonEmpty(resp.Message, resp.ListMessage)
	if shape.RequestID == "" {
		shape.RequestID = firstNonEmpty(resp.RequestID, resp.ListReqID)
	}
	if shape.Code == "" {
		shape.Code = CodeFromStatus(status)
	}
	return shape, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
