package protocol

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"strings"
)

// RESTJSON binds members to the URI, querystring and headers by their `location`
// tag and sends the rest as a JSON body:
//
//	IdentityPoolId opt.Value[string] `location:"uri" locationName:"IdentityPoolId" json:"-"`
//	MaxResults     opt.Value[int64]  `location:"querystring" locationName:"maxResults" json:"-"`
//
// Bound members must carry json:"-" so they stay out of the body.
type RESTJSON struct{}

// Name returns "rest-json".
func (RESTJSON) Name() string { return "rest-json" }

var uriParam = regexp.MustCompile(`\{([^{}]+)\}`)

// EncodeRequest expands the path template and fills query, headers and body.
func (RESTJSON) EncodeRequest(b Binding, in any) (*Request, error) {
	tmpl, rawQuery, _ := strings.Cut(b.PathTemplate, "?")
	if tmpl == "" {
		tmpl = "/"
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("%s: bad path template: %w", b.OperationName, err)
	}
	header := http.Header{}
	uri := map[string]string{}

	v, err := structOf(in)
	if err != nil {
		return nil, err
	}
	if v.IsValid() {
		if err := bindLocations(v, uri, query, header); err != nil {
			return nil, fmt.Errorf("%s: %w", b.OperationName, err)
		}
	}

	path, err := expandPath(tmpl, uri)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.OperationName, err)
	}

	var body []byte
	if in != nil {
		body, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.OperationName, err)
		}
		if string(body) == "{}" {
			body = nil
		}
	}
	if body != nil {
		header.Set("Content-Type", "application/json")
	}

	return &Request{
		Method: methodOrDefault(b.Method),
		Path:   path,
		Query:  query,
		Header: header,
		Body:   body,
	}, nil
}

func bindLocations(v reflect.Value, uri map[string]string, query url.Values, header http.Header) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		loc := f.Tag.Get("location")
		if loc == "" || !f.IsExported() {
			continue
		}
		name := f.Tag.Get("locationName")
		if name == "" {
			name = f.Name
		}
		fv, ok := unwrap(v.Field(i))
		if !ok {
			continue
		}

		switch loc {
		case "uri":
			s, handled, err := formatScalar(fv, iso8601Format)
			if err != nil || !handled {
				return fmt.Errorf("uri member %s: unsupported type %s", name, fv.Type())
			}
			uri[name] = s
		case "querystring":
			if err := addQueryValues(query, name, fv); err != nil {
				return err
			}
		case "header":
			s, handled, err := formatScalar(fv, http.TimeFormat)
			if err != nil || !handled {
				return fmt.Errorf("header member %s: unsupported type %s", name, fv.Type())
			}
			header.Set(name, s)
		default:
			return fmt.Errorf("member %s: unknown location %q", f.Name, loc)
		}
	}
	return nil
}

func addQueryValues(query url.Values, name string, v reflect.Value) error {
	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() != reflect.Uint8 {
		for i := 0; i < v.Len(); i++ {
			ev, ok := unwrap(v.Index(i))
			if !ok {
				continue
			}
			s, handled, err := formatScalar(ev, iso8601Format)
			if err != nil || !handled {
				return fmt.Errorf("querystring member %s: unsupported type %s", name, ev.Type())
			}
			query.Add(name, s)
		}
		return nil
	}
	s, handled, err := formatScalar(v, iso8601Format)
	if err != nil || !handled {
		return fmt.Errorf("querystring member %s: unsupported type %s", name, v.Type())
	}
	query.Set(name, s)
	return nil
}

// expandPath substitutes {Name} with the escaped value. {Name+} is greedy: slashes
// in the value are kept as path separators.
func expandPath(tmpl string, uri map[string]string) (string, error) {
	var missing string
	out := uriParam.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		greedy := strings.HasSuffix(name, "+")
		name = strings.TrimSuffix(name, "+")
		val, ok := uri[name]
		if !ok || val == "" {
			if missing == "" {
				missing = name
			}
			return m
		}
		if !greedy {
			return url.PathEscape(val)
		}
		segs := strings.Split(val, "/")
		for i, s := range segs {
			segs[i] = url.PathEscape(s)
		}
		return strings.Join(segs, "/")
	})
	if missing != "" {
		return "", fmt.Errorf("%w %s", ErrMissingURIParam, missing)
	}
	return out, nil
}

// DecodeResult unmarshals the JSON body into out.
func (RESTJSON) DecodeResult(b Binding, body []byte, out any) error {
	return decodeJSONBody(b, body, out)
}

// DecodeError prefers the X-Amzn-ErrorType header over the body's type.
func (RESTJSON) DecodeError(status int, header http.Header, body []byte) (ErrorShape, error) {
	return decodeJSONError(status, header, body, header.Get("X-Amzn-Errortype"))
}
