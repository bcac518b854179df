package protocol

import (
	"encoding/xml"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wirecall/internal/enum"
	"wirecall/internal/opt"
)

type color int

const (
	colorNotSet color = iota
	colorRed
	colorBlue
)

var colorNames = enum.NewMapper(
	enum.Entry[color]{Value: colorRed, Name: "RED"},
	enum.Entry[color]{Value: colorBlue, Name: "BLUE"},
)

func (c color) MarshalText() ([]byte, error)     { return colorNames.MarshalText(c) }
func (c *color) UnmarshalText(text []byte) error { return colorNames.UnmarshalText(text, c) }
func (c color) IsKnown() bool                    { return colorNames.Known(c) }

type tag struct {
	Key   opt.Value[string] `query:"Key" json:"Key,omitzero"`
	Value opt.Value[string] `query:"Value" json:"Value,omitzero"`
}

type paintInput struct {
	Name     opt.Value[string]    `query:"Name" json:"Name,omitzero"`
	Coats    opt.Value[int64]     `query:"Coats" json:"Coats,omitzero"`
	Glossy   opt.Value[bool]      `query:"Glossy" json:"Glossy,omitzero"`
	Color    opt.Value[color]     `query:"Color" json:"Color,omitzero"`
	Tags     []tag                `query:"Tags" json:"Tags,omitempty"`
	Arns     []string             `query:"Arns" json:"Arns,omitempty"`
	Started  opt.Value[time.Time] `query:"Started" json:"-"`
	Internal string               `query:"-" json:"-"`
}

func TestQuery_EncodeOnlySetFields(t *testing.T) {
	b := Binding{OperationName: "Paint", APIVersion: "2020-01-01", Method: http.MethodPost}

	req, err := Query{}.EncodeRequest(b, &paintInput{Name: opt.Of("wall")})
	require.NoError(t, err)
	assert.Equal(t, "Action=Paint&Name=wall&Version=2020-01-01", string(req.Body))
	assert.Equal(t, "/", req.Path)
	assert.Equal(t, "application/x-www-form-urlencoded; charset=utf-8", req.Header.Get("Content-Type"))

	req, err = Query{}.EncodeRequest(b, &paintInput{})
	require.NoError(t, err)
	assert.Equal(t, "Action=Paint&Version=2020-01-01", string(req.Body))
}

func TestQuery_EncodeNestedAndLists(t *testing.T) {
	in := &paintInput{
		Name:     opt.Of(""),
		Coats:    opt.Of(int64(0)),
		Glossy:   opt.Of(false),
		Color:    opt.Of(colorBlue),
		Tags:     []tag{{Key: opt.Of("env"), Value: opt.Of("prod")}, {Key: opt.Of("team")}},
		Arns:     []string{},
		Started:  opt.Of(time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)),
		Internal: "never sent",
	}
	req, err := Query{}.EncodeRequest(Binding{OperationName: "Paint", APIVersion: "v"}, in)
	require.NoError(t, err)

	form, err := url.ParseQuery(string(req.Body))
	require.NoError(t, err)
	want := url.Values{
		"Action":              {"Paint"},
		"Version":             {"v"},
		"Name":                {""},
		"Coats":               {"0"},
		"Glossy":              {"false"},
		"Color":               {"BLUE"},
		"Tags.member.1.Key":   {"env"},
		"Tags.member.1.Value": {"prod"},
		"Tags.member.2.Key":   {"team"},
		"Arns":                {""},
		"Started":             {"2024-05-06T07:08:09Z"},
	}
	if diff := cmp.Diff(want, form); diff != "" {
		t.Errorf("form mismatch (-want +got):\n%s", diff)
	}
}

func TestQuery_EncodeSkipsUnknownEnum(t *testing.T) {
	in := &paintInput{Color: opt.Of(color(42))}
	req, err := Query{}.EncodeRequest(Binding{OperationName: "Paint", APIVersion: "v"}, in)
	require.NoError(t, err)
	assert.NotContains(t, string(req.Body), "Color")
}

func TestQuery_EncodeIsDeterministic(t *testing.T) {
	in := &paintInput{Name: opt.Of("a"), Coats: opt.Of(int64(2)), Arns: []string{"x", "y"}}
	b := Binding{OperationName: "Paint", APIVersion: "v"}
	first, err := Query{}.EncodeRequest(b, in)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Query{}.EncodeRequest(b, in)
		require.NoError(t, err)
		assert.Equal(t, string(first.Body), string(again.Body))
	}
}

func TestQuery_EncodeFlattenedAndMap(t *testing.T) {
	type input struct {
		IDs   []string          `query:"Id,flattened"`
		Attrs map[string]string `query:"Attributes"`
	}
	req, err := Query{}.EncodeRequest(Binding{OperationName: "Op", APIVersion: "v"}, input{
		IDs:   []string{"a", "b"},
		Attrs: map[string]string{"z": "1", "a": "2"},
	})
	require.NoError(t, err)
	form, err := url.ParseQuery(string(req.Body))
	require.NoError(t, err)
	assert.Equal(t, "a", form.Get("Id.1"))
	assert.Equal(t, "b", form.Get("Id.2"))
	assert.Equal(t, "a", form.Get("Attributes.entry.1.key"))
	assert.Equal(t, "2", form.Get("Attributes.entry.1.value"))
	assert.Equal(t, "z", form.Get("Attributes.entry.2.key"))
}

type paintResult struct {
	XMLName xml.Name `xml:"PaintResult"`

	Name  opt.Value[string] `xml:"Name"`
	Coats opt.Value[int64]  `xml:"Coats"`
	Color opt.Value[color]  `xml:"Color"`
	Tags  []tag             `xml:"Tags>member"`
}

const paintResponse = `<?xml version="1.0"?>
<PaintResponse xmlns="https://example.com/doc/2020-01-01/">
  <PaintResult>
    <Name>wall</Name>
    <Color>MAUVE</Color>
    <Tags><member><Key>env</Key><Value>prod</Value></member></Tags>
  </PaintResult>
  <ResponseMetadata><RequestId>req-1</RequestId></ResponseMetadata>
</PaintResponse>`

func TestQuery_DecodeResult(t *testing.T) {
	var out paintResult
	b := Binding{OperationName: "Paint", ResultWrapper: "PaintResult"}
	require.NoError(t, Query{}.DecodeResult(b, []byte(paintResponse), &out))

	assert.Equal(t, "wall", out.Name.OrElse(""))
	assert.False(t, out.Coats.IsSet(), "absent field must stay unset")
	assert.False(t, out.Color.IsSet(), "unknown enum must stay unset")
	require.Len(t, out.Tags, 1)
	assert.Equal(t, "prod", out.Tags[0].Value.OrElse(""))
}

func TestQuery_DecodeResultMalformed(t *testing.T) {
	b := Binding{OperationName: "Paint", ResultWrapper: "PaintResult"}
	var out paintResult
	assert.Error(t, Query{}.DecodeResult(b, []byte(`<PaintResponse><PaintResult><Name>x</PaintResult>`), &out))
	assert.Error(t, Query{}.DecodeResult(b, []byte(`<OtherResponse/>`), &out))
	assert.Error(t, Query{}.DecodeResult(b, nil, &out))
}

func TestQuery_DecodeThenEncodePreservesSetSubset(t *testing.T) {
	var out paintResult
	b := Binding{OperationName: "Paint", ResultWrapper: "PaintResult"}
	require.NoError(t, Query{}.DecodeResult(b, []byte(paintResponse), &out))

	encoded, err := xml.Marshal(out)
	require.NoError(t, err)

	var again paintResult
	require.NoError(t, Query{}.DecodeResult(b, encoded, &again))
	out.XMLName, again.XMLName = xml.Name{}, xml.Name{}
	if diff := cmp.Diff(out, again, cmp.AllowUnexported(opt.Value[string]{}, opt.Value[int64]{}, opt.Value[color]{})); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}
	assert.NotContains(t, string(encoded), "Coats")
	assert.NotContains(t, string(encoded), "Color")
}

func TestQuery_DecodeError(t *testing.T) {
	body := `<ErrorResponse xmlns="https://sts.amazonaws.com/doc/2011-06-15/">
  <Error><Type>Sender</Type><Code>ExpiredTokenException</Code><Message>token expired</Message></Error>
  <RequestId>err-req</RequestId>
</ErrorResponse>`
	shape, err := Query{}.DecodeError(400, http.Header{}, []byte(body))
	require.NoError(t, err)
	assert.Equal(t, ErrorShape{Code: "ExpiredTokenException", Type: "Sender", Message: "token expired", RequestID: "err-req"}, shape)

	shape, err = Query{}.DecodeError(503, http.Header{"X-Amzn-Requestid": {"hdr"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ServiceUnavailable", shape.Code)
	assert.Equal(t, "hdr", shape.RequestID)

	_, err = Query{}.DecodeError(500, http.Header{}, []byte("<html"))
	assert.Error(t, err)
}

func TestCodeFromStatus(t *testing.T) {
	assert.Equal(t, "InternalServerError", CodeFromStatus(500))
	assert.Equal(t, "TooManyRequests", CodeFromStatus(429))
	assert.Equal(t, "HTTP599", CodeFromStatus(599))
}

func TestSanitizeCode(t *testing.T) {
	assert.Equal(t, "ValidationException", sanitizeCode("com.amazon.coral.validate#ValidationException"))
	assert.Equal(t, "ValidationException", sanitizeCode("ValidationException:http://internal.amazon.com/coral/"))
	assert.Equal(t, "Plain", sanitizeCode(" Plain "))
}
