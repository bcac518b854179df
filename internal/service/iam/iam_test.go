package iam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wirecall/internal/auth"
	"wirecall/internal/dispatch"
	"wirecall/internal/enum"
	"wirecall/internal/retry"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	d, err := dispatch.New(Service,
		dispatch.WithEndpoint(srv.URL),
		dispatch.WithRegion("eu-west-1"),
		dispatch.WithCredentials(auth.NewStaticProvider("AKID", "SECRET", "")),
		dispatch.WithRetryPolicy(retry.Never{}),
	)
	require.NoError(t, err)
	c := NewWithDispatcher(d)
	t.Cleanup(c.Close)
	return c
}

func TestReportStateType_Mapping(t *testing.T) {
	for _, name := range []string{"STARTED", "INPROGRESS", "COMPLETE"} {
		v := ReportStateTypeForName(name)
		assert.True(t, v.IsKnown(), name)
		assert.Equal(t, name, v.String())
	}
	assert.Equal(t, ReportStateTypeNotSet, ReportStateTypeForName("complete"))
	assert.Equal(t, "", ReportStateTypeNotSet.String())

	assert.Equal(t, ReportFormatTypeTextCSV, ReportFormatTypeForName("text/csv"))
	assert.Equal(t, ReportFormatTypeNotSet, ReportFormatTypeForName("application/json"))
}

func TestEnumsRegistered(t *testing.T) {
	names := map[string][]string{}
	for _, tbl := range enum.Registered() {
		names[tbl.Type] = tbl.Names
	}
	assert.Equal(t, []string{"STARTED", "INPROGRESS", "COMPLETE"}, names["iam.ReportStateType"])
	assert.Equal(t, []string{"text/csv"}, names["iam.ReportFormatType"])
}

func TestGlobalEndpoint(t *testing.T) {
	d, err := dispatch.New(Service, dispatch.WithRegion("eu-west-1"),
		dispatch.WithCredentials(auth.NewStaticProvider("a", "b", "")))
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, "https://iam.amazonaws.com", d.Endpoint())

	cn, err := dispatch.New(Service, dispatch.WithRegion("cn-northwest-1"),
		dispatch.WithCredentials(auth.NewStaticProvider("a", "b", "")))
	require.NoError(t, err)
	defer cn.Close()
	assert.Equal(t, "https://iam.cn-north-1.amazonaws.com.cn", cn.Endpoint())
}

func TestGetCredentialReport_DecodesContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "GetCredentialReport", r.PostForm.Get("Action"))
		assert.Equal(t, "2010-05-08", r.PostForm.Get("Version"))
		assert.Contains(t, r.Header.Get("Authorization"), "/us-east-1/iam/aws4_request", "global service signs for us-east-1")
		_, _ = w.Write([]byte(`<GetCredentialReportResponse xmlns="https://iam.amazonaws.com/doc/2010-05-08/">
  <GetCredentialReportResult>
    <Content>dXNlcixhcm4KMSwy</Content>
    <ReportFormat>text/csv</ReportFormat>
    <GeneratedTime>2024-03-01T10:00:00Z</GeneratedTime>
  </GetCredentialReportResult>
</GetCredentialReportResponse>`))
	})

	out, err := c.GetCredentialReport(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "user,arn\n1,2", string(out.Content.MustGet()))
	assert.Equal(t, ReportFormatTypeTextCSV, out.ReportFormat.MustGet())
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), out.GeneratedTime.MustGet())
}

func TestGetCredentialReport_NotPresent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
		_, _ = w.Write([]byte(`<ErrorResponse><Error><Type>Sender</Type><Code>ReportNotPresent</Code><Message>generate first</Message></Error><RequestId>r-9</RequestId></ErrorResponse>`))
	})
	_, err := c.GetCredentialReport(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, dispatch.IsCode(err, ErrCodeCredentialReportNotPresent))
	derr, _ := dispatch.AsError(err)
	assert.Equal(t, "r-9", derr.RequestID)
	assert.Equal(t, http.StatusGone, derr.StatusCode)
}

func TestGenerateCredentialReport_UnknownStateIsUnset(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<GenerateCredentialReportResponse><GenerateCredentialReportResult>
  <State>QUEUED</State><Description>later</Description>
</GenerateCredentialReportResult></GenerateCredentialReportResponse>`))
	})
	out, err := c.GenerateCredentialReport(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, out.State.IsSet())
	assert.Equal(t, "later", out.Description.OrElse(""))
}

func TestWaitForCredentialReport(t *testing.T) {
	var generates atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		switch r.PostForm.Get("Action") {
		case "GenerateCredentialReport":
			state := "STARTED"
			if generates.Add(1) >= 3 {
				state = "COMPLETE"
			}
			_, _ = w.Write([]byte(`<GenerateCredentialReportResponse><GenerateCredentialReportResult><State>` + state +
				`</State></GenerateCredentialReportResult></GenerateCredentialReportResponse>`))
		case "GetCredentialReport":
			_, _ = w.Write([]byte(`<GetCredentialReportResponse><GetCredentialReportResult><Content>YQ==</Content></GetCredentialReportResult></GetCredentialReportResponse>`))
		}
	})

	out, err := c.WaitForCredentialReport(context.Background(), time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "a", string(out.Content.MustGet()))
	assert.Equal(t, int32(3), generates.Load())
}

func TestWaitForCredentialReport_Cancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<GenerateCredentialReportResponse><GenerateCredentialReportResult><State>INPROGRESS</State></GenerateCredentialReportResult></GenerateCredentialReportResponse>`))
	})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.WaitForCredentialReport(ctx, 5*time.Millisecond)
	require.Error(t, err)
}

func TestGetCredentialReportAsync(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<GetCredentialReportResponse><GetCredentialReportResult><Content>YQ==</Content></GetCredentialReportResult></GetCredentialReportResponse>`))
	})
	outcome, err := c.GetCredentialReportAsync(context.Background(), nil).Await(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.OK())
	assert.Equal(t, "a", string(outcome.Result().Content.MustGet()))
}
