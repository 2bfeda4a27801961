package soap

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/natserract/mkto/pkg/marketo"
)

func TestTransport_Send(t *testing.T) {
	var gotAction, gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotAction = r.Header.Get("SOAPAction")
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(getLeadResponse))
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, WithLogger(zap.NewNop()))
	resp, err := tr.Send(context.Background(), "getLead",
		marketo.Fields{{Name: "leadKey", Value: marketo.ByEmail("a@x.com").WirePayload()}},
		authHeader())

	require.NoError(t, err)
	assert.Contains(t, resp, "successGetLead")
	assert.Equal(t, NsMarketo+"getLead", gotAction)
	assert.Equal(t, "text/xml;charset=UTF-8", gotContentType)
	assert.Contains(t, gotBody, "<ns1:paramsGetLead>")
	assert.Contains(t, gotBody, "<ns1:AuthenticationHeader>")
}

func TestTransport_FaultNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(authFaultResponse))
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, WithMaxTries(3))
	_, err := tr.Send(context.Background(), "getLead", marketo.Fields{}, authHeader())

	var fault *Fault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, "20014", fault.ServiceCode())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTransport_FaultWithOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(authFaultResponse))
	}))
	defer srv.Close()

	_, err := NewTransport(srv.URL).Send(context.Background(), "getLead", marketo.Fields{}, authHeader())
	assert.True(t, IsFault(err))
}

func TestTransport_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("maintenance"))
			return
		}
		_, _ = w.Write([]byte(getLeadResponse))
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, WithMaxTries(2), WithTimeout(5*time.Second))
	_, err := tr.Send(context.Background(), "getLead", marketo.Fields{}, authHeader())

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTransport_ServerErrorWithoutRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewTransport(srv.URL).Send(context.Background(), "getLead", marketo.Fields{}, authHeader())
	require.Error(t, err)
	assert.False(t, IsFault(err))
	assert.True(t, strings.HasPrefix(err.Error(), "post getLead:"))
}

func TestTransport_WithMarketoClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(getLeadResponse))
	}))
	defer srv.Close()

	client := marketo.NewClientWithLogger(
		NewTransport(srv.URL),
		marketo.NewAuthenticationHeader("ak", "sk"),
		zap.NewNop(),
	)

	rec := client.GetLeadByEmail(context.Background(), "a@x.com")
	require.NotNil(t, rec)
	assert.Equal(t, "1001", rec.ID)
	assert.Equal(t, "Ada", rec.String("FirstName"))
}

type kindRecorder struct {
	kinds []marketo.ErrorKind
}

func (k *kindRecorder) Log(err error) {
	k.kinds = append(k.kinds, marketo.KindOf(err))
}

func TestTransport_ErrorKindsSeenByClient(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   marketo.ErrorKind
	}{
		{"fault", http.StatusInternalServerError, authFaultResponse, marketo.KindMalformedResponse},
		{"not xml", http.StatusOK, "<html><body>maintenance", marketo.KindMalformedResponse},
		{"empty body", http.StatusOK, `<Envelope><Body></Body></Envelope>`, marketo.KindMalformedResponse},
		{"gateway error", http.StatusBadGateway, "bad gateway", marketo.KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			sink := &kindRecorder{}
			client := marketo.NewClientWithLogger(NewTransport(srv.URL), marketo.NewAuthenticationHeader("ak", "sk"), zap.NewNop())
			client.SetErrorLogger(sink)

			assert.Nil(t, client.GetLeadByID(context.Background(), "1"))
			assert.Equal(t, []marketo.ErrorKind{tt.want}, sink.kinds)
		})
	}
}

func TestTransport_IndentedEmptyLeadList(t *testing.T) {
	const body = `<?xml version="1.0" encoding="UTF-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/" xmlns:ns1="http://www.marketo.com/mktows/">
  <SOAP-ENV:Body>
    <ns1:successGetMultipleLeads>
      <result>
        <returnCount>0</returnCount>
        <leadRecordList>
        </leadRecordList>
      </result>
    </ns1:successGetMultipleLeads>
  </SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	sink := &kindRecorder{}
	client := marketo.NewClientWithLogger(NewTransport(srv.URL), marketo.NewAuthenticationHeader("ak", "sk"), zap.NewNop())
	client.SetErrorLogger(sink)

	recs := client.GetLeadsByEmails(context.Background(), []string{"a@x.com"})
	require.NotNil(t, recs)
	assert.Empty(t, recs)
	assert.Empty(t, sink.kinds)
}
