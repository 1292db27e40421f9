package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"visaworkflow-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestInstrumentClientWritesMessages(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:restyutil")
	defer cleanup()
	telemetry.InitSlog(true)
	defer telemetry.InitSlog(false)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		w.Write([]byte("<p>hello</p>"))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "resty")
	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	client := resty.New()
	InstrumentClient(client, nil, out)

	res, err := client.R().Get(server.URL + "/doctors")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())

	contents, err := os.ReadFile(filepath.Join(dir, "1.http"))
	require.NoError(t, err)
	require.Contains(t, string(contents), "GET "+server.URL+"/doctors")
	require.Contains(t, string(contents), "<p>hello</p>")
}

func TestFormatHttpMessageRedactsAndTruncates(t *testing.T) {
	body := strings.Repeat("a", maxDumpedBody+10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "secret-session"})
		w.Header().Set("x-page", "ir-1")
		w.Write([]byte(body))
	}))
	defer server.Close()

	res, err := resty.New().R().
		SetHeader("Authorization", "Bearer secret-token").
		Get(server.URL)
	require.NoError(t, err)

	message := formatHttpMessage(res)
	require.NotContains(t, message, "secret-token")
	require.NotContains(t, message, "secret-session")
	require.Contains(t, message, "Authorization: <redacted>")
	require.Contains(t, message, "X-Page: ir-1")
	require.Contains(t, message, "(10 bytes truncated)")
	require.True(t, strings.HasPrefix(message, "---- REQUEST ----\n\nGET "+server.URL))
}

func TestFormatHttpMessageRequestBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	res, err := resty.New().R().Get(server.URL + "/barcelona/ir-1")
	require.NoError(t, err)
	require.NotPanics(t, func() {
		message := formatHttpMessage(res)
		require.Contains(t, message, "---- RESPONSE ----\n\n204 ")
	})

	res, err = resty.New().R().
		SetBody(`{"country":"Andorra"}`).
		Post(server.URL + "/refresh")
	require.NoError(t, err)
	require.Contains(t, formatHttpMessage(res), `{"country":"Andorra"}`)
}
