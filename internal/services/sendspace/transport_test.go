package sendspace

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ochronus/gosendspace/internal/fakeapi"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithBaseURL(baseURL), WithLogger(testLogger())}, opts...)
	client, err := NewClient("test-api-key", opts...)
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	client, err := NewClient("test-api-key")
	require.NoError(t, err)

	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, DefaultAPIURL, client.baseURL)
	assert.Equal(t, DefaultUserAgent, client.userAgent)
	assert.Equal(t, DefaultTimeout, client.timeout)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.uploadClient)
	assert.NotNil(t, client.uploadClient.CheckRedirect, "uploads must not follow redirects")
	assert.Equal(t, "", client.SessionKey())
}

func TestNewClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		opts   []Option
	}{
		{"empty api key", "", nil},
		{"nil http client", "key", []Option{WithHTTPClient(nil)}},
		{"nil logger", "key", []Option{WithLogger(nil)}},
		{"negative speed limit", "key", []Option{WithSpeedLimit(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.apiKey, tt.opts...)
			assert.Nil(t, client)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestArgsEncodePreservesOrder(t *testing.T) {
	args := Args{}.Add("z", "1").Add("a", "x y").Add("z", "&=")
	assert.Equal(t, "z=1&a=x+y&z=%26%3D", args.Encode())
	assert.Equal(t, "", Args{}.Encode())
}

func TestCallBuildsQuery(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	srv.RespondOK("auth.createtoken", "<token>abc123</token>")

	client := newTestClient(t, srv.APIURL())
	env, err := client.call(context.Background(), "auth.createtoken", Args{
		{"api_key", "k"},
		{"api_version", "1.0"},
		{"response_format", "xml"},
	})
	require.NoError(t, err)

	token, err := env.Value("token")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	calls := srv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "method=auth.createtoken&api_key=k&api_version=1.0&response_format=xml", calls[0].RawQuery)
}

func TestCallMethodMismatch(t *testing.T) {
	for _, status := range []string{"ok", "fail"} {
		t.Run(status, func(t *testing.T) {
			srv := fakeapi.New()
			defer srv.Close()
			srv.Respond("auth.login", fakeapi.Result("auth.logout", status, `<error code="6" text="bad"/>`))

			client := newTestClient(t, srv.APIURL())
			_, err := client.call(context.Background(), "auth.login", nil)
			assert.ErrorIs(t, err, ErrProtocol)

			var apiErr *APIError
			assert.False(t, errors.As(err, &apiErr), "mismatch must not be reported as a server error")
		})
	}
}

func TestCallFailStatus(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	srv.RespondFail("upload.getinfo", int(ErrorBandwidthLimit), "Bandwidth limit exceeded")

	client := newTestClient(t, srv.APIURL())
	_, err := client.call(context.Background(), "upload.getinfo", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
	assert.Contains(t, err.Error(), "Bandwidth limit exceeded")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ErrorBandwidthLimit, apiErr.Code)
	assert.Equal(t, "fail", apiErr.Status)
	assert.Equal(t, "upload.getinfo", apiErr.Method)
}

func TestCallFailWithoutErrorEntry(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	srv.Respond("auth.login", fakeapi.Result("auth.login", "fail"))

	client := newTestClient(t, srv.APIURL())
	_, err := client.call(context.Background(), "auth.login", nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "unknown error", apiErr.Text)
	assert.Equal(t, ErrorCode(0), apiErr.Code)
}

func TestCallResponseErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"empty body", http.StatusOK, "", ErrEmptyResponse},
		{"whitespace body", http.StatusOK, "  \n", ErrMalformedResponse},
		{"malformed", http.StatusOK, `<result method="x" status="ok">`, ErrMalformedResponse},
		{"not a result document", http.StatusOK, `<html><body>oops</body></html>`, ErrProtocol},
		{"http error", http.StatusInternalServerError, "boom", ErrProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL+"/rest/", WithHTTPClient(server.Client()))
			env, err := client.call(context.Background(), "x", nil)
			assert.Nil(t, env)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCallTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithTimeout(50*time.Millisecond))
	_, err := client.call(context.Background(), "auth.checksession", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
