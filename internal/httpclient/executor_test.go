package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockTransport struct {
	fn func(*http.Request) (*http.Response, error)
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.fn(req)
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestBackoff_DoublesFromBase(t *testing.T) {
	assert.Equal(t, time.Second, Backoff(time.Second, 0))
	assert.Equal(t, 2*time.Second, Backoff(time.Second, 1))
	assert.Equal(t, 4*time.Second, Backoff(time.Second, 2))
	assert.Equal(t, maxBackoff, Backoff(time.Second, 20))
}

func TestDoJSON_RetriesServerErrors(t *testing.T) {
	calls := 0
	client := &http.Client{Transport: &mockTransport{fn: func(*http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return respond(http.StatusInternalServerError, ""), nil
		}
		return respond(http.StatusOK, `{"ok":true}`), nil
	}}}

	e := New(zap.NewNop(), nil, client, 1, time.Millisecond, "test", nil)
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)

	var out map[string]bool
	require.NoError(t, e.DoJSON(context.Background(), req, &out))
	assert.True(t, out["ok"])
	assert.Equal(t, 2, calls)
}

func TestDoJSON_NoRetryOnClientError(t *testing.T) {
	calls := 0
	client := &http.Client{Transport: &mockTransport{fn: func(*http.Request) (*http.Response, error) {
		calls++
		return respond(http.StatusForbidden, `{"error":"nope"}`), nil
	}}}

	handlerStatus := 0
	e := New(zap.NewNop(), nil, client, 2, time.Millisecond, "test", func(status int, body []byte) error {
		handlerStatus = status
		return fmt.Errorf("denied: %d", status)
	})
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)

	err := e.DoJSON(context.Background(), req, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusForbidden, handlerStatus)
}

func TestDoJSON_ExhaustedServerErrorsHitHandler(t *testing.T) {
	client := &http.Client{Transport: &mockTransport{fn: func(*http.Request) (*http.Response, error) {
		return respond(http.StatusBadGateway, ""), nil
	}}}

	e := New(zap.NewNop(), nil, client, 1, time.Millisecond, "test", func(status int, body []byte) error {
		return fmt.Errorf("upstream: %d", status)
	})
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)

	err := e.DoJSON(context.Background(), req, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestDoJSON_DecodeFailure(t *testing.T) {
	client := &http.Client{Transport: &mockTransport{fn: func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `not-json`), nil
	}}}

	e := New(zap.NewNop(), nil, client, 0, time.Millisecond, "test", nil)
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)

	var out map[string]any
	err := e.DoJSON(context.Background(), req, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode failed")
}
