// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SendsHeadersAndBody(t *testing.T) {
	var gotAuth, gotCT, gotBody, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		gotQuery = r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := New(server.URL).WithBearerToken("tok")
	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/v1/things",
		Query:  url.Values{"limit": []string{"5"}},
		JSON:   map[string]string{"name": "x"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, "limit=5", gotQuery)
	assert.JSONEq(t, `{"name":"x"}`, gotBody)
}

func TestDo_ReturnsErrorStatusWithoutError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"bad opal"}`))
	}))
	defer server.Close()

	resp, err := New(server.URL).Do(context.Background(), Request{Path: "/q"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.False(t, resp.IsSuccess())
	assert.Contains(t, string(resp.Body), "bad opal")
}

func TestDo_NoRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	resp, err := New(server.URL).Do(context.Background(), Request{Path: "/"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestDo_BasicAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "me@example.com" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	resp, err := New(server.URL).WithBasicAuth("me@example.com", "secret").Do(context.Background(), Request{Path: "/rest/api/search"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDo_ResponseTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	_, err := New(server.URL).WithMaxResponseSize(10).Do(context.Background(), Request{Path: "/"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResponseTooLarge))
}

func TestGetJSON_StatusError(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
	}{
		{http.StatusUnauthorized, ErrAuthFailed},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusBadGateway, ErrServer},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte("nope"))
			}))
			defer server.Close()

			var out map[string]interface{}
			err := New(server.URL).GetJSON(context.Background(), "/x", nil, &out)
			require.Error(t, err)

			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.StatusCode)
			assert.True(t, errors.Is(err, tt.sentinel))
			assert.Contains(t, se.Error(), "nope")
		})
	}
}

func TestPostJSON_Decodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]interface{}
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]interface{}{"echo": in["v"]})
	}))
	defer server.Close()

	var out struct {
		Echo string `json:"echo"`
	}
	require.NoError(t, New(server.URL).PostJSON(context.Background(), "/e", map[string]string{"v": "hi"}, &out))
	assert.Equal(t, "hi", out.Echo)
}

func TestURL(t *testing.T) {
	c := New("https://api.example.com/api/v1/")

	assert.Equal(t, "https://api.example.com/api/v1/applications", c.URL("applications", nil, ""))
	assert.Equal(t, "https://api.example.com/api/v1/a?x=1&y=2", c.URL("/a", url.Values{"x": {"1"}}, "?y=2"))
	assert.Equal(t, "https://other.example.com/t.bicep", c.URL("https://other.example.com/t.bicep", nil, ""))
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("param location string"))
	}))
	defer server.Close()

	c := New("")
	data, err := c.Download(context.Background(), server.URL+"/main.bicep")
	require.NoError(t, err)
	assert.Equal(t, "param location string", string(data))

	_, err = c.Download(context.Background(), server.URL+"/missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = c.Download(context.Background(), "file:///etc/passwd")
	assert.Error(t, err)
}

func TestRateLimit_Throttles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	c := New(server.URL).WithRateLimit(20, 1)
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Do(context.Background(), Request{Path: "/"})
		require.NoError(t, err)
	}
	// Burst of 1 at 20/s: the 2nd and 3rd calls each wait ~50ms
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestNetworkError_Connect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = New("http://"+addr).Do(context.Background(), Request{Path: "/"})
	require.Error(t, err)

	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, KindConnect, ne.Kind)
	assert.Equal(t, "failed to connect to host", ne.Message())
}

func TestNetworkError_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	_, err := New(server.URL).WithTimeout(50*time.Millisecond).Do(context.Background(), Request{Path: "/"})
	require.Error(t, err)

	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, KindTimeout, ne.Kind)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindDNS, classify(&net.DNSError{Err: "no such host", Name: "x.invalid"}))
	assert.Equal(t, KindTimeout, classify(context.DeadlineExceeded))
	assert.Equal(t, KindTLS, classify(errors.New("remote error: tls: handshake failure")))
	assert.Equal(t, KindOther, classify(errors.New("boom")))
	assert.Equal(t, "dns", KindDNS.String())
}
