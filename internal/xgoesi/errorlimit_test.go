package xgoesi_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warpedintentions/srp/internal/xgoesi"
)

func TestErrorLimiter(t *testing.T) {
	t.Run("should pass through normal requests", func(t *testing.T) {
		t.Parallel()
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-ESI-Error-Limit-Remain", "100")
			w.Header().Set("X-ESI-Error-Limit-Reset", "60")
			fmt.Fprint(w, "Hello, Mock Server!")
		}))
		defer ts.Close()
		client := &http.Client{Transport: &xgoesi.ErrorLimiter{}}
		for range 3 {
			resp, err := client.Get(ts.URL)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}
	})
	t.Run("should block subsequent requests after 420 received", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("X-ESI-Error-Limit-Remain", "0")
			w.Header().Set("X-ESI-Error-Limit-Reset", "60")
			w.WriteHeader(xgoesi.StatusTooManyErrors)
		}))
		defer ts.Close()
		client := &http.Client{Transport: &xgoesi.ErrorLimiter{}}
		resp, err := client.Get(ts.URL)
		require.NoError(t, err)
		resp.Body.Close()
		// when
		resp, err = client.Get(ts.URL)
		// then
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, xgoesi.StatusTooManyErrors, resp.StatusCode)
		assert.Equal(t, "localhost", resp.Header.Get("X-Origin-Server"))
		assert.Equal(t, int32(1), calls.Load())
	})
	t.Run("should block subsequent requests when threshold is reached", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("X-ESI-Error-Limit-Remain", "3")
			w.Header().Set("X-ESI-Error-Limit-Reset", "60")
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()
		client := &http.Client{Transport: &xgoesi.ErrorLimiter{}}
		resp, err := client.Get(ts.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		// when
		resp, err = client.Get(ts.URL)
		// then
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, xgoesi.StatusTooManyErrors, resp.StatusCode)
		assert.Equal(t, int32(1), calls.Load())
	})
	t.Run("should resume requests after reset", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := calls.Add(1)
			if n == 1 {
				w.Header().Set("X-ESI-Error-Limit-Reset", "1")
				w.WriteHeader(xgoesi.StatusTooManyErrors)
				return
			}
			fmt.Fprint(w, "ok")
		}))
		defer ts.Close()
		client := &http.Client{Transport: &xgoesi.ErrorLimiter{}}
		resp, err := client.Get(ts.URL)
		require.NoError(t, err)
		resp.Body.Close()
		// when
		time.Sleep(1100 * time.Millisecond)
		resp, err = client.Get(ts.URL)
		// then
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestParseErrorLimitResetHeader(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   time.Duration
		wantOK bool
	}{
		{"valid integer", "120", 120 * time.Second, true},
		{"zero", "0", 0, true},
		{"missing", "", 0, false},
		{"invalid", "abc", 0, false},
		{"negative", "-5", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tc.header != "" {
				resp.Header.Set("X-ESI-Error-Limit-Reset", tc.header)
			}
			got, ok := xgoesi.ParseErrorLimitResetHeader(resp)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
