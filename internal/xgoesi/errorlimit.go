package xgoesi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	StatusTooManyErrors = 420

	ErrorLimitResetFallback = time.Second * 60
	headerErrorLimitRemain  = "X-ESI-Error-Limit-Remain"
	headerErrorLimitReset   = "X-ESI-Error-Limit-Reset"
	minErrorsRemainDefault  = 5
	requestsPerSecond       = 20
)

// ErrorLimiter is a transport that protects against exceeding the ESI error limit.
//
// Requests are sent with a steady maximum rate.
// All subsequent requests are blocked temporarily
// after the remaining errors fall below a threshold or after a 420 status is received.
// Blocked requests receive a synthetic 420 response without contacting the server.
//
// The zero value is a valid transporter. It is safe for concurrent use.
type ErrorLimiter struct {
	// The RoundTripper interface actually used to make requests
	// If nil, http.DefaultTransport is used
	Transport http.RoundTripper

	// Minimum number of remaining errors in the current error limit window
	// before blocking subsequent requests.
	MinErrorsRemain int

	limiterOnce sync.Once
	limiter     *rate.Limiter

	mu      sync.RWMutex
	retryAt time.Time
}

var _ http.RoundTripper = (*ErrorLimiter)(nil)

func (el *ErrorLimiter) RoundTrip(req *http.Request) (*http.Response, error) {
	myLogger := slog.With(
		slog.String("transport", "ErrorLimiter"),
		slog.String("method", req.Method),
		slog.Any("url", req.URL),
	)
	transport := el.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	el.mu.RLock()
	retryAfter := time.Until(el.retryAt)
	el.mu.RUnlock()
	if retryAfter > 0 {
		resp, err := createErrorResponse(req, StatusTooManyErrors, fmt.Sprintf("error limit timeout: %s", retryAfter))
		if err != nil {
			return nil, err
		}
		resp.Header.Set(headerErrorLimitReset, strconv.Itoa(int(retryAfter.Seconds()+1)))
		resp.Header.Set(headerErrorLimitRemain, "0")
		myLogger.Warn("Blocked request due to error limit timeout", "retryAfter", retryAfter)
		return resp, nil
	}
	el.limiterOnce.Do(func() {
		el.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	})
	if err := el.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	resp, err := transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == StatusTooManyErrors {
		el.block(resp, myLogger, "420 received")
		return resp, nil
	}
	minErrorsRemain := el.MinErrorsRemain
	if minErrorsRemain <= 0 || minErrorsRemain >= 100 {
		minErrorsRemain = minErrorsRemainDefault
	}
	if remain, ok := parseIntHeader(resp, headerErrorLimitRemain); ok && remain <= minErrorsRemain {
		el.block(resp, myLogger, "threshold reached")
	}
	return resp, nil
}

func (el *ErrorLimiter) block(resp *http.Response, logger *slog.Logger, reason string) {
	timeout, ok := ParseErrorLimitResetHeader(resp)
	if !ok {
		logger.Warn("Failed to parse error limit header. Using fallback")
		timeout = ErrorLimitResetFallback
	}
	el.mu.Lock()
	el.retryAt = time.Now().Add(timeout)
	el.mu.Unlock()
	logger.Warn("Activated block for ESI error limit", "reason", reason, "timeout", timeout)
}

// ParseErrorLimitResetHeader tries to return the value of a ESI error limit reset header
// and reports whether it was successful.
func ParseErrorLimitResetHeader(resp *http.Response) (time.Duration, bool) {
	v, ok := parseIntHeader(resp, headerErrorLimitReset)
	if !ok {
		return 0, false
	}
	return time.Second * time.Duration(v), true
}

func parseIntHeader(resp *http.Response, key string) (int, bool) {
	header := resp.Header.Get(key)
	if header == "" {
		return 0, false
	}
	v, err := strconv.Atoi(header)
	if err != nil {
		return 0, false
	}
	if v < 0 { // a negative value doesn't make sense
		return 0, false
	}
	return v, true
}

// createErrorResponse creates a synthetic response for an HTTP error.
func createErrorResponse(req *http.Request, statusCode int, message string) (*http.Response, error) {
	if statusCode < 400 {
		return nil, fmt.Errorf("statusCode must be >=400")
	}
	data, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return nil, err
	}
	var statusText string
	if statusCode == StatusTooManyErrors {
		statusText = "Too Many Errors"
	} else {
		statusText = http.StatusText(statusCode)
	}
	resp := &http.Response{
		Status:        fmt.Sprintf("%d %s", statusCode, statusText),
		StatusCode:    statusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Body:          io.NopCloser(bytes.NewReader(data)),
		Header:        http.Header{"X-Origin-Server": {"localhost"}},
		ContentLength: int64(len(data)),
		Request:       req,
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}
