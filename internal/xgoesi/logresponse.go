package xgoesi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

// Responses from these URLs contain secrets and their body is never logged.
var redactedURLs = []string{"login.eveonline.com/v2/oauth/token"}

// LogResponse is a callback for retryablehttp.
// It logs all HTTP errors and also the complete response when log level is DEBUG.
func LogResponse(_ retryablehttp.Logger, r *http.Response) {
	ctx := context.Background()
	isDebug := slog.Default().Enabled(ctx, slog.LevelDebug)
	isHTTPError := r.StatusCode >= 400
	if !isDebug && !isHTTPError {
		return
	}
	level := slog.LevelDebug
	if isHTTPError {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "HTTP response", responseAttrs(r, isDebug)...)
}

// responseAttrs returns the log attributes for a response.
// Responses to requests made on behalf of a character are tagged with its ID.
func responseAttrs(r *http.Response, withHeader bool) []any {
	body, err := extractBodyForLog(r)
	if err != nil {
		slog.Error("Failed to extract response body", "error", err)
	}
	attrs := []any{
		slog.String("method", r.Request.Method),
		slog.String("url", redactURL(r.Request.URL.String())),
		slog.String("status", statusText(r)),
		slog.Any("body", body),
	}
	if id, ok := CharacterIDFromContext(r.Request.Context()); ok {
		attrs = append(attrs, slog.Int("characterID", int(id)))
	}
	if withHeader {
		attrs = append(attrs, slog.Any("header", r.Header))
	}
	return attrs
}

func extractBodyForLog(r *http.Response) (any, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	isJSON := mediaType == "application/json"
	if isRedactedURL(r.Request.URL.String()) {
		if !isJSON {
			return "xxxxx", nil
		}
		return map[string]bool{"redacted": true}, nil
	}
	body, err := copyResponseBody(r)
	if err != nil || body == nil {
		return nil, err
	}
	if !isJSON {
		return string(body), nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body), nil
	}
	return v, nil
}

func isRedactedURL(u string) bool {
	return slices.ContainsFunc(redactedURLs, func(x string) bool {
		return strings.Contains(u, x)
	})
}

// redactURL removes the token from URLs which carry one as query parameter.
func redactURL(u string) string {
	if i := strings.Index(u, "token="); i >= 0 {
		j := strings.IndexByte(u[i:], '&')
		if j < 0 {
			return u[:i] + "token=xxxxx"
		}
		return u[:i] + "token=xxxxx" + u[i+j:]
	}
	return u
}

// copyResponseBody returns a copy of the response body r. It preserves the body.
func copyResponseBody(r *http.Response) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))
	return body, nil
}

// statusText returns the status code of a response with adding information.
func statusText(r *http.Response) string {
	var s string
	if r.StatusCode == StatusTooManyErrors {
		s = "Error Limited"
	} else {
		s = http.StatusText(r.StatusCode)
	}
	return fmt.Sprintf("%d %s", r.StatusCode, s)
}
