package xgoesi

import (
	"context"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// checkRetry retries temporary server errors only.
// Other errors like 420 or 4xx client errors are not retried.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true, nil
		}
		if resp.StatusCode >= 400 {
			return false, nil
		}
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}
