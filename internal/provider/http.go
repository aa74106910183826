package provider

import (
	"bytes"
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

// sharedClient is reused by every adapter so idle connections and TLS
// sessions amortize across requests instead of per-call dial overhead.
var sharedClient = &http.Client{
	Timeout: 10 * time.Minute,
	Transport: &http.Transport{
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

// doRequest issues an HTTP request with exponential backoff on transport
// errors and 5xx responses. The request body is buffered up front so it
// can be replayed across retries.
func doRequest(ctx context.Context, method, url string, headers map[string]string, body []byte) (*http.Response, error) {
	retryDelay := 1 * time.Second
	const maxRetries = 3

	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, errs.Provider("build request", err, false)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := sharedClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errs.Cancelled("request cancelled")
			}
			if attempt < maxRetries {
				log.Printf("provider: request failed: %v, retrying in %v", err, retryDelay)
				time.Sleep(retryDelay)
				retryDelay *= 2
				continue
			}
			return nil, errs.Provider("request failed", err, true)
		}

		if resp.StatusCode >= 500 && attempt < maxRetries {
			resp.Body.Close()
			log.Printf("provider: server returned %d, retrying in %v", resp.StatusCode, retryDelay)
			time.Sleep(retryDelay)
			retryDelay *= 2
			continue
		}

		return resp, nil
	}
}
