package ddns

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"
	"ydns/common"
	"ydns/log"

	"go.uber.org/zap"
)

const maxReadBody = 4 * 1024

// DefaultTimeout bounds a single update request.
const DefaultTimeout = 5 * time.Second

// ErrNoHTTPClient is the outcome error of a Client without HTTP. No
// unpinned client is ever substituted.
var ErrNoHTTPClient = errors.New("no family-pinned http client configured")

// Client fetches update URLs over a single address family. The family of
// the request is entirely up to HTTP, which is expected to be pinned with
// transport.NewClient; Family only labels the outcome.
type Client struct {
	Family    common.Family
	HTTP      *http.Client
	UserAgent string
	Timeout   time.Duration
}

// Update issues a GET against updateURL. HTTP error statuses are outcomes,
// not errors: only failing to obtain a status at all yields ConnectionFailed.
func (c *Client) Update(ctx context.Context, updateURL string) (out Outcome) {
	ctx = log.With(ctx, log.Family(c.Family), log.URL("url", updateURL))
	elapsed := log.Elapsed("elapsed")

	defer func() {
		if out.Kind == ConnectionFailed {
			log.S(ctx).Warnw("update failed", elapsed, zap.Error(out.Err))
		} else {
			log.S(ctx).Debugw("update answered", elapsed, "status", out.Status, "outcome", out.Kind)
		}
	}()

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, updateURL, nil)
	if err != nil {
		return Outcome{Kind: ConnectionFailed, Err: redact(err)}
	}

	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Cache-Control", "no-cache")

	if c.HTTP == nil {
		log.S(ctx).Errorw("update client without http client", log.Internal)
		return Outcome{Kind: ConnectionFailed, Err: ErrNoHTTPClient}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Outcome{Kind: ConnectionFailed, Err: redact(err)}
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.S(ctx).Debugw("close body failed", zap.Error(err))
		}
	}(resp.Body)

	// The body carries nothing of interest; drain a little of it so the
	// connection can be reused for the next record.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxReadBody))

	return Classify(resp.StatusCode)
}

// redact strips the *url.Error wrapper, whose message would otherwise
// include the full secret-bearing update URL.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
