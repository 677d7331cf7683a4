package ydns

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
	"ydns/common"
	"ydns/ddns"
	"ydns/log"
	"ydns/metrics"
	"ydns/transport"

	"go.uber.org/zap"
)

// DefaultProduct is the product token of the User-Agent header.
var DefaultProduct = "ydns-py"

type Options struct {
	Transport transport.Options
	UserAgent string

	// Verbose prints a line to Stdout for every successful update.
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer

	Metrics *metrics.Metrics
}

// Updater sends every configured update URL through a client pinned to the
// URL's address family. Records are processed in order, one request at a
// time, and a failing request never prevents the following ones.
type Updater struct {
	v4, v6 *ddns.Client

	verbose bool
	stdout  io.Writer
	stderr  io.Writer
	metrics *metrics.Metrics
}

func NewUpdater(ctx context.Context, opts Options) (*Updater, error) {
	ctx = log.SWith(ctx, log.Stage("init:updater"))

	u := &Updater{
		verbose: opts.Verbose,
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
		metrics: opts.Metrics,
	}

	if u.stdout == nil {
		u.stdout = os.Stdout
	}
	if u.stderr == nil {
		u.stderr = os.Stderr
	}

	timeout := opts.Transport.Timeout
	if timeout <= 0 {
		timeout = ddns.DefaultTimeout
		opts.Transport.Timeout = timeout
	}

	for _, family := range []common.Family{common.IPv4, common.IPv6} {
		client, err := transport.NewClient(ctx, family, opts.Transport)
		if err != nil {
			log.S(ctx).Errorw("failed creating http client", log.Family(family), zap.Error(err))
			return nil, fmt.Errorf("failed creating %s client: %w", family, err)
		}

		c := &ddns.Client{
			Family:    family,
			HTTP:      client,
			UserAgent: opts.UserAgent,
			Timeout:   timeout,
		}

		if family == common.IPv4 {
			u.v4 = c
		} else {
			u.v6 = c
		}
	}

	return u, nil
}

func (u *Updater) client(f common.Family) *ddns.Client {
	if f == common.IPv6 {
		return u.v6
	}
	return u.v4
}

func (u *Updater) update(ctx context.Context, record ddns.Record, family common.Family) ddns.Outcome {
	start := time.Now()
	out := u.client(family).Update(ctx, record.URL(family))
	u.metrics.ObserveUpdate(family, time.Since(start))
	u.metrics.IncUpdate(family, out.Kind)

	msg, isError := out.Message(record.Domain, family)
	switch {
	case isError:
		fmt.Fprintln(u.stderr, msg)
	case u.verbose:
		fmt.Fprintln(u.stdout, msg)
	}

	return out
}

// Run attempts every non-empty update URL of records and summarizes the
// outcomes.
func (u *Updater) Run(ctx context.Context, records []ddns.Record) *Summary {
	ctx = log.SWith(ctx, log.Stage("update"))
	summary := &Summary{}

	for _, record := range records {
		ctx := log.With(ctx, log.Domain(record.Domain))

		for _, family := range []common.Family{common.IPv4, common.IPv6} {
			if record.URL(family) == "" {
				continue
			}

			// Intentionally continue on failure. Partial success is better than all fail.
			summary.add(record.Domain, family, u.update(ctx, record, family))
		}

		if record.Attempts() == 0 {
			log.S(ctx).Warnw("no update URLs configured")
			fmt.Fprintf(u.stderr, "No update URLs configured for %s, updates not attempted\n", record.Domain)
		}
	}

	log.S(ctx).Infow("run finished",
		"attempts", len(summary.Attempts),
		"any_http_rejected", summary.AnyHTTPRejected,
		"any_connection_failed", summary.AnyConnectionFailed)

	return summary
}

// Close releases idle connections held by both clients.
func (u *Updater) Close() {
	for _, c := range []*ddns.Client{u.v4, u.v6} {
		if c != nil && c.HTTP != nil {
			c.HTTP.CloseIdleConnections()
		}
	}
}
