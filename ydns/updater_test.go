package ydns

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync"
	"testing"
	"ydns/common"
	"ydns/ddns"
	"ydns/metrics"
	"ydns/transport"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/http/httpproxy"
)

// v4OnlyResolver knows a single IPv4 address for every host, like a
// provider reachable from an IPv4-only network.
type v4OnlyResolver struct{}

func (v4OnlyResolver) LookupNetIP(_ context.Context, network, host string) ([]netip.Addr, error) {
	if network == "ip6" {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	return []netip.Addr{netip.MustParseAddr("127.0.0.1")}, nil
}

type provider struct {
	srv  *httptest.Server
	base string

	mu   sync.Mutex
	hits []string
}

// newProvider answers /<status> with that status.
func newProvider(t *testing.T) *provider {
	t.Helper()

	p := &provider{}
	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.hits = append(p.hits, r.URL.Path)
		p.mu.Unlock()

		switch strings.TrimPrefix(r.URL.Path, "/") {
		case "404":
			w.WriteHeader(http.StatusNotFound)
		case "400":
			w.WriteHeader(http.StatusBadRequest)
		case "500":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte("ok"))
		}
	}))
	t.Cleanup(p.srv.Close)

	_, port, err := net.SplitHostPort(p.srv.Listener.Addr().String())
	require.NoError(t, err)
	p.base = "http://ydns.test:" + port
	return p
}

func (p *provider) url(path string) string {
	return p.base + path
}

func (p *provider) hitCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.hits)
}

type runResult struct {
	summary *Summary
	stdout  string
	stderr  string
}

func run(t *testing.T, records []ddns.Record, verbose bool, m *metrics.Metrics) runResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	u, err := NewUpdater(context.Background(), Options{
		Transport: transport.Options{
			Resolver: v4OnlyResolver{},
			Proxy:    &httpproxy.Config{},
		},
		UserAgent: "ydns-py/test",
		Verbose:   verbose,
		Stdout:    &stdout,
		Stderr:    &stderr,
		Metrics:   m,
	})
	require.NoError(t, err)
	defer u.Close()

	summary := u.Run(context.Background(), records)
	return runResult{summary: summary, stdout: stdout.String(), stderr: stderr.String()}
}

func TestSuccessIsSilent(t *testing.T) {
	p := newProvider(t)

	res := run(t, []ddns.Record{{Domain: "a.ydns.eu", UpdateURL: p.url("/200")}}, false, nil)

	require.Equal(t, common.ExitOK, res.summary.ExitCode(false))
	require.Equal(t, common.ExitOK, res.summary.ExitCode(true))
	require.Empty(t, res.stdout)
	require.Empty(t, res.stderr)
	require.Equal(t, 1, p.hitCount())
}

func TestVerboseSuccess(t *testing.T) {
	p := newProvider(t)

	res := run(t, []ddns.Record{{Domain: "a.ydns.eu", UpdateURL: p.url("/200")}}, true, nil)

	require.Equal(t, "Updated a.ydns.eu (IPv4) successfully.\n", res.stdout)
	require.Empty(t, res.stderr)
}

func TestRejectedLax(t *testing.T) {
	p := newProvider(t)

	res := run(t, []ddns.Record{{Domain: "a.ydns.eu", UpdateURL: p.url("/404")}}, false, nil)

	require.Equal(t, common.ExitOK, res.summary.ExitCode(false))
	require.Contains(t, res.stderr, "invalid (404)")
	require.Empty(t, res.stdout)
}

func TestRejectedStrict(t *testing.T) {
	p := newProvider(t)

	res := run(t, []ddns.Record{{Domain: "a.ydns.eu", UpdateURL: p.url("/404")}}, false, nil)

	require.True(t, res.summary.AnyHTTPRejected)
	require.Equal(t, common.ExitUpdateFailed, res.summary.ExitCode(true))
}

func TestNoIPv6Address(t *testing.T) {
	p := newProvider(t)

	res := run(t, []ddns.Record{{Domain: "a.ydns.eu", UpdateURLv6: p.url("/200")}}, false, nil)

	require.Equal(t, common.ExitConnection, res.summary.ExitCode(false))
	require.Contains(t, res.stderr, "a.ydns.eu (IPv6): connection error")
	// Never silently falls back to IPv4.
	require.Equal(t, 0, p.hitCount())

	var fault *transport.Fault
	require.ErrorAs(t, res.summary.Attempts[0].Outcome.Err, &fault)
	require.Equal(t, transport.ResolutionFailed, fault.Kind)
	require.Error(t, res.summary.Err())
}

func TestFailureDoesNotStopRun(t *testing.T) {
	p := newProvider(t)

	res := run(t, []ddns.Record{
		{Domain: "a.ydns.eu", UpdateURL: p.url("/404")},
		{Domain: "b.ydns.eu", UpdateURL: p.url("/200")},
	}, false, nil)

	require.Equal(t, common.ExitOK, res.summary.ExitCode(false))
	require.Equal(t, []string{"/404", "/200"}, p.hits)
	require.Len(t, res.summary.Attempts, 2)
	require.Equal(t, "b.ydns.eu", res.summary.Attempts[1].Domain)
	require.Equal(t, ddns.Success, res.summary.Attempts[1].Outcome.Kind)
}

func TestAttemptCountMatchesURLs(t *testing.T) {
	p := newProvider(t)
	m := metrics.New()

	records := []ddns.Record{
		{Domain: "a.ydns.eu", UpdateURL: p.url("/500"), UpdateURLv6: p.url("/200")},
		{Domain: "b.ydns.eu"},
		{Domain: "c.ydns.eu", UpdateURL: p.url("/400")},
		{Domain: "d.ydns.eu", UpdateURL: p.url("/200"), UpdateURLv6: p.url("/404")},
	}

	res := run(t, records, false, m)

	want := 0
	for _, r := range records {
		want += r.Attempts()
	}
	require.Len(t, res.summary.Attempts, want)
	require.Equal(t, []string{"/500", "/400", "/200"}, p.hits)

	require.True(t, res.summary.AnyHTTPRejected)
	require.True(t, res.summary.AnyConnectionFailed)
	require.Equal(t, common.ExitConnection, res.summary.ExitCode(true))

	require.Equal(t, 1, strings.Count(res.stderr, "No update URLs configured for b.ydns.eu, updates not attempted"))
	require.Contains(t, res.stderr, "a.ydns.eu (IPv4): unexpected HTTP status 500.")
	require.Contains(t, res.stderr, "c.ydns.eu (IPv4): server rejected the request (400). You may not have a public IPv4 address.")

	require.Equal(t, 2.0, updateCount(t, m, "IPv6", "connection_failed"))
	require.Equal(t, 2.0, updateCount(t, m, "IPv4", "http_rejected"))
	require.Equal(t, 1.0, updateCount(t, m, "IPv4", "success"))
}

func TestRecordWithoutURLs(t *testing.T) {
	res := run(t, []ddns.Record{{Domain: "a.ydns.eu"}}, true, nil)

	require.Empty(t, res.summary.Attempts)
	require.Equal(t, "No update URLs configured for a.ydns.eu, updates not attempted\n", res.stderr)
	require.Empty(t, res.stdout)
	require.Equal(t, common.ExitOK, res.summary.ExitCode(true))
}

func TestRepeatedUpdateSucceeds(t *testing.T) {
	p := newProvider(t)
	record := ddns.Record{Domain: "a.ydns.eu", UpdateURL: p.url("/200")}

	for i := 0; i < 2; i++ {
		res := run(t, []ddns.Record{record}, false, nil)
		require.Equal(t, common.ExitOK, res.summary.ExitCode(true))
	}
	require.Equal(t, 2, p.hitCount())
}

func updateCount(t *testing.T, m *metrics.Metrics, family, outcome string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != "ydns_updates_total" {
			continue
		}

	Next:
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				switch label.GetName() {
				case "family":
					if label.GetValue() != family {
						continue Next
					}
				case "outcome":
					if label.GetValue() != outcome {
						continue Next
					}
				}
			}
			return metric.GetCounter().GetValue()
		}
	}

	return 0
}
