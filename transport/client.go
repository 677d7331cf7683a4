package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"time"
	"ydns/common"
	"ydns/log"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/net/http/httpproxy"
)

// Options configure the clients returned by NewClient.
type Options struct {
	Timeout   time.Duration
	Resolver  Resolver
	TLSConfig *tls.Config

	// Proxy selects the CONNECT proxy per request. Nil reads HTTPS_PROXY,
	// HTTP_PROXY and NO_PROXY from the environment.
	Proxy *httpproxy.Config
}

func NewDialer(family common.Family, opts Options) *Dialer {
	return &Dialer{
		Family:    family,
		Timeout:   opts.Timeout,
		Resolver:  opts.Resolver,
		TLSConfig: opts.TLSConfig,
	}
}

// NewClient returns an http.Client whose every connection, including the
// one to a proxy, is made over family. Requests through a proxy are
// tunneled with CONNECT by net/http before TLS is negotiated end to end.
func NewClient(ctx context.Context, family common.Family, opts Options) (*http.Client, error) {
	client := cleanhttp.DefaultClient()
	client.Timeout = opts.Timeout

	client, err := Pin(ctx, client, NewDialer(family, opts), proxyFunc(opts.Proxy))
	if err != nil {
		return nil, err
	}

	return client, nil
}

// Pin returns a copy of client with its transport dialing through d.
// Only clients with a nil or *http.Transport transport can be pinned.
func Pin(ctx context.Context, client *http.Client, d *Dialer, proxy func(*http.Request) (*url.URL, error)) (*http.Client, error) {
	if client == nil {
		client = cleanhttp.DefaultClient()
	}

	var transport *http.Transport
	switch t := client.Transport.(type) {
	case nil:
		transport = cleanhttp.DefaultTransport()
	case *http.Transport:
		transport = t.Clone()
	default:
		log.S(ctx).Errorw("found unknown custom http.Client.Transport",
			"transport_type", reflect.TypeOf(client.Transport).String())
		return nil, fmt.Errorf("unknown custom http.Client.Transport")
	}

	transport.DialContext = d.DialContext
	transport.DialTLSContext = d.DialTLSContext
	// Used by net/http for the end to end handshake after a CONNECT tunnel.
	// net/http adds its ALPN protocols to this config, so it gets a copy.
	if d.TLSConfig != nil {
		transport.TLSClientConfig = d.TLSConfig.Clone()
	}
	transport.TLSHandshakeTimeout = d.timeout()
	if proxy != nil {
		transport.Proxy = proxy
	}

	clientCopy := *client
	clientCopy.Transport = transport
	return &clientCopy, nil
}

func proxyFunc(config *httpproxy.Config) func(*http.Request) (*url.URL, error) {
	if config == nil {
		config = httpproxy.FromEnvironment()
	}

	pf := config.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return pf(req.URL)
	}
}
