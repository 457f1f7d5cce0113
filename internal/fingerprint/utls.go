package fingerprint

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	utls "github.com/refraction-networking/utls"
)

// Profile names the TLS ClientHello the search requests present.
type Profile string

const (
	ProfileChrome  Profile = "chrome"
	ProfileFirefox Profile = "firefox"
	ProfileSafari  Profile = "safari"
	ProfileGo      Profile = "go"     // crypto/tls defaults
	ProfileRandom  Profile = "random" // randomized uTLS hello
)

// Profiles lists every accepted profile name.
func Profiles() []Profile {
	return []Profile{ProfileChrome, ProfileFirefox, ProfileSafari, ProfileGo, ProfileRandom}
}

// ParseProfile maps a user supplied name onto a Profile.
func ParseProfile(name string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(name)))
	if p == "" {
		return ProfileChrome, nil
	}
	if _, err := helloID(p); err != nil {
		return "", err
	}
	return p, nil
}

func helloID(p Profile) (utls.ClientHelloID, error) {
	switch p {
	case ProfileChrome:
		return utls.HelloChrome_Auto, nil
	case ProfileFirefox:
		return utls.HelloFirefox_Auto, nil
	case ProfileSafari:
		return utls.HelloIOS_Auto, nil
	case ProfileRandom:
		return utls.HelloRandomizedALPN, nil
	case ProfileGo:
		return utls.HelloGolang, nil
	default:
		return utls.ClientHelloID{}, fmt.Errorf("fingerprint: unknown profile %q", p)
	}
}

type options struct {
	rootCAs *x509.CertPool
}

// Option customises the TLS side of a Transport.
type Option func(*options)

// WithRootCAs verifies server certificates against pool instead of the
// system roots.
func WithRootCAs(pool *x509.CertPool) Option {
	return func(o *options) { o.rootCAs = pool }
}

// Transport returns an http.RoundTripper whose TLS handshake mimics the given
// browser profile. ProfileGo returns a plain clone of http.DefaultTransport.
// proxyFunc is optional and replaces the transport's Proxy when set.
func Transport(p Profile, proxyFunc func(*http.Request) (*url.URL, error), opts ...Option) (http.RoundTripper, error) {
	id, err := helloID(p)
	if err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyFunc != nil {
		transport.Proxy = proxyFunc
	}
	if p == ProfileGo {
		if o.rootCAs != nil {
			transport.TLSClientConfig = &tls.Config{RootCAs: o.rootCAs}
		}
		return transport, nil
	}

	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		tcpConn, err := transport.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}

		uConn, err := client(tcpConn, &utls.Config{ServerName: host, RootCAs: o.rootCAs}, id)
		if err != nil {
			_ = tcpConn.Close()
			return nil, err
		}
		if err := uConn.HandshakeContext(ctx); err != nil {
			_ = tcpConn.Close()
			return nil, fmt.Errorf("fingerprint: utls handshake failed: %w", err)
		}
		return uConn, nil
	}

	return transport, nil
}

// alpn is the only protocol offered. Connections from DialTLSContext are
// spoken to as HTTP/1.1 by http.Transport, so a server must never pick h2.
var alpn = []string{"http/1.1"}

// client builds a UConn for id whose hello offers alpn instead of the
// preset's own ALPN list.
func client(conn net.Conn, cfg *utls.Config, id utls.ClientHelloID) (*utls.UConn, error) {
	cfg.NextProtos = append([]string(nil), alpn...)
	if id == utls.HelloRandomizedALPN {
		// Randomized specs take their ALPN list from cfg.NextProtos.
		return utls.UClient(conn, cfg, id), nil
	}

	spec, err := utls.UTLSIdToSpec(id)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	for _, ext := range spec.Extensions {
		if e, ok := ext.(*utls.ALPNExtension); ok {
			e.AlpnProtocols = append([]string(nil), alpn...)
		}
	}

	uConn := utls.UClient(conn, cfg, utls.HelloCustom)
	if err := uConn.ApplyPreset(&spec); err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	return uConn, nil
}
