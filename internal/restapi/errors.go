// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package restapi

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strings"
	"syscall"
)

// NetworkErrorKind classifies transport failures.
type NetworkErrorKind int

const (
	// KindOther is any unclassified transport failure
	KindOther NetworkErrorKind = iota

	// KindDNS means the host name could not be resolved
	KindDNS

	// KindConnect means the TCP connection was refused or unreachable
	KindConnect

	// KindTimeout means the request did not complete in time
	KindTimeout

	// KindTLS means the TLS handshake or certificate check failed
	KindTLS
)

// String returns the kind name.
func (k NetworkErrorKind) String() string {
	switch k {
	case KindDNS:
		return "dns"
	case KindConnect:
		return "connect"
	case KindTimeout:
		return "timeout"
	case KindTLS:
		return "tls"
	default:
		return "network"
	}
}

// NetworkError is a request that never produced an HTTP response.
type NetworkError struct {
	Kind NetworkErrorKind
	URL  string
	Err  error
}

func (e *NetworkError) Error() string {
	return e.Message() + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Message returns a short user-facing description of the failure.
func (e *NetworkError) Message() string {
	switch e.Kind {
	case KindDNS:
		return "could not resolve host"
	case KindConnect:
		return "failed to connect to host"
	case KindTimeout:
		return "request timed out"
	case KindTLS:
		return "SSL/TLS connection error"
	default:
		return "network error"
	}
}

// ClassifyNetworkError wraps a transport error with its kind.
func ClassifyNetworkError(rawURL string, err error) *NetworkError {
	return &NetworkError{Kind: classify(err), URL: rawURL, Err: err}
}

func classify(err error) NetworkErrorKind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindTimeout
		}
		return KindDNS
	}

	var certErr *tls.CertificateVerificationError
	var recErr tls.RecordHeaderError
	var authErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	if errors.As(err, &certErr) || errors.As(err, &recErr) || errors.As(err, &authErr) ||
		errors.As(err, &hostErr) || errors.As(err, &invalidErr) {
		return KindTLS
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return KindConnect
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindConnect
	}

	if strings.Contains(err.Error(), "tls:") {
		return KindTLS
	}
	return KindOther
}
