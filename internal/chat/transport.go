// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultURL is the assistant endpoint.
	DefaultURL = "https://yieldmind.guru/chat"

	// DefaultTimeout bounds one request.
	DefaultTimeout = 15 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024
)

// Transport performs one request-response exchange.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Shared client with connection pooling. Timeouts come from the request context.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
	},
}

// HTTPTransport posts JSON to the assistant endpoint.
type HTTPTransport struct {
	url        string
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewHTTPTransport creates a transport for endpoint.
func NewHTTPTransport(endpoint string) *HTTPTransport {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	return &HTTPTransport{
		url:        endpoint,
		httpClient: sharedHTTPClient,
		timeout:    DefaultTimeout,
		logger:     log.Logger,
	}
}

// WithTimeout sets the per-request timeout. Non-positive values are ignored.
func (t *HTTPTransport) WithTimeout(timeout time.Duration) *HTTPTransport {
	if timeout > 0 {
		t.timeout = timeout
	}
	return t
}

// WithHTTPClient replaces the HTTP client.
func (t *HTTPTransport) WithHTTPClient(c *http.Client) *HTTPTransport {
	t.httpClient = c
	return t
}

// WithLogger sets the logger.
func (t *HTTPTransport) WithLogger(logger zerolog.Logger) *HTTPTransport {
	t.logger = logger
	return t
}

// URL returns the endpoint.
func (t *HTTPTransport) URL() string { return t.url }

// Do posts req and decodes the reply. Errors are always *Error.
func (t *HTTPTransport) Do(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "could not encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "could not build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	// Bodies are never logged.
	t.logger.Debug().
		Str("method", httpReq.Method).
		Str("path", httpReq.URL.Path).
		Int("messages", len(req.Messages)).
		Msg("chat request")

	start := time.Now()
	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	t.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("chat response")
	if err != nil {
		return nil, classify(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, remoteError(resp.StatusCode, data)
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "could not decode response", Body: string(data), Err: err}
	}
	return &out, nil
}

// readResponse reads the body, refusing anything over MaxResponseSize.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	if len(body) > MaxResponseSize {
		return nil, &Error{
			Kind:    KindUnknown,
			Message: fmt.Sprintf("response exceeded maximum size of %d bytes", MaxResponseSize),
		}
	}
	return body, nil
}

// remoteError builds a KindRemote error. The message prefers the body's
// "detail", then "message", then a bare JSON string, then the raw text, then
// "Server error: <status>".
func remoteError(status int, body []byte) *Error {
	msg := ""
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		msg = strings.TrimSpace(string(body))
	} else {
		switch v := decoded.(type) {
		case map[string]interface{}:
			msg = stringField(v["detail"])
			if msg == "" {
				msg = stringField(v["message"])
			}
		case string:
			msg = strings.TrimSpace(v)
		default:
			msg = strings.TrimSpace(string(body))
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("Server error: %d", status)
	}
	return &Error{Kind: KindRemote, Status: status, Message: msg, Body: string(body)}
}

// stringField renders a JSON value as text; structured values are re-encoded.
func stringField(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// classify maps a transport failure onto a Kind.
func classify(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	if isCertificateError(err) {
		return &Error{Kind: KindCertificate, Message: "certificate verification failed", Err: err}
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindNetwork, Message: "request canceled", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindNetwork, Message: "request timed out", Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &Error{Kind: KindNetwork, Message: "request timed out", Err: err}
		}
		return &Error{Kind: KindNetwork, Message: "network error", Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{Kind: KindNetwork, Message: "network error", Err: err}
	}

	return &Error{Kind: KindUnknown, Err: err}
}

func isCertificateError(err error) bool {
	var (
		verifyErr   *tls.CertificateVerificationError
		unknownAuth x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidErr  x509.CertificateInvalidError
		systemErr   x509.SystemRootsError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &unknownAuth) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr) ||
		errors.As(err, &systemErr)
}
