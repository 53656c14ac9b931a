// Copyright 2024 The TableStore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"go.tablestore.dev/ots"
)

// Request is one framed exchange. Headers are pre-signed by the caller.
type Request struct {
	Path           string
	Body           []byte
	Headers        map[string]string
	RequestTimeout time.Duration
}

// Response is the raw result of an exchange. Header names are lowercase.
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// Transport is the capability the pipeline sends through. The default
// implementation pools connections; the core treats it as opaque and
// tolerates connections dying between attempts.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

type httpTransport struct {
	base   string
	client *http.Client
}

// NewHTTP builds the default transport over net/http. connectTimeout
// bounds dialing (and the TLS handshake); per-request deadlines come in
// on each Send.
func NewHTTP(ep Endpoint, maxConns int, connectTimeout time.Duration) Transport {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &httpTransport{
		base: ep.BaseURL(),
		client: &http.Client{
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: connectTimeout,
				MaxIdleConns:        maxConns,
				MaxIdleConnsPerHost: maxConns,
				MaxConnsPerHost:     maxConns,
			},
		},
	}
}

func transportError(code, msg string) *ots.Error {
	return &ots.Error{Code: code, Message: msg}
}

// classify maps a net/http error onto the transport error taxonomy.
func classify(err error) *ots.Error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return transportError(ots.ErrCodeCouldntResolveHost, dnsErr.Error())
	}
	var recordErr tls.RecordHeaderError
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &recordErr) || errors.As(err, &certErr) {
		return transportError(ots.ErrCodeSSLHandshakeFail, err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return transportError(ots.ErrCodeRequestTimeout, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return transportError(ots.ErrCodeRequestTimeout, err.Error())
	}
	return transportError(ots.ErrCodeWriteRequestFail, err.Error())
}

func (t *httpTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, req.RequestTimeout)
	defer cancel()

	hreq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, t.base+req.Path, bytes.NewReader(req.Body))
	if err != nil {
		return nil, transportError(ots.ErrCodeWriteRequestFail, err.Error())
	}
	for k, v := range req.Headers {
		hreq.Header.Set(k, v)
	}

	hresp, err := t.client.Do(hreq)
	if err != nil {
		return nil, classify(err)
	}
	defer hresp.Body.Close()

	body, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, transportError(ots.ErrCodeResponseDirectlyLost, err.Error())
	}

	headers := make(map[string]string, len(hresp.Header))
	for k := range hresp.Header {
		headers[lower(k)] = hresp.Header.Get(k)
	}
	return &Response{
		Status:  hresp.StatusCode,
		Headers: headers,
		Body:    body,
	}, nil
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
