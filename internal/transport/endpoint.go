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

// Package transport sends framed requests over HTTP behind a minimal
// capability interface the pipeline depends on.
package transport

import (
	"strings"

	"go.tablestore.dev/ots"
)

// Protocol is the scheme of an endpoint.
type Protocol int

const (
	HTTP Protocol = iota
	HTTPS
)

func (p Protocol) String() string {
	if p == HTTPS {
		return "https"
	}
	return "http"
}

// Endpoint is a parsed service address. Only root paths are accepted:
// the endpoint grammar is ("http"|"https") "://" host [":" port] ["/"...].
type Endpoint struct {
	Protocol Protocol
	Host     string
	Port     string
}

func endpointError(msg string) error {
	return &ots.Error{Code: ots.ErrCodeParameterInvalid, Message: msg}
}

// ParseEndpoint parses an endpoint URL. Any non-root path, missing host
// or unknown scheme is rejected.
func ParseEndpoint(url string) (Endpoint, error) {
	var ep Endpoint
	if url == "" {
		return ep, endpointError("Endpoint must be nonempty.")
	}

	rest := url
	i := strings.IndexByte(rest, ':')
	if i < 0 {
		return ep, endpointError("invalid syntax of endpoint.")
	}
	switch rest[:i] {
	case "http":
		ep.Protocol = HTTP
	case "https":
		ep.Protocol = HTTPS
	default:
		return ep, endpointError("unsupported protocol: " + rest[:i] + ".")
	}
	rest = rest[i+1:]
	if !strings.HasPrefix(rest, "//") {
		return ep, endpointError("invalid syntax of endpoint.")
	}
	rest = rest[2:]

	hostEnd := strings.IndexAny(rest, ":/")
	host := rest
	if hostEnd >= 0 {
		host = rest[:hostEnd]
		rest = rest[hostEnd:]
	} else {
		rest = ""
	}
	if host == "" {
		return ep, endpointError("invalid syntax of endpoint.")
	}
	ep.Host = host

	if strings.HasPrefix(rest, ":") {
		rest = rest[1:]
		n := 0
		for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
			n++
		}
		if n == 0 {
			return ep, endpointError("invalid syntax of endpoint.")
		}
		ep.Port = rest[:n]
		rest = rest[n:]
	} else {
		switch ep.Protocol {
		case HTTP:
			ep.Port = "80"
		case HTTPS:
			ep.Port = "443"
		}
	}

	// Whatever remains must be slashes: the path has to be empty or root.
	if strings.Trim(rest, "/") != "" {
		return ep, endpointError("invalid syntax of endpoint.")
	}
	return ep, nil
}

// BaseURL reassembles the endpoint for the HTTP layer.
func (e Endpoint) BaseURL() string {
	return e.Protocol.String() + "://" + e.Host + ":" + e.Port
}
