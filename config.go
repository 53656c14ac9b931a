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

package ots

import (
	"strings"
	"time"

	"go.tablestore.dev/ots/executor"
)

// Endpoint addresses one service instance.
//
// Address must match ("http"|"https") "://" host [":" port] ["/"...],
// with an empty or root path only.
type Endpoint struct {
	Address      string
	InstanceName string
}

func (e Endpoint) Validate() error {
	if e.Address == "" {
		return errParam("Endpoint must be nonempty.")
	}
	if e.InstanceName == "" {
		return errParam("Instance name must be nonempty.")
	}
	return nil
}

// Credential authenticates requests. SecurityToken is optional.
type Credential struct {
	AccessKeyID     string
	AccessKeySecret string
	SecurityToken   string
}

func containsCRLF(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}

func (c Credential) Validate() error {
	if c.AccessKeyID == "" {
		return errParam("Access-key id must be nonempty.")
	}
	if containsCRLF(c.AccessKeyID) {
		return errParam("Access-key id must contain neither CR nor LF.")
	}
	if c.AccessKeySecret == "" {
		return errParam("Access-key secret must be nonempty.")
	}
	if containsCRLF(c.AccessKeySecret) {
		return errParam("Access-key secret must contain neither CR nor LF.")
	}
	if containsCRLF(c.SecurityToken) {
		return errParam("Security token must contain neither CR nor LF.")
	}
	return nil
}

// Client defaults.
const (
	DefaultMaxConnections = 5000
	DefaultConnectTimeout = 3 * time.Second
	DefaultRequestTimeout = 3 * time.Second
	DefaultRetryDeadline  = 10 * time.Second
	DefaultExecutors      = 10
)

// ClientOptions tunes a client. The zero value is not usable; start from
// DefaultClientOptions.
type ClientOptions struct {
	// MaxConnections caps the transport connection pool.
	MaxConnections int
	// ConnectTimeout bounds connection establishment per attempt.
	ConnectTimeout time.Duration
	// RequestTimeout bounds one request-response exchange per attempt.
	RequestTimeout time.Duration
	// RetryStrategy is the template cloned for each logical call.
	RetryStrategy RetryStrategy
	// Executors is the pool user callbacks run on. When nil, the client
	// creates and owns a pool of DefaultExecutors executors.
	Executors *executor.Pool
}

// DefaultClientOptions mirrors the documented client defaults.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		MaxConnections: DefaultMaxConnections,
		ConnectTimeout: DefaultConnectTimeout,
		RequestTimeout: DefaultRequestTimeout,
		RetryStrategy:  NewDeadlineRetryStrategy(DefaultRetryDeadline),
	}
}

func (o ClientOptions) Validate() error {
	if o.MaxConnections <= 0 {
		return errParam("MaxConnections must be positive.")
	}
	if o.ConnectTimeout < time.Millisecond {
		return errParam("ConnectTimeout must be greater than 1 msec.")
	}
	if o.RequestTimeout < time.Millisecond {
		return errParam("RequestTimeout must be greater than 1 msec.")
	}
	if o.RetryStrategy == nil {
		return errParam("RetryStrategy is required.")
	}
	return nil
}
