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

// Package signer canonicalizes request headers and signs them with
// HMAC-SHA1 over the access-key secret.
package signer

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"sort"
	"strings"

	"go.chromium.org/luci/common/clock"

	"go.tablestore.dev/ots"
)

// APIVersion is the protocol version every request declares. It is tied
// to the server and must not change.
const APIVersion = "2015-12-31"

// Header names, all lowercase on the wire.
const (
	HeaderDate         = "x-ots-date"
	HeaderAPIVersion   = "x-ots-apiversion"
	HeaderAccessKeyID  = "x-ots-accesskeyid"
	HeaderInstanceName = "x-ots-instancename"
	HeaderSTSToken     = "x-ots-sts-token"
	HeaderContentMD5   = "x-ots-contentmd5"
	HeaderSignature    = "x-ots-signature"
	HeaderTraceID      = "x-ots-traceid"
	HeaderRequestID    = "x-ots-requestid"
)

// Signer derives the authentication headers for requests of one client.
type Signer struct {
	cred     ots.Credential
	instance string
}

func New(cred ots.Credential, instance string) *Signer {
	return &Signer{cred: cred, instance: instance}
}

// dateFormat is ISO-8601 UTC with microseconds and a literal Z suffix.
const dateFormat = "2006-01-02T15:04:05.000000"

// Headers builds the full header set for one attempt: credential and
// trace headers, a content MD5, and the signature over the canonical
// string.
func (s *Signer) Headers(ctx context.Context, path string, body []byte, traceID string) map[string]string {
	sum := md5.Sum(body)
	h := map[string]string{
		HeaderDate:         clock.Now(ctx).UTC().Format(dateFormat) + "Z",
		HeaderAPIVersion:   APIVersion,
		HeaderAccessKeyID:  s.cred.AccessKeyID,
		HeaderInstanceName: s.instance,
		HeaderContentMD5:   base64.StdEncoding.EncodeToString(sum[:]),
		HeaderTraceID:      traceID,
	}
	if s.cred.SecurityToken != "" {
		h[HeaderSTSToken] = s.cred.SecurityToken
	}
	h[HeaderSignature] = s.sign("POST", path, "", h)
	return h
}

// canonicalize lowercases header names, trims values, sorts by name
// case-insensitively and joins one "name:value" per line.
func canonicalize(headers map[string]string) string {
	lines := make([]string, 0, len(headers))
	for name, value := range headers {
		lines = append(lines, strings.ToLower(name)+":"+strings.TrimSpace(value))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// sign computes the base64 HMAC-SHA1 over
// METHOD \n URI-PATH \n canonical-query \n canonical-headers.
func (s *Signer) sign(method, path, query string, headers map[string]string) string {
	toSign := method + "\n" + path + "\n" + query + "\n" + canonicalize(headers)
	mac := hmac.New(sha1.New, []byte(s.cred.AccessKeySecret))
	mac.Write([]byte(toSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
